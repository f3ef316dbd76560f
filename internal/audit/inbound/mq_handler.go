package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gotp/internal/audit/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := msg.Header(event.HeaderCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) CredentialEvent(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "CredentialEvent")
	defer span.End()

	var payload event.CredentialMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse credential event", "msg_key", string(msg.Key), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: credential event", "action", string(payload.Action), "user_id", payload.UserID)

	if err := h.uc.RecordEvent(ctx, usecase.RecordEventInput{
		Action:        payload.Action,
		UserID:        payload.UserID,
		DeviceName:    payload.DeviceName,
		Actor:         payload.Actor,
		Reason:        payload.Reason,
		OccurredAt:    payload.OccurredAt,
		CorrelationID: instrument.GetCorrelationID(ctx),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record credential event", "action", string(payload.Action), "error", err)
		return err
	}

	return nil
}
