package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/gotp/internal/credential/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishCredentialEvent keys the message by user id so one user's events stay ordered.
func (m *Messaging) PublishCredentialEvent(ctx context.Context, ev usecase.CredentialEvent) error {
	ctx, span := m.ins.Tracer("credential.outbound.mq").Start(ctx, "PublishCredentialEvent")
	defer span.End()

	body, err := json.Marshal(event.CredentialMessage{
		Action:     ev.Action,
		UserID:     ev.UserID,
		DeviceName: ev.DeviceName,
		Actor:      ev.Actor,
		Reason:     ev.Reason,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.CredentialDestination, messaging.Outgoing{
		Key:     []byte(strconv.FormatInt(ev.UserID, 10)),
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
