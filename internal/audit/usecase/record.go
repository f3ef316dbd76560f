package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/valueobject"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

type RecordEventInput struct {
	Action        event.CredentialAction `validate:"required"`
	UserID        int64                  `validate:"required,gt=0"`
	DeviceName    string
	Actor         string
	Reason        string
	OccurredAt    time.Time
	CorrelationID string
}

// RecordEvent stores a consumed credential event. Malformed events are dropped;
// only storage failures are returned so the broker can redeliver.
func (s *Usecase) RecordEvent(ctx context.Context, in RecordEventInput) error {
	ctx, span := s.startSpan(ctx, "RecordEvent")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "dropping invalid credential event", "error", err)
		return nil
	}

	if !in.Action.Valid() {
		slog.WarnContext(ctx, "dropping credential event with unknown action", "action", string(in.Action))
		return nil
	}

	if in.OccurredAt.IsZero() {
		in.OccurredAt = s.clock.Now()
	}

	ev := entity.Event{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		DeviceName: in.DeviceName,
		Action:     in.Action,
		Actor:      in.Actor,
		Reason:     in.Reason,
		Metadata:   valueobject.JSONMap{}.With("correlation_id", in.CorrelationID),
		OccurredAt: in.OccurredAt,
	}

	if err := s.repoDB.CreateEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to repo create audit event", "user_id", in.UserID, "action", string(in.Action), "error", err)
		return goerror.NewServer(err)
	}

	if in.Action == event.CredentialRegistered {
		s.alertNewDevice(ctx, ev)
	}

	return nil
}

// alertNewDevice tells the user a new authenticator was bound to the account.
// Failures are logged; the event itself is already stored.
func (s *Usecase) alertNewDevice(ctx context.Context, ev entity.Event) {
	rcpt, err := s.repoDB.GetRecipient(ctx, ev.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "alert recipient not found", "user_id", ev.UserID)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get alert recipient", "user_id", ev.UserID, "error", err)
		return
	}
	if strings.TrimSpace(rcpt.Email) == "" {
		slog.InfoContext(ctx, "user has no email, new device alert skipped", "user_id", ev.UserID)
		return
	}

	msg, err := s.newDeviceMessage(rcpt, ev)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render new device alert", "user_id", ev.UserID, "error", err)
		return
	}

	if err := s.repoMail.Send(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to send new device alert", "user_id", ev.UserID, "error", err)
		return
	}

	slog.InfoContext(ctx, "new device alert sent", "user_id", ev.UserID, "device_name", ev.DeviceName)
}
