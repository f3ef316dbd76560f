package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

type VerifyInput struct {
	UserID     int64  `validate:"required,gt=0"`
	DeviceName string `json:"device_name" validate:"required,devicename"`
	Code       string `json:"code" validate:"required,otpcode"`
}

// Verify checks a submitted code against the named credential. A missing
// credential and a wrong code are reported as different 401 messages.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) error {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.DeviceName = strings.TrimSpace(in.DeviceName)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, _, err := s.authorizeTarget(ctx, in.UserID)
	if err != nil {
		return err
	}

	ev := CredentialEvent{UserID: in.UserID, DeviceName: in.DeviceName, Actor: clm.Subject}

	cred, err := s.repoDB.GetCredential(ctx, in.UserID, entity.TypeOTP, in.DeviceName)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "credential not found", "user_id", in.UserID, "device_name", in.DeviceName)
		ev.Action, ev.Reason = event.CredentialVerifyFailed, "credential_not_found"
		s.publish(ctx, ev)
		return goerror.NewBusiness("credential not found", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get credential", "user_id", in.UserID, "device_name", in.DeviceName, "error", err)
		return goerror.NewServer(err)
	}

	if !s.verifier.Verify(ctx, cred, in.Code, s.clock.Now()) {
		slog.WarnContext(ctx, "invalid totp code", "user_id", in.UserID, "device_name", in.DeviceName)
		ev.Action, ev.Reason = event.CredentialVerifyFailed, "invalid_code"
		s.publish(ctx, ev)
		return goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	ev.Action = event.CredentialVerified
	s.publish(ctx, ev)

	return nil
}
