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

type RemoveInput struct {
	UserID     int64  `validate:"required,gt=0"`
	DeviceName string `json:"device_name" validate:"required,devicename"`
}

func (s *Usecase) Remove(ctx context.Context, in RemoveInput) error {
	ctx, span := s.startSpan(ctx, "Remove")
	defer span.End()

	in.DeviceName = strings.TrimSpace(in.DeviceName)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, _, err := s.authorizeTarget(ctx, in.UserID)
	if err != nil {
		return err
	}

	err = s.repoDB.DeleteCredential(ctx, in.UserID, entity.TypeOTP, in.DeviceName)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Credential not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete credential", "user_id", in.UserID, "device_name", in.DeviceName, "error", err)
		return goerror.NewServer(err)
	}

	s.publish(ctx, CredentialEvent{
		Action:     event.CredentialRemoved,
		UserID:     in.UserID,
		DeviceName: in.DeviceName,
		Actor:      clm.Subject,
	})

	return nil
}
