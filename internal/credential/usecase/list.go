package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

type ListInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type CredentialSummary struct {
	DeviceName string
	Type       string
	Format     entity.SecretFormat
	CreatedAt  time.Time
}

type ListOutput struct {
	Credentials []CredentialSummary
}

// List returns the user's OTP credentials without any secret material.
func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, _, err := s.authorizeTarget(ctx, in.UserID); err != nil {
		return nil, err
	}

	creds, err := s.repoDB.ListCredentials(ctx, in.UserID, entity.TypeOTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list credentials", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &ListOutput{Credentials: make([]CredentialSummary, 0, len(creds))}
	for _, c := range creds {
		out.Credentials = append(out.Credentials, CredentialSummary{
			DeviceName: c.DeviceName,
			Type:       c.Type,
			Format:     secretFormat(c.Secret),
			CreatedAt:  c.CreatedAt,
		})
	}

	return out, nil
}
