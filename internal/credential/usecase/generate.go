package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
)

type GenerateInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type GenerateOutput struct {
	EncodedSecret string
	// QRCode is a data URI of the PNG rendering of URI.
	QRCode string
	URI    string
}

// Generate creates a fresh secret for the user. Nothing is stored until Register.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Generate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, user, err := s.authorizeTarget(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	key, err := s.totp.Generate(user.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp key", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &GenerateOutput{
		EncodedSecret: key.Secret,
		QRCode:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(key.QRCode),
		URI:           key.URI,
	}, nil
}
