package usecase

import (
	"context"
	"encoding/base32"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gotp/internal/credential/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/idempotency"
	"github.com/shandysiswandi/gotp/internal/pkg/saltedsecret"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

type RegisterInput struct {
	UserID        int64  `validate:"required,gt=0"`
	EncodedSecret string `json:"encoded_secret" validate:"required"`
	DeviceName    string `json:"device_name" validate:"required,devicename"`
	InitialCode   string `json:"initial_code" validate:"required,otpcode"`
	Overwrite     bool
	// IdempotencyKey makes retries of the same request safe when set.
	IdempotencyKey string
}

// Register stores a salted credential for the device after proving possession
// of the secret with an initial code.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.DeviceName = strings.TrimSpace(in.DeviceName)
	in.EncodedSecret = normalizeSecret(in.EncodedSecret)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, _, err := s.authorizeTarget(ctx, in.UserID)
	if err != nil {
		return err
	}

	if in.IdempotencyKey == "" {
		return s.register(ctx, in, clm.Subject)
	}

	err = s.idemp.Exec(ctx, idempotencyKey(in.UserID, in.IdempotencyKey), func(ctx context.Context) error {
		return s.register(ctx, in, clm.Subject)
	})
	switch {
	case errors.Is(err, idempotency.ErrCompleted):
		return goerror.NewBusiness("Request already processed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrInProgress):
		return goerror.NewBusiness("Request in progress", goerror.CodeConflict)
	case err != nil:
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return err
		}
		slog.ErrorContext(ctx, "failed to run idempotent register", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) register(ctx context.Context, in RegisterInput, actor string) error {
	raw, err := base32NoPad.DecodeString(in.EncodedSecret)
	if err != nil || len(raw) != s.intConfig("totp.secret_size", entity.RawSecretSize) {
		slog.WarnContext(ctx, "invalid totp secret submitted", "user_id", in.UserID, "decoded_len", len(raw))
		return goerror.NewBusiness("Invalid secret", goerror.CodeInvalidFormat)
	}

	// rawSecret feeds the engine; persisted is what goes to the store
	rawSecret := in.EncodedSecret

	_, err = s.repoDB.GetCredential(ctx, in.UserID, entity.TypeOTP, in.DeviceName)
	switch {
	case err == nil && !in.Overwrite:
		return goerror.NewBusiness("Device already registered", goerror.CodeConflict)
	case err != nil && !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get credential", "user_id", in.UserID, "device_name", in.DeviceName, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(in.InitialCode, rawSecret, s.clock.Now()) {
		slog.WarnContext(ctx, "initial totp code mismatch", "user_id", in.UserID, "device_name", in.DeviceName)
		return goerror.NewBusiness("Invalid initial code", goerror.CodeInvalidFormat)
	}

	salt := make([]byte, s.intConfig("totp.salt_size", entity.SaltSize))
	if _, err := io.ReadFull(s.rand, salt); err != nil {
		slog.ErrorContext(ctx, "failed to generate salt", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	persisted, err := saltedsecret.Encode(rawSecret, salt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode salted secret", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	cred := entity.Credential{
		ID:         s.uid.Generate(),
		UserID:     in.UserID,
		Type:       entity.TypeOTP,
		DeviceName: in.DeviceName,
		Secret:     persisted,
		CreatedAt:  s.clock.Now(),
	}

	err = s.repoDB.CreateCredential(ctx, cred, in.Overwrite)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "credential created concurrently", "user_id", in.UserID, "device_name", in.DeviceName)
		return goerror.NewBusiness("Device already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create credential", "user_id", in.UserID, "device_name", in.DeviceName, "error", err)
		return goerror.NewServer(err)
	}

	s.publish(ctx, CredentialEvent{
		Action:     event.CredentialRegistered,
		UserID:     in.UserID,
		DeviceName: in.DeviceName,
		Actor:      actor,
	})

	return nil
}

// normalizeSecret accepts lower case, spaced or padded input from authenticator apps.
func normalizeSecret(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	return strings.TrimRight(s, "=")
}
