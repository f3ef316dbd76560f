package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/serviceauth/entity"
)

type EnsureClientInput struct {
	ClientID string `validate:"required,max=128"`
	Name     string `validate:"max=128"`
	Secret   string `validate:"required,min=16"`
	// Role, when set, is granted to the client in the authorization policy.
	Role string
}

// EnsureClient creates the client when it does not exist yet. An existing
// client keeps its secret; the role grant is applied either way.
func (s *Usecase) EnsureClient(ctx context.Context, in EnsureClientInput) error {
	ctx, span := s.startSpan(ctx, "EnsureClient")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.GetClientByClientID(ctx, in.ClientID)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		if err := s.createClient(ctx, in); err != nil {
			return err
		}
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo get service client", "client_id", in.ClientID, "error", err)
		return goerror.NewServer(err)
	}

	if in.Role == "" || s.roles == nil {
		return nil
	}

	added, err := s.roles.AddRoleForUser(in.ClientID, in.Role)
	if err != nil {
		slog.ErrorContext(ctx, "failed to grant role to service client", "client_id", in.ClientID, "role", in.Role, "error", err)
		return goerror.NewServer(err)
	}
	if added {
		slog.InfoContext(ctx, "role granted to service client", "client_id", in.ClientID, "role", in.Role)
	}

	return nil
}

func (s *Usecase) createClient(ctx context.Context, in EnsureClientInput) error {
	secretHash, err := s.hash.Hash(in.Secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash service client secret", "client_id", in.ClientID, "error", err)
		return goerror.NewServer(err)
	}

	name := in.Name
	if name == "" {
		name = in.ClientID
	}

	err = s.repoDB.CreateClient(ctx, entity.Client{
		ID:         s.uid.Generate(),
		ClientID:   in.ClientID,
		Name:       name,
		SecretHash: string(secretHash),
		IsActive:   true,
		CreatedAt:  s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrConflict) {
		// created by another replica in the meantime
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create service client", "client_id", in.ClientID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "service client created", "client_id", in.ClientID)
	return nil
}
