package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/jwt"
)

const tokenTypeBearer = "Bearer"

type IssueTokenInput struct {
	ClientID     string `json:"client_id" validate:"required,max=128"`
	ClientSecret string `json:"client_secret" validate:"required,max=256"`
}

type IssueTokenOutput struct {
	AccessToken string
	TokenType   string
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64
}

// IssueToken exchanges client credentials for a service principal access token.
// Unknown, inactive and wrong-secret clients are indistinguishable to the caller.
func (s *Usecase) IssueToken(ctx context.Context, in IssueTokenInput) (*IssueTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueToken")
	defer span.End()

	in.ClientID = strings.TrimSpace(in.ClientID)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	errInvalid := goerror.NewBusiness("Invalid client credentials", goerror.CodeUnauthorized)

	client, err := s.repoDB.GetClientByClientID(ctx, in.ClientID)
	if errors.Is(err, goerror.ErrNotFound) {
		s.hash.Verify(s.dummyHash, in.ClientSecret)
		slog.WarnContext(ctx, "service client not found", "client_id", in.ClientID)
		return nil, errInvalid
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get service client", "client_id", in.ClientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.hash.Verify(client.SecretHash, in.ClientSecret) {
		slog.WarnContext(ctx, "service client secret mismatch", "client_id", in.ClientID)
		return nil, errInvalid
	}

	if !client.IsActive {
		slog.WarnContext(ctx, "inactive service client attempted token exchange", "client_id", in.ClientID)
		return nil, errInvalid
	}

	token, exp, err := s.jwt.Generate(jwt.PrincipalService, client.ClientID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate service token", "client_id", in.ClientID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "service token issued", "client_id", client.ClientID, "expires_at", exp)

	return &IssueTokenOutput{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   max(int64(exp.Sub(s.clock.Now()).Seconds()), 0),
	}, nil
}
