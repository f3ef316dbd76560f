package inbound

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/pkg/router"
	"github.com/shandysiswandi/gotp/internal/serviceauth/usecase"
)

type uc interface {
	IssueToken(ctx context.Context, in usecase.IssueTokenInput) (*usecase.IssueTokenOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/token", end.IssueToken, router.Public())
}

// HTTPEndpoint exposes the client credentials exchange.
type HTTPEndpoint struct {
	uc uc
}

type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int64  `json:"expires_in" example:"900"`
}

// IssueToken exchanges client credentials for an access token.
// @Summary Issue service token
// @Description Exchanges a service client id and secret for a short lived bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Client credentials"
// @Success 200 {object} router.successResponse{data=TokenResponse} "Access token"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid client credentials"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/token [post]
func (h *HTTPEndpoint) IssueToken(r *router.Request) (any, error) {
	var req TokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.IssueToken(r.Context(), usecase.IssueTokenInput{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	})
	if err != nil {
		return nil, err
	}

	return TokenResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, nil
}
