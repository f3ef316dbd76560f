package inbound

import (
	"github.com/shandysiswandi/gotp/internal/credential/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
)

// HTTPEndpoint exposes the TOTP enrollment and verification handlers.
type HTTPEndpoint struct {
	uc uc
}

// Generate returns a fresh secret and its provisioning QR code.
// @Summary Generate TOTP secret
// @Description Creates a new secret for the user. Nothing is stored until the secret is registered.
// @Tags TOTP
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} router.successResponse{data=GenerateResponse} "Provisioning material"
// @Failure 400 {object} router.errorResponse "Invalid path parameter or service account target"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/totp/{userId}/generate [get]
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userId")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Generate(r.Context(), usecase.GenerateInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		EncodedSecret: resp.EncodedSecret,
		QRCode:        resp.QRCode,
		URI:           resp.URI,
	}, nil
}

// Register stores a credential for a device after checking the initial code.
// @Summary Register TOTP credential
// @Description Proves possession of the secret with an initial code and stores it salted. Send Idempotency-Key to make retries safe.
// @Tags TOTP
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param Idempotency-Key header string false "Client supplied retry key"
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} router.successResponse "Credential registered"
// @Failure 400 {object} router.errorResponse "Invalid secret, invalid initial code or validation error"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 409 {object} router.errorResponse "Device already registered"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/totp/{userId}/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userId")
	if err != nil {
		return nil, err
	}

	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(r.Context(), usecase.RegisterInput{
		UserID:         userID,
		EncodedSecret:  req.EncodedSecret,
		DeviceName:     req.DeviceName,
		InitialCode:    req.InitialCode,
		Overwrite:      req.Overwrite,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}); err != nil {
		return nil, err
	}

	return RegisterResponse{}, nil
}

// Verify checks a code against a registered device.
// @Summary Verify TOTP code
// @Tags TOTP
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param request body VerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse "Code is valid"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 401 {object} router.errorResponse "Credential not found or invalid code"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/totp/{userId}/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userId")
	if err != nil {
		return nil, err
	}

	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		UserID:     userID,
		DeviceName: req.DeviceName,
		Code:       req.Code,
	}); err != nil {
		return nil, err
	}

	return VerifyResponse{}, nil
}

// @Summary List TOTP credentials
// @Description Lists registered devices. Secrets are never returned.
// @Tags TOTP
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} router.successResponse{data=ListResponse} "Registered devices"
// @Failure 400 {object} router.errorResponse "Invalid path parameter"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/totp/{userId}/credentials [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userId")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.List(r.Context(), usecase.ListInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	out := ListResponse{Credentials: make([]CredentialResponse, 0, len(resp.Credentials))}
	for _, c := range resp.Credentials {
		out.Credentials = append(out.Credentials, CredentialResponse{
			DeviceName: c.DeviceName,
			Type:       c.Type,
			Format:     string(c.Format),
			CreatedAt:  c.CreatedAt,
		})
	}

	return out, nil
}

// @Summary Remove TOTP credential
// @Tags TOTP
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param deviceName path string true "Device name"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid path parameter"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Credential not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/totp/{userId}/credentials/{deviceName} [delete]
func (h *HTTPEndpoint) Remove(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("userId")
	if err != nil {
		return nil, err
	}

	if err := h.uc.Remove(r.Context(), usecase.RemoveInput{
		UserID:     userID,
		DeviceName: r.GetParam("deviceName"),
	}); err != nil {
		return nil, err
	}

	return nil, nil
}
