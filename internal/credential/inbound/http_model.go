package inbound

import (
	"net/http"
	"time"
)

type GenerateResponse struct {
	EncodedSecret string `json:"encoded_secret" example:"JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"`
	QRCode        string `json:"qr_code" example:"data:image/png;base64,iVBORw0KGgo..."`
	URI           string `json:"uri" example:"otpauth://totp/gotp:alice?issuer=gotp&secret=..."`
}

type RegisterRequest struct {
	EncodedSecret string `json:"encoded_secret"`
	DeviceName    string `json:"device_name"`
	InitialCode   string `json:"initial_code"`
	Overwrite     bool   `json:"overwrite"`
}

type RegisterResponse struct{}

func (RegisterResponse) StatusCode() int { return http.StatusCreated }

func (RegisterResponse) Message() string { return "credential registered" }

type VerifyRequest struct {
	DeviceName string `json:"device_name"`
	Code       string `json:"code"`
}

type VerifyResponse struct{}

func (VerifyResponse) Message() string { return "code is valid" }

type CredentialResponse struct {
	DeviceName string    `json:"device_name"`
	Type       string    `json:"type"`
	Format     string    `json:"format" example:"salted"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

func (r ListResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Credentials)}
}
