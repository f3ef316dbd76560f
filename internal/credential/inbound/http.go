package inbound

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/credential/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
)

type uc interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateOutput, error)
	Register(ctx context.Context, in usecase.RegisterInput) error
	Verify(ctx context.Context, in usecase.VerifyInput) error

	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Remove(ctx context.Context, in usecase.RemoveInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Enrollment and verification (service principal with totp:manage)
	r.GET("/api/v1/totp/:userId/generate", end.Generate)
	r.POST("/api/v1/totp/:userId/register", end.Register)
	r.POST("/api/v1/totp/:userId/verify", end.Verify)

	// Device management
	r.GET("/api/v1/totp/:userId/credentials", end.List)
	r.DELETE("/api/v1/totp/:userId/credentials/:deviceName", end.Remove)
}
