package inbound

import (
	"context"

	"github.com/shandysiswandi/gotp/internal/audit/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/router"
)

type uc interface {
	RecordEvent(ctx context.Context, in usecase.RecordEventInput) error
	ListEvents(ctx context.Context, in usecase.ListEventsInput) (*usecase.ListEventsOutput, error)
	ExportEvents(ctx context.Context, in usecase.ExportEventsInput) (*usecase.ExportEventsOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/audit/events", end.List)
	r.POST("/api/v1/audit/events/export", end.Export)
}
