package inbound

import (
	"time"

	"github.com/shandysiswandi/gotp/internal/pkg/valueobject"
)

type EventResponse struct {
	ID         int64               `json:"id,string"`
	UserID     int64               `json:"user_id"`
	DeviceName string              `json:"device_name"`
	Action     string              `json:"action"`
	Actor      string              `json:"actor"`
	Reason     string              `json:"reason,omitempty"`
	Metadata   valueobject.JSONMap `json:"metadata"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type ListEventsResponse struct {
	Events []EventResponse `json:"events"`
	total  int64
	page   int32
	size   int32
}

func (r ListEventsResponse) Meta() map[string]any {
	return map[string]any{"total": r.total, "page": r.page, "size": r.size}
}

type ExportRequest struct {
	UserID int64     `json:"user_id"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

type ExportResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	Truncated bool      `json:"truncated"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (ExportResponse) Message() string { return "export created" }
