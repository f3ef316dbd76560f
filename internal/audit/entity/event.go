package entity

import (
	"time"

	"github.com/shandysiswandi/gotp/internal/pkg/valueobject"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

// Event is one recorded credential lifecycle event.
type Event struct {
	ID         int64
	UserID     int64
	DeviceName string
	Action     event.CredentialAction
	Actor      string
	Reason     string
	// Metadata carries delivery context such as the correlation id.
	Metadata   valueobject.JSONMap
	OccurredAt time.Time
}

// EventFilter selects events for listing and export. Zero values do not filter.
type EventFilter struct {
	UserID int64
	From   time.Time
	To     time.Time
	Limit  int32
	Offset int32
}

// Recipient is where security alerts for a user are sent.
type Recipient struct {
	UserID   int64
	Username string
	Email    string
}
