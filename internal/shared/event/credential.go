package event

import "time"

// CredentialDestination is the topic every credential lifecycle event goes to.
const CredentialDestination string = "credential_events"

// CredentialConsumerAudit is the consumer group of the audit trail.
const CredentialConsumerAudit string = "credential_events_audit"

// HeaderCorrelationID carries the request correlation id across the bus.
const HeaderCorrelationID string = "cID"

type CredentialAction string

const (
	CredentialRegistered   CredentialAction = "credential.registered"
	CredentialRemoved      CredentialAction = "credential.removed"
	CredentialVerified     CredentialAction = "credential.verified"
	CredentialVerifyFailed CredentialAction = "credential.verify_failed"
)

func (a CredentialAction) Valid() bool {
	switch a {
	case CredentialRegistered, CredentialRemoved, CredentialVerified, CredentialVerifyFailed:
		return true
	}
	return false
}

// CredentialMessage never carries secret material or submitted codes.
type CredentialMessage struct {
	Action     CredentialAction `json:"action"`
	UserID     int64            `json:"user_id"`
	DeviceName string           `json:"device_name"`
	Actor      string           `json:"actor"`
	Reason     string           `json:"reason,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
