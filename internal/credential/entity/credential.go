package entity

import "time"

// TypeOTP is the only credential type this service manages.
const TypeOTP = "otp"

// RawSecretSize is the byte length of a decoded TOTP secret.
const RawSecretSize = 20

// SaltSize is the byte length of the per-credential salt.
const SaltSize = 16

// Credential is a stored OTP credential. Secret holds the persisted form,
// either a salted envelope or a legacy raw base32 secret.
type Credential struct {
	ID         int64
	UserID     int64
	Type       string
	DeviceName string
	Secret     string
	CreatedAt  time.Time
}

type User struct {
	ID               int64
	Username         string
	Email            string
	IsServiceAccount bool
}

// SecretFormat describes how a credential secret is persisted.
type SecretFormat string

const (
	SecretFormatSalted SecretFormat = "salted"
	SecretFormatLegacy SecretFormat = "legacy"
)
