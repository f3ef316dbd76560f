package config

import (
	"io"
	"time"
)

// Config exposes typed lookups over the service configuration.
//
// Missing keys resolve to the zero value of the requested type.
type Config interface {
	io.Closer

	// GetSecond reads an integer value and scales it to seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value and scales it to minutes.
	GetMinute(key string) time.Duration

	GetInt(key string) int
	GetInt32(key string) int32
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary reads a base64 encoded value. Invalid input yields nil.
	GetBinary(key string) []byte

	// IsSet reports whether key is present in the file or the environment.
	IsSet(key string) bool

	// GetArray reads a comma separated value as trimmed, non-empty elements.
	GetArray(key string) []string
}
