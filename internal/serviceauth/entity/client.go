package entity

import "time"

// Client is a machine caller allowed to exchange its credentials for a token.
type Client struct {
	ID         int64
	ClientID   string
	Name       string
	SecretHash string
	IsActive   bool
	CreatedAt  time.Time
}
