// Package mail sends plain notification emails such as credential alerts.
package mail

import (
	"context"
	"io"
)

// Message is a single plain-text or HTML email.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages through some provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Noop discards every message. It is used when no SMTP host is configured.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }

func (Noop) Close() error { return nil }
