package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewSMTP(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{Host: "localhost"}); !errors.Is(err, ErrSMTPAddressRequired) {
		t.Fatalf("expected ErrSMTPAddressRequired, got %v", err)
	}

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@gotp.local"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}
	if s.addr != "localhost:1025" || s.auth != nil {
		t.Fatalf("unexpected smtp client %+v", s)
	}
}

func TestSMTPSend(t *testing.T) {
	var gotFrom string
	var gotTo []string
	var gotRaw string

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@gotp.local"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}
	s.send = func(_ string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotFrom, gotTo, gotRaw = from, to, string(msg)
		return nil
	}

	err = s.Send(context.Background(), Message{
		To:       []string{"security@example.com"},
		Subject:  "New device\r\nBcc: evil@example.com",
		TextBody: "device registered",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotFrom != "noreply@gotp.local" || len(gotTo) != 1 {
		t.Fatalf("unexpected envelope from=%q to=%v", gotFrom, gotTo)
	}
	if strings.Contains(gotRaw, "\r\nBcc:") {
		t.Fatalf("subject header injection not stripped:\n%s", gotRaw)
	}
	if !strings.Contains(gotRaw, "Content-Type: text/plain; charset=UTF-8\r\n\r\ndevice registered") {
		t.Fatalf("missing text body:\n%s", gotRaw)
	}

	if err := s.Send(context.Background(), Message{Subject: "x"}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, Message{To: []string{"a@b.c"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
