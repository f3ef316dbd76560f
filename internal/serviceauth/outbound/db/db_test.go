package db

import (
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/pkg/goerror"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/testkit"
	"github.com/shandysiswandi/gotp/internal/serviceauth/entity"
)

func TestDB_Clients(t *testing.T) {
	d := NewDB(testkit.Postgres(t), instrument.NewNoop())
	ctx := t.Context()

	c := entity.Client{
		ID: 1, ClientID: "svc-billing", Name: "Billing", SecretHash: "$argon2id$x",
		IsActive: true, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	if _, err := d.GetClientByClientID(ctx, c.ClientID); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("get before create err = %v", err)
	}
	if err := d.CreateClient(ctx, c); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	c.ID = 2
	if err := d.CreateClient(ctx, c); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("duplicate create err = %v", err)
	}

	got, err := d.GetClientByClientID(ctx, "svc-billing")
	if err != nil {
		t.Fatalf("GetClientByClientID: %v", err)
	}
	if got.ID != 1 || got.Name != "Billing" || !got.IsActive || got.SecretHash != "$argon2id$x" {
		t.Fatalf("client = %+v", got)
	}
}
