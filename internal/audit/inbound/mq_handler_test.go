package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/gotp/internal/audit/usecase"
	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

type fixedUUID string

func (f fixedUUID) Generate() string { return string(f) }

func TestMQHandler_CredentialEvent(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(event.CredentialMessage{
		Action:     event.CredentialVerifyFailed,
		UserID:     1,
		DeviceName: "phone",
		Actor:      "svc-billing",
		Reason:     "invalid code",
		OccurredAt: occurred,
	})

	t.Run("correlation id from header", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		err := h.CredentialEvent(context.Background(), messaging.Message{
			Body:    body,
			Headers: map[string]string{event.HeaderCorrelationID: "cid-9"},
		})
		if err != nil {
			t.Fatalf("CredentialEvent: %v", err)
		}

		got := uc.recorded[0]
		if got.Action != event.CredentialVerifyFailed || got.Reason != "invalid code" || !got.OccurredAt.Equal(occurred) {
			t.Fatalf("input = %+v", got)
		}
		if got.CorrelationID != "cid-9" {
			t.Fatalf("correlation id = %q", got.CorrelationID)
		}
	})

	t.Run("generated correlation id", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		if err := h.CredentialEvent(context.Background(), messaging.Message{Body: body}); err != nil {
			t.Fatalf("CredentialEvent: %v", err)
		}
		if got := uc.recorded[0].CorrelationID; got != "generated" {
			t.Fatalf("correlation id = %q", got)
		}
	})

	t.Run("bad body is acknowledged", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		if err := h.CredentialEvent(context.Background(), messaging.Message{Body: []byte("{")}); err != nil {
			t.Fatalf("CredentialEvent: %v", err)
		}
		if len(uc.recorded) != 0 {
			t.Fatalf("recorded %d events", len(uc.recorded))
		}
	})

	t.Run("usecase failure is returned", func(t *testing.T) {
		uc := &fakeUC{err: errors.New("db down")}
		h := &MQHandler{uc: uc, uuid: fixedUUID("generated"), ins: instrument.NewNoop()}

		if err := h.CredentialEvent(context.Background(), messaging.Message{Body: body}); !errors.Is(err, uc.err) {
			t.Fatalf("CredentialEvent err = %v", err)
		}
	})
}

func TestRegisterMQConsumer_Memory(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  audit:\n    consumer_concurrency: 1\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	recorded := make(chan struct{}, 1)
	uc := &notifyUC{fakeUC: &fakeUC{}, done: recorded}

	ctx, cancel := context.WithCancel(context.Background())
	gm := goroutine.NewManager(2)
	RegisterMQConsumer(ctx, cfg, gm, broker, uid.NewUUID(), uc, instrument.NewNoop())

	body, _ := json.Marshal(event.CredentialMessage{Action: event.CredentialRemoved, UserID: 5, DeviceName: "tablet"})

	// the consumer subscribes asynchronously; publish until it picks one up
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

wait:
	for {
		select {
		case <-recorded:
			break wait
		case <-deadline:
			t.Fatal("event was not consumed")
		case <-tick.C:
			if err := broker.Publish(ctx, event.CredentialDestination, messaging.Outgoing{Body: body}); err != nil {
				t.Fatalf("Publish: %v", err)
			}
		}
	}

	cancel()
	_ = gm.Wait()

	if got := uc.fakeUC.recorded[0]; got.UserID != 5 || got.Action != event.CredentialRemoved {
		t.Fatalf("recorded = %+v", got)
	}
}

type notifyUC struct {
	*fakeUC
	done chan struct{}
}

func (n *notifyUC) RecordEvent(ctx context.Context, in usecase.RecordEventInput) error {
	err := n.fakeUC.RecordEvent(ctx, in)
	select {
	case n.done <- struct{}{}:
	default:
	}
	return err
}
