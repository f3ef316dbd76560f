package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casbin/casbin/v3/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const DefaultChannel = "totp_casbin_watcher"

var _ persist.Watcher = (*Watcher)(nil)

// Watcher broadcasts "policy changed" over a Postgres channel and invokes the
// update callback when another replica announces a change.
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
	localID string

	mu       sync.RWMutex
	callback func(string)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher starts listening in the background and reconnects with a capped
// fibonacci backoff.
func NewWatcher(ctx context.Context, pool *pgxpool.Pool, channel string) (*Watcher, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pgxcasbin: ping: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}

	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &Watcher{
		pool:    pool,
		channel: channel,
		localID: uuid.NewString(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(w.done)

		b := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
		err := retry.Do(lctx, b, func(ctx context.Context) error {
			err := w.listen(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			slog.WarnContext(ctx, "pgxcasbin listener failed, retrying", "channel", w.channel, "error", err)
			return retry.RetryableError(err)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("pgxcasbin listener stopped", "error", err)
		}
	}()

	return w, nil
}

func (w *Watcher) SetUpdateCallback(fn func(string)) error {
	w.mu.Lock()
	w.callback = fn
	w.mu.Unlock()
	return nil
}

// Update notifies the other replicas; the payload is this watcher's id so it can skip its own message.
func (w *Watcher) Update() error {
	_, err := w.pool.Exec(context.Background(), "SELECT pg_notify($1, $2)", w.channel, w.localID)
	return err
}

func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+w.channel); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload == w.localID {
			continue
		}

		w.mu.RLock()
		cb := w.callback
		w.mu.RUnlock()

		if cb != nil {
			cb(n.Payload)
		}
	}
}

// ReloadCallback reloads the whole policy on every notification.
func ReloadCallback(e interface{ LoadPolicy() error }) func(string) {
	return func(string) {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("pgxcasbin failed to reload policy", "error", err)
		}
	}
}
