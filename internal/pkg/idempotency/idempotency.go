// Package idempotency guards retried requests with a redis-backed state machine.
//
// A key moves none -> in_progress -> completed. A failed attempt releases the key
// so the client may retry with the same key once the cause is fixed.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInProgress   = errors.New("operation already in progress")
	ErrCompleted    = errors.New("operation already completed")
	ErrInvalidState = errors.New("invalid idempotency state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
	keyPrefix           = "gotp:idempotency:"
)

// Idempotency runs fn at most once per key within the state TTL.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Option tunes a single Exec call.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress marker survives a crashed worker.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.lockDuration = d
		}
	}
}

// WithStateTTL sets how long a completed marker rejects replays.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.stateTTL = d
		}
	}
}

// Redis implements Idempotency on top of SETNX.
type Redis struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Exec acquires key, runs fn and records the outcome.
// It returns ErrInProgress or ErrCompleted without calling fn when the key is taken.
func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}

	state, err := r.acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrInProgress
	case StateCompleted:
		return ErrCompleted
	}

	if err := fn(ctx); err != nil {
		if delErr := r.client.Del(ctx, keyPrefix+key).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	return r.client.Set(ctx, keyPrefix+key, string(StateCompleted), o.stateTTL).Err()
}

func (r *Redis) acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	fk := keyPrefix + key

	// Two rounds cover the key expiring between SETNX and GET.
	for range 2 {
		ok, err := r.client.SetNX(ctx, fk, string(StateInProgress), lock).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return StateNone, nil
		}

		current, err := r.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", err
		}

		switch State(current) {
		case StateInProgress, StateCompleted:
			return State(current), nil
		default:
			return "", ErrInvalidState
		}
	}

	return "", ErrInvalidState
}
