package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"
)

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrGroupRequired   = errors.New("messaging: consumer group is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrClosed          = errors.New("messaging: client is closed")
)

// Messaging is a broker-agnostic client.
type Messaging interface {
	io.Closer
	Publish(ctx context.Context, topic string, msg Outgoing) error
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Outgoing is a message to publish. Key is used for partitioning where the broker supports it.
type Outgoing struct {
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	Topic      string
	Key        []byte
	Body       []byte
	Headers    map[string]string
	ReceivedAt time.Time
}

// Header returns a header value or "".
func (m Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

type Handler func(ctx context.Context, msg Message) error

type consumeOptions struct {
	group       string
	concurrency int
}

// ConsumeOption tunes a consumer.
type ConsumeOption func(*consumeOptions)

// WithGroup names the consumer group. It maps to a Kafka group id, an NSQ
// channel, a NATS queue group or a Pub/Sub subscription.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

func newConsumeOptions(opts []ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

func validateConsume(topic string, handler Handler, co consumeOptions, needGroup bool) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if needGroup && co.group == "" {
		return ErrGroupRequired
	}
	return nil
}

// safeHandle runs the handler and turns a panic into an error so one bad
// message cannot kill the consumer loop.
func safeHandle(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in messaging handler",
				"driver", driver, "topic", msg.Topic, "panic", rvr, "stack", string(debug.Stack()))
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return handler(ctx, msg)
}
