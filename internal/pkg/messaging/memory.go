package messaging

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Memory is an in-process broker. Each group receives every message published
// to the topic after it subscribed; members of one group share the stream.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[string]chan Message
	closed bool
}

func NewMemory() *Memory {
	return &Memory{subs: map[string]map[string]chan Message{}}
}

func (m *Memory) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	in := Message{
		Topic:      topic,
		Key:        msg.Key,
		Body:       msg.Body,
		Headers:    maps.Clone(msg.Headers),
		ReceivedAt: time.Now(),
	}

	for _, ch := range m.subs[topic] {
		select {
		case ch <- in:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts)
	if err := validateConsume(topic, handler, co, false); err != nil {
		return err
	}

	ch, err := m.subscribe(topic, co)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-ch:
					if !ok {
						return
					}
					// no redelivery in memory; errors are only logged by the handler
					_ = safeHandle(ctx, DriverMemory, handler, msg)
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) subscribe(topic string, co consumeOptions) (chan Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	groups, ok := m.subs[topic]
	if !ok {
		groups = map[string]chan Message{}
		m.subs[topic] = groups
	}

	ch, ok := groups[co.group]
	if !ok {
		ch = make(chan Message, 64)
		groups[co.group] = ch
	}

	return ch, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for _, groups := range m.subs {
		for _, ch := range groups {
			close(ch)
		}
	}

	return nil
}
