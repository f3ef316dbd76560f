package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

type NATSConfig struct {
	URL     string
	Options []nats.Option
}

type NATS struct {
	conn *nats.Conn
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for k, v := range msg.Headers {
		nm.Header.Set(k, v)
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}

	return n.conn.Flush()
}

// Consume uses a queue subscription so group members share the subject.
func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts)
	if err := validateConsume(topic, handler, co, false); err != nil {
		return err
	}

	msgCh := make(chan *nats.Msg, co.concurrency)
	sub, err := n.conn.ChanQueueSubscribe(topic, co.group, msgCh)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case nm := <-msgCh:
					herr := safeHandle(ctx, DriverNATS, handler, fromNATS(nm))
					respondNATS(nm, herr)
				}
			}
		})
	}

	<-ctx.Done()
	uerr := sub.Drain()
	wg.Wait()

	return errors.Join(ctx.Err(), uerr)
}

func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

func fromNATS(nm *nats.Msg) Message {
	headers := make(map[string]string, len(nm.Header))
	for k := range nm.Header {
		headers[k] = nm.Header.Get(k)
	}

	return Message{
		Topic:      nm.Subject,
		Body:       nm.Data,
		Headers:    headers,
		ReceivedAt: time.Now(),
	}
}

// respondNATS acks or naks JetStream deliveries; core NATS messages have no reply and are skipped.
func respondNATS(nm *nats.Msg, herr error) {
	if nm.Reply == "" {
		return
	}
	if herr == nil {
		_ = nm.Ack()
		return
	}
	_ = nm.Nak()
}
