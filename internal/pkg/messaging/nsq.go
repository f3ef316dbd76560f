package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var ErrNSQAddressRequired = errors.New("messaging: nsq address is required")

// NSQConfig configures the producer address and the consumer discovery addresses.
type NSQConfig struct {
	ProducerAddr string
	NSQDAddrs    []string
	LookupdAddrs []string
}

type NSQ struct {
	producer *nsq.Producer
	cfg      NSQConfig
}

// nsqEnvelope carries headers, which NSQ lacks natively.
type nsqEnvelope struct {
	Key     []byte            `json:"k,omitempty"`
	Headers map[string]string `json:"h,omitempty"`
	Body    []byte            `json:"b"`
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQAddressRequired
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p, cfg: cfg}, nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg Outgoing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	body, err := json.Marshal(nsqEnvelope{Key: msg.Key, Headers: msg.Headers, Body: msg.Body})
	if err != nil {
		return err
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return nil
}

// Consume requires a group, used as the NSQ channel.
func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	co := newConsumeOptions(opts)
	if err := validateConsume(topic, handler, co, true); err != nil {
		return err
	}
	if len(n.cfg.NSQDAddrs) == 0 && len(n.cfg.LookupdAddrs) == 0 {
		return ErrNSQAddressRequired
	}

	ccfg := nsq.NewConfig()
	ccfg.MaxInFlight = co.concurrency

	consumer, err := nsq.NewConsumer(topic, co.group, ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		var env nsqEnvelope
		if err := json.Unmarshal(m.Body, &env); err != nil {
			// poison message, finish it
			return nil
		}

		return safeHandle(ctx, DriverNSQ, handler, Message{
			Topic:      topic,
			Key:        env.Key,
			Body:       env.Body,
			Headers:    env.Headers,
			ReceivedAt: time.Unix(0, m.Timestamp),
		})
	}), co.concurrency)

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-consumer.StopChan:
	}
	consumer.Stop()
	<-consumer.StopChan

	return ctx.Err()
}

func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}
