package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gotp/internal/pkg/config"
	"github.com/shandysiswandi/gotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gotp/internal/pkg/instrument"
	"github.com/shandysiswandi/gotp/internal/pkg/messaging"
	"github.com/shandysiswandi/gotp/internal/pkg/uid"
	"github.com/shandysiswandi/gotp/internal/shared/event"
)

// RegisterMQConsumer starts the credential event consumer on routine. It stops
// when ctx is cancelled.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	concurrency := cfg.GetInt("modules.audit.consumer_concurrency")
	if concurrency <= 0 {
		concurrency = 4
	}

	var consumers = []struct {
		topic   string
		group   string
		handler messaging.Handler
	}{
		{
			topic:   event.CredentialDestination,
			group:   event.CredentialConsumerAudit,
			handler: h.CredentialEvent,
		},
	}

	for _, consumer := range consumers {
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "running consumer", "topic", consumer.topic, "group", consumer.group)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithConcurrency(concurrency),
			)
		})
	}
}
