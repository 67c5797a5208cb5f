package infrastructure

import (
	"context"
	"fmt"

	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
	"go.opentelemetry.io/otel"
)

// NewQueueFactory builds the factory for the configured queue definitions.
// Extra options are applied last, so tests can swap the dialer.
func NewQueueFactory(cfg config.MessageQueuesConfig, logger Logger, metrics Metrics, extra ...queue.Option) (*queue.Factory, error) {
	factoryLogger := logger.Component("queue-factory")

	opts := []queue.Option{
		queue.WithLogger(factoryLogger.Logger),
		queue.WithConnectionTimeout(cfg.ConnectTimeout),
		queue.WithHeartbeat(cfg.Heartbeat),
		queue.WithTracerProvider(otel.GetTracerProvider()),
		queue.WithErrorHandler(func(err error) {
			factoryLogger.Warn().Err(err).Msg("consumer handler failed")
		}),
		queue.WithInstantiateHook(func(identifier string, err error) {
			metrics.RecordQueueInstantiation(context.Background(), identifier, err == nil)
		}),
	}

	factory, err := queue.NewFactory(cfg.Definitions, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue factory: %w", err)
	}

	factoryLogger.Info().
		Strs("identifiers", factory.Identifiers()).
		Msg("queue factory created")

	return factory, nil
}
