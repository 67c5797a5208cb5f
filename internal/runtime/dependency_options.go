package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/architeacher/svc-mq-factory/internal/adapters"
	"github.com/architeacher/svc-mq-factory/internal/adapters/queue"
	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/internal/service"
	"github.com/architeacher/svc-mq-factory/internal/shared/backoff"
	mq "github.com/architeacher/svc-mq-factory/pkg/queue"
)

var ErrNoConsumers = errors.New("no consumer identifiers configured, set MESSAGE_QUEUES_CONSUME")

type (
	DependencyOption func(*Dependencies) error
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfigLoader(),
		WithMetrics(ctx),
		WithTracing(ctx),
		WithQueueFactory(ctx),
	}
}

func WithConfigLoader() DependencyOption {
	return func(d *Dependencies) error {
		d.configLoader = config.NewLoader(d.cfg, os.Stdout)

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		metrics, err := infrastructure.NewMetrics(ctx, *d.cfg, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		d.Infra.Metrics = metrics

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Telemetry.Traces.Enabled {
			d.tracerShutdownFunc = func(_ context.Context) error {
				return nil
			}

			return nil
		}

		tracerShutdownFunc, err := infrastructure.InitGlobalTracer(ctx, d.cfg.Telemetry, d.cfg.AppConfig)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize global tracer")

			return err
		}

		d.tracerShutdownFunc = tracerShutdownFunc

		return nil
	}
}

// WithQueueFactory builds the queue factory and, when configured to, instantiates every
// queue eagerly. Any instantiation failure aborts startup, except an unreachable broker
// when MESSAGE_QUEUES_TOLERATE_BROKER_DOWN is set; queues are then built on first use.
func WithQueueFactory(ctx context.Context, extra ...mq.Option) DependencyOption {
	return func(d *Dependencies) error {
		factory, err := infrastructure.NewQueueFactory(d.cfg.MessageQueues, d.logger, d.Infra.Metrics, extra...)
		if err != nil {
			return err
		}

		d.Infra.QueueFactory = factory
		d.Infra.Queues = adapters.NewFactoryQueueProvider(factory)

		if !d.cfg.MessageQueues.InstantiateOnStartup {
			return nil
		}

		err = d.Infra.Queues.InstantiateQueues(ctx)
		if err == nil {
			return nil
		}

		if d.cfg.MessageQueues.TolerateBrokerDown && errors.Is(err, mq.ErrConnection) {
			d.logger.Warn().Err(err).Msg("broker unreachable at startup, queues will be built on first use")

			return nil
		}

		if closeErr := d.Infra.Queues.Close(); closeErr != nil {
			d.logger.Warn().Err(closeErr).Msg("failed to release partially instantiated queues")
		}

		return fmt.Errorf("failed to instantiate queues: %w", err)
	}
}

func WithServices() DependencyOption {
	return func(d *Dependencies) error {
		d.Services = Services{
			Messages:      service.NewMessageService(d.Infra.Queues, d.logger, d.Infra.Metrics),
			HealthChecker: adapters.NewHealthChecker(d.Infra.Queues),
		}

		return nil
	}
}

func WithHTTPServer() DependencyOption {
	return func(d *Dependencies) error {
		if d.Services.Messages == nil {
			if err := WithServices()(d); err != nil {
				return err
			}
		}

		requestHandler := adapters.NewRequestHandler(
			d.Services.Messages,
			d.Services.HealthChecker,
			d.cfg,
			d.logger,
		)

		httpServer, err := initHTTPServer(d.cfg, d.logger, d.Infra.Metrics, requestHandler)
		if err != nil {
			return err
		}

		d.Infra.HTTPServer = httpServer

		return nil
	}
}

func WithConsumers() DependencyOption {
	return func(d *Dependencies) error {
		identifiers := d.cfg.MessageQueues.ConsumeIdentifiers
		if len(identifiers) == 0 {
			return ErrNoConsumers
		}

		for _, identifier := range identifiers {
			if _, ok := d.Infra.QueueFactory.Configuration(identifier); !ok {
				return fmt.Errorf("consumer identifier %q: %w", identifier, mq.ErrConfigurationNotFound)
			}
		}

		d.Workers.Consumers = queue.NewConsumerSupervisor(
			d.Infra.Queues,
			identifiers,
			func(identifier string) ports.MessageHandler {
				return queue.NewMessageWorker(identifier, d.logger, d.Infra.Metrics)
			},
			queue.RetryPolicy{
				Strategy:   backoff.NewExponentialStrategy(d.cfg.MessageQueues.ConsumerBackoff),
				MaxRetries: d.cfg.MessageQueues.ConsumerBackoff.MaxRetries,
			},
			d.logger,
		)

		return nil
	}
}
