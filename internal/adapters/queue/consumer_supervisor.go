package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/internal/shared/backoff"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

var _ ports.BackgroundProcessor = (*ConsumerSupervisor)(nil)

// HandlerFactory builds the handler for one consumed identifier.
type HandlerFactory func(identifier string) ports.MessageHandler

// RetryPolicy paces registration retries on connection and broker failures.
// A nil Strategy disables retries.
type RetryPolicy struct {
	Strategy   backoff.Strategy
	MaxRetries int
}

// ConsumerSupervisor registers a manual ack consumer on each identifier and
// detaches them when its context ends.
type ConsumerSupervisor struct {
	queues      ports.QueueProvider
	identifiers []string
	newHandler  HandlerFactory
	retry       RetryPolicy
	logger      infrastructure.Logger
}

func NewConsumerSupervisor(
	queues ports.QueueProvider,
	identifiers []string,
	newHandler HandlerFactory,
	retry RetryPolicy,
	logger infrastructure.Logger,
) *ConsumerSupervisor {
	return &ConsumerSupervisor{
		queues:      queues,
		identifiers: identifiers,
		newHandler:  newHandler,
		retry:       retry,
		logger:      logger.Component("consumer-supervisor"),
	}
}

// Start registers every consumer, then blocks until ctx is done. A failed
// registration unregisters the consumers already attached.
func (s *ConsumerSupervisor) Start(ctx context.Context) error {
	registered := make([]ports.MessageQueue, 0, len(s.identifiers))

	for _, identifier := range s.identifiers {
		q, err := s.registerWithRetry(ctx, identifier)
		if err != nil {
			return errors.Join(err, s.unregister(registered))
		}

		registered = append(registered, q)

		s.logger.Info().Str("identifier", identifier).Msg("consumer registered")
	}

	<-ctx.Done()

	return s.unregister(registered)
}

func (s *ConsumerSupervisor) registerWithRetry(ctx context.Context, identifier string) (ports.MessageQueue, error) {
	for attempt := 0; ; attempt++ {
		q, err := s.register(ctx, identifier)
		if err == nil || !s.retryable(err, attempt) {
			return q, err
		}

		delay := s.retry.Strategy.Backoff(attempt)

		s.logger.Warn().
			Err(err).
			Str("identifier", identifier).
			Int("attempt", attempt+1).
			Dur("retry_in", delay).
			Msg("consumer registration failed, retrying")

		timer := time.NewTimer(delay)

		select {
		case <-ctx.Done():
			timer.Stop()

			return nil, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *ConsumerSupervisor) retryable(err error, attempt int) bool {
	if s.retry.Strategy == nil || attempt >= s.retry.MaxRetries {
		return false
	}

	return errors.Is(err, queue.ErrConnection) || errors.Is(err, queue.ErrBroker)
}

func (s *ConsumerSupervisor) register(ctx context.Context, identifier string) (ports.MessageQueue, error) {
	q, err := s.queues.Queue(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolving consumer queue %q: %w", identifier, err)
	}

	handler := s.newHandler(identifier)

	if err := q.RegisterConsumer(handler.ProcessMessage, false); err != nil {
		return nil, fmt.Errorf("registering consumer on %q: %w", identifier, err)
	}

	return q, nil
}

func (s *ConsumerSupervisor) unregister(queues []ports.MessageQueue) error {
	var errs []error

	for _, q := range queues {
		if err := q.UnregisterConsumer(); err != nil {
			errs = append(errs, fmt.Errorf("unregistering consumer on %q: %w", q.Identifier(), err))

			continue
		}

		s.logger.Info().Str("identifier", q.Identifier()).Msg("consumer unregistered")
	}

	return errors.Join(errs...)
}
