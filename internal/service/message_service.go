package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/domain"
	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/ports"
)

const (
	operationPublish = "publish"
	operationGet     = "get"
)

type (
	MessageService interface {
		Publish(ctx context.Context, identifier, message string) error
		Fetch(ctx context.Context, identifier string) (*domain.FetchedMessage, error)
		Queues() []domain.QueueInfo
	}

	messageService struct {
		queues  ports.QueueProvider
		logger  infrastructure.Logger
		metrics infrastructure.Metrics
	}
)

func NewMessageService(
	queues ports.QueueProvider,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
) MessageService {
	return &messageService{
		queues:  queues,
		logger:  logger.Component("message-service"),
		metrics: metrics,
	}
}

func (s *messageService) Publish(ctx context.Context, identifier, message string) error {
	startTime := time.Now()

	err := s.publish(ctx, identifier, message)

	s.metrics.RecordQueueOperation(ctx, identifier, operationPublish, outcomeOf(err, true), time.Since(startTime))

	if err != nil {
		s.logger.Warn().Err(err).Str("identifier", identifier).Msg("failed to publish message")

		return err
	}

	s.logger.Debug().
		Str("identifier", identifier).
		Int("size_bytes", len(message)).
		Msg("message published")

	return nil
}

func (s *messageService) publish(ctx context.Context, identifier, message string) error {
	q, err := s.queues.Queue(ctx, identifier)
	if err != nil {
		return fmt.Errorf("resolving queue: %w", err)
	}

	return q.Publish(ctx, message)
}

func (s *messageService) Fetch(ctx context.Context, identifier string) (*domain.FetchedMessage, error) {
	startTime := time.Now()

	result, err := s.fetch(ctx, identifier)

	found := err == nil && result.Found
	s.metrics.RecordQueueOperation(ctx, identifier, operationGet, outcomeOf(err, found), time.Since(startTime))

	if err != nil {
		s.logger.Warn().Err(err).Str("identifier", identifier).Msg("failed to fetch message")

		return nil, err
	}

	return result, nil
}

func (s *messageService) fetch(ctx context.Context, identifier string) (*domain.FetchedMessage, error) {
	q, err := s.queues.Queue(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolving queue: %w", err)
	}

	body, found, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.FetchedMessage{
		Identifier: identifier,
		Body:       body,
		Found:      found,
	}, nil
}

func (s *messageService) Queues() []domain.QueueInfo {
	configs := s.queues.Configurations()
	infos := make([]domain.QueueInfo, 0, len(configs))

	for _, cfg := range configs {
		infos = append(infos, domain.QueueInfo{
			Identifier:   cfg.Identifier,
			Queue:        cfg.Queue,
			Hostname:     cfg.Hostname,
			Port:         cfg.Port,
			VirtualHost:  cfg.VirtualHost,
			PublishOnly:  cfg.PublishOnly,
			ReceiveOnly:  cfg.ReceiveOnly,
			CanPublish:   cfg.CanPublish(),
			CanReceive:   cfg.CanReceive(),
			Instantiated: s.queues.IsInstantiated(cfg.Identifier),
		})
	}

	return infos
}

func outcomeOf(err error, found bool) string {
	switch {
	case errors.Is(err, context.Canceled):
		return infrastructure.OutcomeCancelled
	case err != nil:
		return infrastructure.OutcomeError
	case !found:
		return infrastructure.OutcomeEmpty
	default:
		return infrastructure.OutcomeSuccess
	}
}
