package ports

import (
	"context"

	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

type (
	// MessageQueue is the part of a factory-built queue the service layer uses.
	MessageQueue interface {
		Identifier() string
		CanPublish() bool
		CanReceive() bool
		Publish(ctx context.Context, message string) error
		Get(ctx context.Context) (string, bool, error)
		RegisterConsumer(handler queue.Handler, autoAck bool) error
		UnregisterConsumer() error
	}

	// QueueProvider hands out lazily built queues by identifier.
	QueueProvider interface {
		Queue(ctx context.Context, identifier string) (MessageQueue, error)
		Configurations() []queue.Configuration
		IsInstantiated(identifier string) bool
		InstantiateQueues(ctx context.Context) error
		Close() error
	}
)
