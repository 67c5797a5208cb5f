package adapters

import (
	"context"

	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

var _ ports.QueueProvider = (*FactoryQueueProvider)(nil)

// FactoryQueueProvider exposes a queue.Factory through the ports.QueueProvider port.
type FactoryQueueProvider struct {
	factory *queue.Factory
}

func NewFactoryQueueProvider(factory *queue.Factory) *FactoryQueueProvider {
	return &FactoryQueueProvider{
		factory: factory,
	}
}

func (p *FactoryQueueProvider) Queue(ctx context.Context, identifier string) (ports.MessageQueue, error) {
	q, err := p.factory.GetQueue(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return q, nil
}

func (p *FactoryQueueProvider) Configurations() []queue.Configuration {
	return p.factory.Configurations()
}

func (p *FactoryQueueProvider) IsInstantiated(identifier string) bool {
	return p.factory.IsInstantiated(identifier)
}

func (p *FactoryQueueProvider) InstantiateQueues(ctx context.Context) error {
	return p.factory.InstantiateQueues(ctx)
}

func (p *FactoryQueueProvider) Close() error {
	return p.factory.Close()
}
