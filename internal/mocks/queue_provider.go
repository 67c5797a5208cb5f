package mocks

import (
	"context"

	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
	"github.com/stretchr/testify/mock"
)

var (
	_ ports.QueueProvider = (*QueueProvider)(nil)
	_ ports.MessageQueue  = (*MessageQueue)(nil)
)

type QueueProvider struct {
	mock.Mock
}

func (m *QueueProvider) Queue(ctx context.Context, identifier string) (ports.MessageQueue, error) {
	args := m.Called(ctx, identifier)

	q, _ := args.Get(0).(ports.MessageQueue)

	return q, args.Error(1)
}

func (m *QueueProvider) Configurations() []queue.Configuration {
	args := m.Called()

	configs, _ := args.Get(0).([]queue.Configuration)

	return configs
}

func (m *QueueProvider) IsInstantiated(identifier string) bool {
	return m.Called(identifier).Bool(0)
}

func (m *QueueProvider) InstantiateQueues(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *QueueProvider) Close() error {
	return m.Called().Error(0)
}

type MessageQueue struct {
	mock.Mock
}

func (m *MessageQueue) Identifier() string {
	return m.Called().String(0)
}

func (m *MessageQueue) CanPublish() bool {
	return m.Called().Bool(0)
}

func (m *MessageQueue) CanReceive() bool {
	return m.Called().Bool(0)
}

func (m *MessageQueue) Publish(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MessageQueue) Get(ctx context.Context) (string, bool, error) {
	args := m.Called(ctx)

	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MessageQueue) RegisterConsumer(handler queue.Handler, autoAck bool) error {
	return m.Called(handler, autoAck).Error(0)
}

func (m *MessageQueue) UnregisterConsumer() error {
	return m.Called().Error(0)
}
