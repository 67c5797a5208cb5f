package mocks

import (
	"context"

	"github.com/architeacher/svc-mq-factory/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MessageService struct {
	mock.Mock
}

func (m *MessageService) Publish(ctx context.Context, identifier, message string) error {
	return m.Called(ctx, identifier, message).Error(0)
}

func (m *MessageService) Fetch(ctx context.Context, identifier string) (*domain.FetchedMessage, error) {
	args := m.Called(ctx, identifier)

	msg, _ := args.Get(0).(*domain.FetchedMessage)

	return msg, args.Error(1)
}

func (m *MessageService) Queues() []domain.QueueInfo {
	args := m.Called()

	infos, _ := args.Get(0).([]domain.QueueInfo)

	return infos
}

type HealthChecker struct {
	mock.Mock
}

func (m *HealthChecker) CheckHealth(ctx context.Context) *domain.HealthResult {
	result, _ := m.Called(ctx).Get(0).(*domain.HealthResult)

	return result
}

func (m *HealthChecker) CheckReadiness(ctx context.Context) *domain.ReadinessResult {
	result, _ := m.Called(ctx).Get(0).(*domain.ReadinessResult)

	return result
}
