package ports

import (
	"context"

	"github.com/architeacher/svc-mq-factory/internal/domain"
)

type HealthChecker interface {
	CheckHealth(ctx context.Context) *domain.HealthResult
	CheckReadiness(ctx context.Context) *domain.ReadinessResult
}
