package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/domain"
	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

// HealthChecker reports the state of every configured queue.
type HealthChecker struct {
	queues    ports.QueueProvider
	startTime time.Time
}

func NewHealthChecker(queues ports.QueueProvider) ports.HealthChecker {
	return &HealthChecker{
		queues:    queues,
		startTime: time.Now(),
	}
}

// CheckHealth never builds queues. Queues not used yet are reported as pending.
func (h *HealthChecker) CheckHealth(_ context.Context) *domain.HealthResult {
	statuses := make(map[string]domain.DependencyStatus)
	pending := 0

	for _, cfg := range h.queues.Configurations() {
		status := domain.DependencyStatus{
			Status:      domain.DependencyCheckStatusHealthy,
			LastChecked: time.Now(),
		}

		if !h.queues.IsInstantiated(cfg.Identifier) {
			status.Status = domain.DependencyCheckStatusPending
			pending++
		}

		statuses[cfg.Identifier] = status
	}

	overallStatus := domain.HealthResponseStatusHealthy
	if pending > 0 {
		overallStatus = domain.HealthResponseStatusDegraded
	}

	return &domain.HealthResult{
		OverallStatus: overallStatus,
		Queues:        statuses,
		Uptime:        time.Since(h.startTime).Seconds(),
	}
}

// CheckReadiness resolves every queue, building the ones not used yet.
func (h *HealthChecker) CheckReadiness(ctx context.Context) *domain.ReadinessResult {
	statuses := make(map[string]domain.DependencyStatus)
	overallStatus := domain.ReadinessResponseStatusReady

	for _, cfg := range h.queues.Configurations() {
		status := domain.DependencyStatus{
			Status:      domain.DependencyCheckStatusHealthy,
			LastChecked: time.Now(),
		}

		if _, err := h.queues.Queue(ctx, cfg.Identifier); err != nil {
			status.Status = domain.DependencyCheckStatusUnhealthy
			status.Error = readinessError(err)
			overallStatus = domain.ReadinessResponseStatusNotReady
		}

		statuses[cfg.Identifier] = status
	}

	return &domain.ReadinessResult{
		OverallStatus: overallStatus,
		Queues:        statuses,
	}
}

func readinessError(err error) string {
	var queueErr *queue.Error
	if errors.As(err, &queueErr) && queueErr.Kind != nil {
		return queueErr.Kind.Error()
	}

	return err.Error()
}
