package handlers

import (
	"time"

	"github.com/architeacher/svc-mq-factory/internal/domain"
)

type (
	ErrorResponse struct {
		Error      string    `json:"error"`
		Code       string    `json:"code"`
		Identifier string    `json:"identifier,omitempty"`
		StatusCode int       `json:"status_code"`
		Timestamp  time.Time `json:"timestamp"`
	}

	QueuesResponse struct {
		Queues []domain.QueueInfo `json:"queues"`
	}

	HealthResponse struct {
		Status    domain.HealthResponseStatus        `json:"status"`
		Timestamp time.Time                          `json:"timestamp"`
		Version   string                             `json:"version"`
		Uptime    float64                            `json:"uptime_seconds"`
		Queues    map[string]domain.DependencyStatus `json:"queues"`
	}

	ReadinessResponse struct {
		Status    domain.ReadinessResponseStatus     `json:"status"`
		Timestamp time.Time                          `json:"timestamp"`
		Version   string                             `json:"version"`
		Queues    map[string]domain.DependencyStatus `json:"queues"`
	}
)
