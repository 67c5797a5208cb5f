package domain

type (
	DependencyCheckStatus string

	HealthResponseStatus string

	ReadinessResponseStatus string
)

const (
	DependencyCheckStatusHealthy   DependencyCheckStatus = "healthy"
	DependencyCheckStatusPending   DependencyCheckStatus = "pending"
	DependencyCheckStatusUnhealthy DependencyCheckStatus = "unhealthy"
)

const (
	HealthResponseStatusHealthy   HealthResponseStatus = "healthy"
	HealthResponseStatusDegraded  HealthResponseStatus = "degraded"
	HealthResponseStatusUnhealthy HealthResponseStatus = "unhealthy"
)

const (
	ReadinessResponseStatusReady    ReadinessResponseStatus = "ready"
	ReadinessResponseStatusNotReady ReadinessResponseStatus = "not_ready"
)
