package domain

import "time"

type (
	// QueueInfo describes a configured queue without its credentials.
	QueueInfo struct {
		Identifier   string `json:"identifier"`
		Queue        string `json:"queue"`
		Hostname     string `json:"hostname"`
		Port         int    `json:"port"`
		VirtualHost  string `json:"virtual_host"`
		PublishOnly  bool   `json:"publish_only"`
		ReceiveOnly  bool   `json:"receive_only"`
		CanPublish   bool   `json:"can_publish"`
		CanReceive   bool   `json:"can_receive"`
		Instantiated bool   `json:"instantiated"`
	}

	FetchedMessage struct {
		Identifier string
		Body       string
		Found      bool
	}

	DependencyStatus struct {
		Status      DependencyCheckStatus `json:"status"`
		LastChecked time.Time             `json:"last_checked"`
		Error       string                `json:"error,omitempty"`
	}

	HealthResult struct {
		OverallStatus HealthResponseStatus        `json:"status"`
		Queues        map[string]DependencyStatus `json:"queues"`
		Uptime        float64                     `json:"uptime_seconds"`
	}

	ReadinessResult struct {
		OverallStatus ReadinessResponseStatus     `json:"status"`
		Queues        map[string]DependencyStatus `json:"queues"`
	}
)
