package config

import (
	"time"

	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
	APIVersion     string
)

type (
	ServiceConfig struct {
		AppConfig             AppConfig                   `json:"app_config"`
		Logging               LoggingConfig               `json:"logging"`
		Telemetry             Telemetry                   `json:"telemetry"`
		HTTPServer            HTTPServerConfig            `json:"http_server"`
		MessageQueues         MessageQueuesConfig         `json:"message_queues"`
		ThrottledRateLimiting ThrottledRateLimitingConfig `json:"throttled_rate_limiting"`
	}

	AppConfig struct {
		ServiceName    string `envconfig:"APP_SERVICE_NAME" default:"svc-mq-factory" json:"service_name"`
		ServiceVersion string `envconfig:"APP_SERVICE_VERSION" default:"0.0.0" json:"service_version"`
		CommitSHA      string `envconfig:"APP_COMMIT_SHA" default:"unknown" json:"commit_sha"`
		APIVersion     string `envconfig:"APP_API_VERSION" default:"v1" json:"api_version"`
		Env            string `envconfig:"APP_ENVIRONMENT" default:"unknown" json:"env"`
	}

	LoggingConfig struct {
		Level     string          `envconfig:"LOGGING_LEVEL" default:"info" json:"level"`
		Format    string          `envconfig:"LOGGING_FORMAT" default:"json" json:"format"`
		AccessLog AccessLogConfig `json:"access_log"`
	}

	AccessLogConfig struct {
		Enabled            bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks    bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
		IncludeQueryParams bool `envconfig:"ACCESS_LOG_INCLUDE_QUERY_PARAMS" default:"true" json:"include_query_params"`
	}

	Telemetry struct {
		ExporterType string `envconfig:"OTEL_EXPORTER" default:"grpc" json:"exporter_type"`

		OtelGRPCHost       string `envconfig:"OTEL_HOST" json:"otel_grpc_host"`
		OtelGRPCPort       string `envconfig:"OTEL_PORT" default:"4317" json:"otel_grpc_port"`
		OtelProductCluster string `envconfig:"OTEL_PRODUCT_CLUSTER" json:"otel_product_cluster"`

		Metrics Metrics `json:"metrics"`
		Traces  Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1" json:"sampler_ratio"`
	}

	HTTPServerConfig struct {
		Port            int           `envconfig:"HTTP_SERVER_PORT" default:"8088" json:"port"`
		Host            string        `envconfig:"HTTP_SERVER_HOST" default:"0.0.0.0" json:"host"`
		ReadTimeout     time.Duration `envconfig:"HTTP_SERVER_READ_TIMEOUT" default:"30s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"HTTP_SERVER_WRITE_TIMEOUT" default:"30s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"HTTP_SERVER_IDLE_TIMEOUT" default:"120s" json:"idle_timeout"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SERVER_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
		MaxBodyBytes    int64         `envconfig:"HTTP_SERVER_MAX_BODY_BYTES" default:"1048576" json:"max_body_bytes"`
	}

	// MessageQueuesConfig holds the service-level queue settings. The queue definitions
	// themselves come from ConfigFile and are loaded into Definitions.
	MessageQueuesConfig struct {
		ConfigFile           string        `envconfig:"MESSAGE_QUEUES_CONFIG_FILE" default:"message_queues.yaml" json:"config_file"`
		InstantiateOnStartup bool          `envconfig:"MESSAGE_QUEUES_INSTANTIATE_ON_STARTUP" default:"true" json:"instantiate_on_startup"`
		TolerateBrokerDown   bool          `envconfig:"MESSAGE_QUEUES_TOLERATE_BROKER_DOWN" default:"false" json:"tolerate_broker_down"`
		ConnectTimeout       time.Duration `envconfig:"MESSAGE_QUEUES_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		Heartbeat            time.Duration `envconfig:"MESSAGE_QUEUES_HEARTBEAT" default:"10s" json:"heartbeat"`
		ReceiveIdentifier    string        `envconfig:"MESSAGE_QUEUES_RECEIVE_IDENTIFIER" default:"MyReceiveQueue" json:"receive_identifier"`
		PublishIdentifier    string        `envconfig:"MESSAGE_QUEUES_PUBLISH_IDENTIFIER" default:"MySendQueue" json:"publish_identifier"`
		ConsumeIdentifiers   []string      `envconfig:"MESSAGE_QUEUES_CONSUME" json:"consume_identifiers"`
		ConsumerBackoff      BackoffConfig `json:"consumer_backoff"`

		Definitions []queue.Configuration `ignored:"true" json:"definitions"`
	}

	// BackoffConfig paces consumer registration retries while the broker is unreachable.
	BackoffConfig struct {
		// BaseDelay is the amount of time to backoff after the first failure.
		BaseDelay time.Duration `envconfig:"CONSUMER_BACKOFF_BASE_DELAY" default:"1s" json:"base_delay"`
		// Multiplier is the factor with which to multiply backoffs after a
		// failed retry. Should ideally be greater than 1.
		Multiplier float64 `envconfig:"CONSUMER_BACKOFF_MULTIPLIER" default:"1.6" json:"multiplier"`
		// Jitter is the factor with which backoffs are randomized.
		Jitter float64 `envconfig:"CONSUMER_BACKOFF_JITTER" default:"0.2" json:"jitter"`
		// MaxDelay is the upper bound of backoff delay.
		MaxDelay time.Duration `envconfig:"CONSUMER_BACKOFF_MAX_DELAY" default:"30s" json:"max_delay"`
		// MaxRetries is the number of retries after the first failed attempt.
		MaxRetries int `envconfig:"CONSUMER_BACKOFF_MAX_RETRIES" default:"5" json:"max_retries"`
	}

	ThrottledRateLimitingConfig struct {
		Enabled           bool     `envconfig:"RATE_LIMITING_ENABLED" default:"true" json:"enabled"`
		RequestsPerSecond int      `envconfig:"RATE_LIMITING_REQUESTS_PER_SECOND" default:"10" json:"requests_per_second"`
		BurstSize         int      `envconfig:"RATE_LIMITING_BURST_SIZE" default:"20" json:"burst_size"`
		MaxKeys           int      `envconfig:"RATE_LIMITING_MAX_KEYS" default:"1000" json:"max_keys"`
		SkipPaths         []string `envconfig:"RATE_LIMITING_SKIP_PATHS" default:"/v1/health,/metrics" json:"skip_paths"`
	}
)
