package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	metricsNamespace = "mq_factory"
)

// Queue operation outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

type (
	Metrics interface {
		RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, requestSize, responseSize int64)
		RecordQueueOperation(ctx context.Context, identifier, operation, outcome string, duration time.Duration)
		RecordQueueInstantiation(ctx context.Context, identifier string, success bool)
		RecordConsumedMessage(ctx context.Context, identifier, outcome string)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	OTELMetrics struct {
		meterProvider *sdkmetric.MeterProvider
		meter         metric.Meter
		logger        Logger

		httpRequestTotal       metric.Int64Counter
		httpRequestDuration    metric.Float64Histogram
		httpRequestSize        metric.Int64Histogram
		httpResponseSize       metric.Int64Histogram
		queueOperationTotal    metric.Int64Counter
		queueOperationDuration metric.Float64Histogram
		queueInstantiatedTotal metric.Int64Counter
		queueInstantiateErrors metric.Int64Counter
		consumedMessagesTotal  metric.Int64Counter
	}
)

func NewMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (Metrics, error) {
	if !cfg.Telemetry.Metrics.Enabled {
		logger.Info().Msg("metrics disabled, using NoOp implementation")

		return &NoOpMetrics{}, nil
	}

	return NewOTELMetrics(ctx, cfg, logger)
}

func NewOTELMetrics(ctx context.Context, cfg config.ServiceConfig, logger Logger) (*OTELMetrics, error) {
	endpoint := fmt.Sprintf("%s:%s", cfg.Telemetry.OtelGRPCHost, cfg.Telemetry.OtelGRPCPort)

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppConfig.ServiceName),
			semconv.ServiceVersionKey.String(cfg.AppConfig.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(cfg.AppConfig.CommitSHA),
			semconv.DeploymentEnvironmentKey.String(cfg.AppConfig.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	provider, err := newOTELMetrics(meterProvider, cfg.AppConfig.ServiceVersion, logger.Component("metrics"))
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("otel_endpoint", endpoint).
		Msg("OTEL metrics provider initialized successfully")

	return provider, nil
}

func newOTELMetrics(meterProvider *sdkmetric.MeterProvider, version string, logger Logger) (*OTELMetrics, error) {
	provider := &OTELMetrics{
		meterProvider: meterProvider,
		meter: meterProvider.Meter(
			metricsNamespace,
			metric.WithInstrumentationVersion(version),
		),
		logger: logger,
	}

	if err := provider.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return provider, nil
}

func (om *OTELMetrics) initializeMetrics() error {
	var err error

	om.httpRequestTotal, err = om.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	om.httpRequestDuration, err = om.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	om.httpRequestSize, err = om.meter.Int64Histogram(
		"http_request_size_bytes",
		metric.WithDescription("HTTP request size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_request_size_bytes histogram: %w", err)
	}

	om.httpResponseSize, err = om.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("failed to create http_response_size_bytes histogram: %w", err)
	}

	om.queueOperationTotal, err = om.meter.Int64Counter(
		"queue_operations_total",
		metric.WithDescription("Total number of queue publish and get operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_operations_total counter: %w", err)
	}

	om.queueOperationDuration, err = om.meter.Float64Histogram(
		"queue_operation_duration_seconds",
		metric.WithDescription("Queue operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_operation_duration_seconds histogram: %w", err)
	}

	om.queueInstantiatedTotal, err = om.meter.Int64Counter(
		"queue_instantiations_total",
		metric.WithDescription("Total number of queues instantiated by the factory"),
		metric.WithUnit("{queue}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_instantiations_total counter: %w", err)
	}

	om.queueInstantiateErrors, err = om.meter.Int64Counter(
		"queue_instantiation_errors_total",
		metric.WithDescription("Total number of failed queue instantiations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_instantiation_errors_total counter: %w", err)
	}

	om.consumedMessagesTotal, err = om.meter.Int64Counter(
		"consumed_messages_total",
		metric.WithDescription("Total number of messages delivered to registered consumers"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create consumed_messages_total counter: %w", err)
	}

	return nil
}

func (om *OTELMetrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	om.httpRequestTotal.Add(ctx, 1,
		metric.WithAttributes(
			HTTPMethodAttr(method),
			HTTPPathAttr(path),
			HTTPStatusCodeAttr(statusCode),
		),
	)

	om.httpRequestDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			HTTPMethodAttr(method),
			HTTPPathAttr(path),
			HTTPStatusCodeAttr(statusCode),
		),
	)

	om.httpRequestSize.Record(ctx, requestSize,
		metric.WithAttributes(
			HTTPMethodAttr(method),
			HTTPPathAttr(path),
		),
	)

	om.httpResponseSize.Record(ctx, responseSize,
		metric.WithAttributes(
			HTTPMethodAttr(method),
			HTTPPathAttr(path),
			HTTPStatusCodeAttr(statusCode),
		),
	)
}

func (om *OTELMetrics) RecordQueueOperation(ctx context.Context, identifier, operation, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		QueueIdentifierAttr(identifier),
		OperationAttr(operation),
		OutcomeAttr(outcome),
	)

	om.queueOperationTotal.Add(ctx, 1, attrs)
	om.queueOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

func (om *OTELMetrics) RecordQueueInstantiation(ctx context.Context, identifier string, success bool) {
	if success {
		om.queueInstantiatedTotal.Add(ctx, 1,
			metric.WithAttributes(
				QueueIdentifierAttr(identifier),
			),
		)

		return
	}

	om.queueInstantiateErrors.Add(ctx, 1,
		metric.WithAttributes(
			QueueIdentifierAttr(identifier),
		),
	)
}

func (om *OTELMetrics) RecordConsumedMessage(ctx context.Context, identifier, outcome string) {
	om.consumedMessagesTotal.Add(ctx, 1,
		metric.WithAttributes(
			QueueIdentifierAttr(identifier),
			OutcomeAttr(outcome),
		),
	)
}

func (om *OTELMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (om *OTELMetrics) Shutdown(ctx context.Context) error {
	if err := om.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}
