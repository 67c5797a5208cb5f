package runtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/architeacher/svc-mq-factory/internal/adapters/http/handlers"
	"github.com/architeacher/svc-mq-factory/internal/adapters/middleware"
	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/internal/service"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const metricsPath = "/metrics"

type (
	Services struct {
		Messages      service.MessageService
		HealthChecker ports.HealthChecker
	}

	ApplicationWorkers struct {
		Consumers ports.BackgroundProcessor
	}

	TracerShutdownFunc func(ctx context.Context) error

	InfrastructureDeps struct {
		HTTPServer   *http.Server
		QueueFactory *queue.Factory
		Queues       ports.QueueProvider
		Metrics      infrastructure.Metrics
	}

	Dependencies struct {
		Services Services
		Workers  ApplicationWorkers

		cfg          *config.ServiceConfig
		configLoader *config.Loader

		logger infrastructure.Logger

		Infra InfrastructureDeps

		tracerShutdownFunc TracerShutdownFunc
	}
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("unable to load service configuration: %w", err)
	}

	appLogger := infrastructure.New(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	appLogger.Info().
		Int("queue_definitions", len(cfg.MessageQueues.Definitions)).
		Msg("initializing dependencies...")

	deps := &Dependencies{
		cfg:    cfg,
		logger: appLogger,
	}

	// Start with default options and append any additional options.
	options := append(defaultOptions(ctx), opts...)

	for _, opt := range options {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	deps.logger.Info().Msg("dependencies initialized successfully")

	return deps, nil
}

func initHTTPServer(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
	reqHandler ports.RequestHandler,
) (*http.Server, error) {
	logger.Info().Msg("creating HTTP server...")

	router, err := initRouter(cfg, logger, metrics, reqHandler)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPServer.Host, strconv.Itoa(cfg.HTTPServer.Port)),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	logger.Info().Str("addr", server.Addr).Msg("HTTP server created")

	return server, nil
}

func initRouter(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
	reqHandler ports.RequestHandler,
) (chi.Router, error) {
	router := chi.NewRouter()

	middlewares, err := initMiddlewares(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	router.Use(middleware.NewResponseHeadersMiddleware(cfg.AppConfig.APIVersion, cfg.AppConfig.ServiceVersion).Middleware)

	if cfg.Telemetry.Metrics.Enabled {
		router.Handle(metricsPath, metrics.Handler())
	}

	handlers.HandlerWithOptions(reqHandler, handlers.ChiServerOptions{
		BaseURL:          "",
		BaseRouter:       router,
		Middlewares:      middlewares,
		ErrorHandlerFunc: reqHandler.HandleRequestError,
	})

	return router, nil
}

func initMiddlewares(
	cfg *config.ServiceConfig,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
) ([]handlers.MiddlewareFunc, error) {
	middlewares := []handlers.MiddlewareFunc{
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		chimiddleware.Timeout(cfg.HTTPServer.WriteTimeout),
		middleware.Tracer(),
	}

	if cfg.Telemetry.Metrics.Enabled {
		metricsMiddleware := middleware.NewMetricsMiddleware(metrics)
		middlewares = append(middlewares, metricsMiddleware.Middleware)
		logger.Info().Msg("HTTP metrics collection enabled")
	}

	if cfg.Logging.AccessLog.Enabled {
		healthFilter := middleware.NewHealthCheckFilter(cfg.Logging.AccessLog.LogHealthChecks)
		accessLogger := middleware.NewAccessLogger(logger.Logger, cfg.Logging.AccessLog.IncludeQueryParams)

		middlewares = append(middlewares, healthFilter.Middleware, accessLogger.Middleware)
		logger.Info().
			Bool("log_health_checks", cfg.Logging.AccessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	if cfg.ThrottledRateLimiting.Enabled {
		rateLimitMiddleware, err := middleware.NewThrottledRateLimitingMiddleware(cfg.ThrottledRateLimiting, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limiting: %w", err)
		}

		middlewares = append(middlewares, rateLimitMiddleware.Middleware)
		logger.Info().Msg("rate limiting enabled")
	}

	return middlewares, nil
}
