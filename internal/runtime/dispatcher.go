package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/architeacher/svc-mq-factory/internal/config"
)

type ServiceCtx struct {
	deps *Dependencies

	shutdownChannel chan os.Signal

	serverCtx      context.Context
	serverStopFunc context.CancelFunc

	serverReady chan struct{}
}

func New(opt ...ServiceOption) *ServiceCtx {
	sCtx := ServiceCtx{}

	for i := range opt {
		opt[i](&sCtx)
	}

	if sCtx.shutdownChannel == nil {
		sCtx.shutdownChannel = make(chan os.Signal, 1)
	}

	return &sCtx
}

func (c *ServiceCtx) Run() {
	c.build()
	c.startService()
	c.monitorConfigChanges()
	c.shutdownHook()
	c.shutdown()
}

// build initializes the service components
func (c *ServiceCtx) build() {
	c.serverCtx, c.serverStopFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.serverCtx, WithHTTPServer())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	c.deps = deps
}

// startService starts the HTTP server
func (c *ServiceCtx) startService() {
	// Start HTTP server
	go func() {
		c.deps.logger.Info().
			Str("address", c.deps.Infra.HTTPServer.Addr).
			Strs("queues", c.deps.Infra.QueueFactory.Identifiers()).
			Msg("service starting up")

		if c.serverReady != nil {
			c.serverReady <- struct{}{}
		}

		if err := c.deps.Infra.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.deps.logger.Error().Err(err).Msg("unable to start http server")
			c.serverStopFunc()

			return
		}
	}()
}

func (c *ServiceCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *ServiceCtx) monitorConfigChanges() {
	monitorConfigChanges(c.serverCtx, c.deps)
}

func (c *ServiceCtx) shutdown() {
	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.serverCtx.Done():
	case <-c.shutdownChannel:
		defer close(c.shutdownChannel)
	}

	c.deps.logger.Info().Msg("received shutdown signal")

	// Cancel context that underlying processes would start cleanup.
	c.serverStopFunc()

	// Grace period comes from HTTP_SERVER_SHUTDOWN_TIMEOUT.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.HTTPServer.ShutdownTimeout)

	go func() {
		<-shutdownCtx.Done()

		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			c.deps.logger.Error().Msg("graceful shutdown timed out.. forcing exit.")
			cancel()
			os.Exit(1)
		}
	}()

	c.cleanup(shutdownCtx)
	cancel()

	c.deps.logger.Info().Msg("HTTP server shutdown completed")
}

// WaitForServer blocks until the http server is running.
// If you want to be notified when the server is running,
// make sure you instantiate your server with WithWaitingForServer.
//
// Example:
//
//	srv := runtime.New(WithWaitingForServer())
//	go func() {
//		srv.Run()
//	}()
//
//	srv.WaitForServer()
func (c *ServiceCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
		close(c.serverReady)
	}
}

func (c *ServiceCtx) cleanup(shutdownCtx context.Context) {
	c.deps.logger.Info().Msg("cleaning up resources...")

	// Trigger graceful shutdown of the http server
	if err := c.deps.Infra.HTTPServer.Shutdown(shutdownCtx); err != nil {
		c.deps.logger.Error().Err(err).Msg("unable to gracefully shutdown http server")
	}

	releaseDependencies(shutdownCtx, c.deps)

	c.deps.logger.Info().Msg("cleanup completed")
}

// monitorConfigChanges logs the outcome of every SIGHUP reload until ctx is done.
func monitorConfigChanges(ctx context.Context, deps *Dependencies) {
	reloadErrors := deps.configLoader.WatchConfigSignals(ctx)

	go func() {
		for err := range reloadErrors {
			switch {
			case errors.Is(err, config.ErrQueueDefinitionsChanged):
				deps.logger.Warn().Err(err).Msg("queue definitions file changed")
			case err != nil:
				deps.logger.Error().Err(err).Msg("failed to reload config")
			default:
				deps.logger.Info().Msg("config reloaded successfully")
			}
		}

		deps.logger.Info().Msg("stopping config monitor")
	}()
}

// releaseDependencies closes the queues and flushes telemetry.
func releaseDependencies(ctx context.Context, deps *Dependencies) {
	if err := deps.Infra.Queues.Close(); err != nil {
		deps.logger.Error().Err(err).Msg("failed to close message queues")
	}

	if err := deps.Infra.Metrics.Shutdown(ctx); err != nil {
		deps.logger.Error().Err(err).Msg("failed to shutdown metrics")
	}

	if err := deps.tracerShutdownFunc(ctx); err != nil {
		deps.logger.Error().Err(err).Msg("failed to shutdown tracer")
	}
}
