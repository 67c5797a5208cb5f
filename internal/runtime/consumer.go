package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// ConsumerCtx runs the push consumers configured in MESSAGE_QUEUES_CONSUME without an HTTP surface.
type ConsumerCtx struct {
	deps *Dependencies

	shutdownChannel chan os.Signal

	backgroundActorCtx      context.Context
	backgroundActorStopFunc context.CancelFunc

	consumersDone chan struct{}
}

func NewConsumer(opt ...ConsumerOption) *ConsumerCtx {
	cCtx := ConsumerCtx{}

	for i := range opt {
		opt[i](&cCtx)
	}

	if cCtx.shutdownChannel == nil {
		cCtx.shutdownChannel = make(chan os.Signal, 1)
	}

	return &cCtx
}

func (c *ConsumerCtx) Run() {
	c.build()
	c.start()
	c.monitorConfigChanges()
	c.shutdownHook()
	c.shutdown()
}

func (c *ConsumerCtx) build() {
	c.backgroundActorCtx, c.backgroundActorStopFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.backgroundActorCtx, WithConsumers())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	c.deps = deps
	c.consumersDone = make(chan struct{})
}

func (c *ConsumerCtx) start() {
	go func() {
		defer close(c.consumersDone)

		c.deps.logger.Info().
			Strs("identifiers", c.deps.cfg.MessageQueues.ConsumeIdentifiers).
			Msg("starting message consumers")

		if err := c.deps.Workers.Consumers.Start(c.backgroundActorCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.deps.logger.Error().Err(err).Msg("message consumers failed")
			c.backgroundActorStopFunc()
		}
	}()
}

func (c *ConsumerCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *ConsumerCtx) monitorConfigChanges() {
	monitorConfigChanges(c.backgroundActorCtx, c.deps)
}

func (c *ConsumerCtx) shutdown() {
	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.backgroundActorCtx.Done():
	case <-c.shutdownChannel:
		defer close(c.shutdownChannel)
	}

	c.deps.logger.Info().Msg("received shutdown signal")

	// Cancel context so the supervisor detaches its consumers.
	c.backgroundActorStopFunc()
	<-c.consumersDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	c.deps.logger.Info().Msg("cleaning up resources...")
	releaseDependencies(shutdownCtx, c.deps)

	c.deps.logger.Info().Msg("message consumers stopped")
}
