package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Factory lazily builds and owns one MessageQueue per configured identifier.
type Factory struct {
	configs []Configuration
	index   map[string]int
	opts    []Option
	logger  zerolog.Logger
	hook    func(identifier string, err error)

	mutex  sync.RWMutex
	queues map[string]*MessageQueue
	closed bool

	group singleflight.Group
}

// NewFactory returns a Factory over configs. Identifiers must be unique.
func NewFactory(configs []Configuration, opts ...Option) (*Factory, error) {
	index := make(map[string]int, len(configs))

	for i, cfg := range configs {
		if _, ok := index[cfg.Identifier]; ok {
			return nil, newError(cfg.Identifier, "new factory", ErrDuplicateIdentifier, nil)
		}

		index[cfg.Identifier] = i
	}

	o := newOptions(opts...)

	return &Factory{
		configs: slices.Clone(configs),
		index:   index,
		opts:    opts,
		logger:  o.logger,
		hook:    o.onInstantiate,
		queues:  make(map[string]*MessageQueue, len(configs)),
	}, nil
}

// GetQueue returns the queue for identifier, building it on first use.
// Concurrent first calls for one identifier share a single construction.
// A failed construction is not cached.
func (f *Factory) GetQueue(ctx context.Context, identifier string) (*MessageQueue, error) {
	if q, ok, err := f.cached(identifier); ok || err != nil {
		return q, err
	}

	cfg, ok := f.Configuration(identifier)
	if !ok {
		return nil, newError(identifier, "get queue", ErrConfigurationNotFound, nil)
	}

	v, err, _ := f.group.Do(identifier, func() (any, error) {
		if q, ok, err := f.cached(identifier); ok || err != nil {
			return q, err
		}

		q, err := f.instantiate(ctx, cfg)
		f.hook(identifier, err)

		return q, err
	})
	if err != nil {
		return nil, err
	}

	return v.(*MessageQueue), nil
}

func (f *Factory) instantiate(ctx context.Context, cfg Configuration) (*MessageQueue, error) {
	q, err := NewMessageQueue(context.WithoutCancel(ctx), cfg, f.opts...)
	if err != nil {
		f.logger.Error().Err(err).Str("queue_identifier", cfg.Identifier).Msg("failed to instantiate queue")

		return nil, err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		_ = q.Close()

		return nil, newError(cfg.Identifier, "get queue", ErrFactoryClosed, nil)
	}

	f.queues[cfg.Identifier] = q

	f.logger.Info().Str("queue_identifier", cfg.Identifier).Msg("queue instantiated")

	return q, nil
}

func (f *Factory) cached(identifier string) (*MessageQueue, bool, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if f.closed {
		return nil, false, newError(identifier, "get queue", ErrFactoryClosed, nil)
	}

	q, ok := f.queues[identifier]

	return q, ok, nil
}

// InstantiateQueues builds every configured queue in order and stops at the first failure.
func (f *Factory) InstantiateQueues(ctx context.Context) error {
	for _, cfg := range f.configs {
		if _, err := f.GetQueue(ctx, cfg.Identifier); err != nil {
			return fmt.Errorf("instantiating queue %q: %w", cfg.Identifier, err)
		}
	}

	return nil
}

// Configuration returns the configuration registered under identifier.
func (f *Factory) Configuration(identifier string) (Configuration, bool) {
	i, ok := f.index[identifier]
	if !ok {
		return Configuration{}, false
	}

	return f.configs[i], true
}

// Configurations returns the configured queues in definition order.
func (f *Factory) Configurations() []Configuration {
	return slices.Clone(f.configs)
}

// Identifiers returns the configured identifiers in definition order.
func (f *Factory) Identifiers() []string {
	ids := make([]string, 0, len(f.configs))
	for _, cfg := range f.configs {
		ids = append(ids, cfg.Identifier)
	}

	return ids
}

// IsInstantiated reports whether the queue for identifier has been built.
func (f *Factory) IsInstantiated(identifier string) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	_, ok := f.queues[identifier]

	return ok
}

// Close closes every instantiated queue and clears the cache. Later calls are no-ops.
func (f *Factory) Close() error {
	f.mutex.Lock()
	if f.closed {
		f.mutex.Unlock()

		return nil
	}

	f.closed = true
	queues := f.queues
	f.queues = make(map[string]*MessageQueue)
	f.mutex.Unlock()

	var errs []error

	for _, cfg := range f.configs {
		q, ok := queues[cfg.Identifier]
		if !ok {
			continue
		}

		if err := q.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	f.logger.Info().Int("closed_queues", len(queues)).Msg("queue factory closed")

	return errors.Join(errs...)
}
