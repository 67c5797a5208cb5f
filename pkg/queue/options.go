package queue

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/architeacher/svc-mq-factory/pkg/queue"

type options struct {
	dialer         Dialer
	logger         zerolog.Logger
	tracerProvider trace.TracerProvider
	timeout        time.Duration
	heartbeat      time.Duration
	errHandler     func(error)
	onInstantiate  func(identifier string, err error)
}

// Option configures a Factory and the queues it builds.
type Option func(*options)

// WithDialer replaces the amqp091-go dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithLogger sets the logger used by the factory and its queues.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithConnectionTimeout sets the dial timeout of the default dialer.
func WithConnectionTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithHeartbeat sets the heartbeat interval negotiated by the default dialer.
func WithHeartbeat(heartbeat time.Duration) Option {
	return func(o *options) {
		o.heartbeat = heartbeat
	}
}

// WithTracerProvider sets the provider used for publish, get and declare spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithErrorHandler sets a handler for errors returned by consumer handlers.
func WithErrorHandler(handler func(error)) Option {
	return func(o *options) {
		o.errHandler = handler
	}
}

// WithInstantiateHook is called by a Factory once per construction attempt,
// with a nil error when the queue was built and cached.
func WithInstantiateHook(hook func(identifier string, err error)) Option {
	return func(o *options) {
		o.onInstantiate = hook
	}
}

func newOptions(opts ...Option) options {
	o := options{
		logger:        zerolog.Nop(),
		timeout:       defaultConnectionTimeout,
		heartbeat:     defaultHeartbeat,
		errHandler:    func(_ error) {},
		onInstantiate: func(_ string, _ error) {},
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.dialer == nil {
		o.dialer = NewDialer(o.timeout, o.heartbeat)
	}

	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	return o
}

func (o options) tracer() trace.Tracer {
	return o.tracerProvider.Tracer(tracerName)
}
