// Package queue provides a configuration-driven registry of RabbitMQ queues.
//
// # Overview
//
// A Factory holds an ordered list of Configuration values and builds one MessageQueue per
// identifier the first time it is requested. Each MessageQueue owns a single connection and
// channel to the broker, opened at construction, and derives what it may do from its
// configuration:
//
//   - CanPublish is true when the queue is not receive-only and both Exchange and RoutingKey are set.
//   - CanReceive is true when the queue is not publish-only.
//
// Operations outside those capabilities fail with ErrNotAuthorizedForPublish or
// ErrNotAuthorizedForReceive.
//
// # Basic Usage
//
//	cfg := queue.NewConfiguration()
//	cfg.Identifier = "orders"
//	cfg.Queue = "orders"
//	cfg.Exchange = queue.StringPtr("")
//	cfg.RoutingKey = queue.StringPtr("orders")
//
//	factory, err := queue.NewFactory([]queue.Configuration{cfg}, queue.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer factory.Close()
//
//	q, err := factory.GetQueue(ctx, "orders")
//	if err != nil {
//		return err
//	}
//
//	if err := q.Publish(ctx, "hello"); err != nil {
//		return err
//	}
//
//	text, ok, err := q.Get(ctx)
//
// Typed messages are JSON encoded:
//
//	err := queue.PublishItem(ctx, q, Order{ID: "42"})
//	order, ok, err := queue.GetItem[Order](ctx, q)
//
// # Fetching
//
// Get and GetItem issue a single basic.get and never wait for a message; an empty queue is
// reported through the boolean result, not as an error. A message is acknowledged only after
// its body was decoded. Bodies that fail to decode stay unacknowledged and are redelivered
// according to the broker's own policy.
//
// # Consuming
//
// RegisterConsumer attaches a Handler that is invoked from an internal dispatch goroutine for
// every pushed delivery. Registering again replaces the previous handler, which is detached
// before the new subscription starts. With manual acknowledgement the handler settles each
// message through its MsgController:
//
//	handler := func(ctx context.Context, msg queue.Message, ctrl *queue.MsgController) error {
//		text, err := msg.Text()
//		if err != nil {
//			return ctrl.Reject(msg)
//		}
//
//		process(text)
//
//		return ctrl.Ack(msg)
//	}
//
//	err := q.RegisterConsumer(handler, false)
//
// # Errors
//
// Every failure is returned to the caller as an *Error that wraps one of the sentinel errors of
// this package and, where there is one, the transport error. Nothing is retried internally.
//
//	if errors.Is(err, queue.ErrConfigurationNotFound) {
//		// unknown identifier
//	}
//
// # Concurrency
//
// GetQueue may be called concurrently; concurrent first calls for one identifier open a
// single connection and all callers receive the same instance. Calls on a MessageQueue are
// serialized by a ChannelWrapper around its channel.
//
// # Lifecycle
//
// The Factory owns every queue it built. Factory.Close detaches consumers and closes channels
// and connections. Messages delivered but not yet acknowledged at that point are handled by the
// broker's redelivery policy.
package queue
