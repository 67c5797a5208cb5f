package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Handler processes one pushed delivery. With manual acknowledgement the handler settles the
// message through ctrl. A handler must not register or unregister consumers on its own queue.
type Handler func(ctx context.Context, msg Message, ctrl *MsgController) error

type consumer struct {
	tag        string
	autoAck    bool
	deliveries <-chan amqp.Delivery
	cancel     context.CancelFunc
	done       chan struct{}

	// detaching is set before the subscription is cancelled on our side,
	// lost when the broker closed the deliveries channel first.
	detaching atomic.Bool
	lost      atomic.Bool
}

// MessageQueue is a live connection and channel bound to one Configuration.
type MessageQueue struct {
	cfg        Configuration
	conn       Connection
	channel    *ChannelWrapper
	logger     zerolog.Logger
	tracer     trace.Tracer
	errHandler func(error)

	mutex    sync.Mutex
	consumer *consumer
	closed   atomic.Bool
}

// NewMessageQueue dials the broker, opens a channel and makes sure the configured queue exists.
// Whatever was opened is closed again when a later step fails.
func NewMessageQueue(ctx context.Context, cfg Configuration, opts ...Option) (*MessageQueue, error) {
	o := newOptions(opts...)
	logger := o.logger.With().Str("queue_identifier", cfg.Identifier).Logger()

	ctx, span := o.tracer().Start(ctx, "queue declare",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(spanAttributes(cfg, "declare")...),
	)
	defer span.End()

	conn, err := o.dialer.Dial(ctx, cfg)
	if err != nil {
		return nil, spanError(span, newError(cfg.Identifier, "dial", ErrConnection, err))
	}

	amqpChan, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, spanError(span, newError(cfg.Identifier, "open channel", ErrConnection, err))
	}

	ch := newChannelWrapper(amqpChan)

	if err := declare(ch, cfg); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, spanError(span, err)
	}

	logger.Debug().
		Str("queue", cfg.Queue).
		Bool("passive", cfg.QueueDeclarePassive).
		Bool("can_publish", cfg.CanPublish()).
		Bool("can_receive", cfg.CanReceive()).
		Msg("queue ready")

	return &MessageQueue{
		cfg:        cfg,
		conn:       conn,
		channel:    ch,
		logger:     logger,
		tracer:     o.tracer(),
		errHandler: o.errHandler,
	}, nil
}

func declare(ch *ChannelWrapper, cfg Configuration) error {
	if cfg.QueueDeclarePassive {
		_, err := ch.queueDeclarePassive(cfg.Queue, cfg.Durable, cfg.AutoDelete, cfg.Exclusive)
		if err == nil {
			return nil
		}

		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return newError(cfg.Identifier, "declare passive", ErrQueueNotFound, err)
		}

		return newError(cfg.Identifier, "declare passive", ErrQueueDeclare, err)
	}

	if _, err := ch.queueDeclare(cfg.Queue, cfg.Durable, cfg.AutoDelete, cfg.Exclusive); err != nil {
		return newError(cfg.Identifier, "declare", ErrQueueDeclare, err)
	}

	return nil
}

func (q *MessageQueue) Identifier() string {
	return q.cfg.Identifier
}

func (q *MessageQueue) PublishOnly() bool {
	return q.cfg.PublishOnly
}

func (q *MessageQueue) ReceiveOnly() bool {
	return q.cfg.ReceiveOnly
}

func (q *MessageQueue) CanPublish() bool {
	return q.cfg.CanPublish()
}

func (q *MessageQueue) CanReceive() bool {
	return q.cfg.CanReceive()
}

// Configuration returns a copy of the configuration the queue was built from.
func (q *MessageQueue) Configuration() Configuration {
	return q.cfg
}

// Publish sends message as UTF-8 text to the configured exchange and routing key.
// No publisher confirmation is awaited.
func (q *MessageQueue) Publish(ctx context.Context, message string) error {
	return q.publish(ctx, []byte(message), contentTypeText)
}

// PublishItem serializes item as JSON and publishes it on q.
func PublishItem[T any](ctx context.Context, q *MessageQueue, item T) error {
	body, err := json.Marshal(item)
	if err != nil {
		return newError(q.Identifier(), "publish", ErrSerialization, err)
	}

	return q.publish(ctx, body, contentTypeJSON)
}

func (q *MessageQueue) publish(ctx context.Context, body []byte, contentType string) error {
	if q.closed.Load() {
		return newError(q.cfg.Identifier, "publish", ErrQueueClosed, nil)
	}

	if !q.CanPublish() {
		return newError(q.cfg.Identifier, "publish", ErrNotAuthorizedForPublish, nil)
	}

	messageID := uuid.NewString()

	ctx, span := q.tracer.Start(ctx, q.cfg.exchange()+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(spanAttributes(q.cfg, "publish")...),
		trace.WithAttributes(
			semconv.MessagingMessageID(messageID),
			semconv.MessagingMessageBodySize(len(body)),
		),
	)
	defer span.End()

	err := q.channel.publish(ctx, q.cfg.exchange(), q.cfg.routingKey(), amqp.Publishing{
		ContentType: contentType,
		MessageId:   messageID,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		return spanError(span, newError(q.cfg.Identifier, "publish", ErrBroker, err))
	}

	return nil
}

// Get fetches a single message without waiting. It returns false when the queue is empty.
// The message is acknowledged only after its body decoded as UTF-8; otherwise it stays
// unacknowledged and ErrDecode is returned.
func (q *MessageQueue) Get(ctx context.Context) (string, bool, error) {
	msg, ok, err := q.fetch(ctx)
	if err != nil || !ok {
		return "", false, err
	}

	text, err := msg.Text()
	if err != nil {
		return "", false, newError(q.cfg.Identifier, "get", ErrDecode, nil)
	}

	if err := q.ack(msg); err != nil {
		return "", false, err
	}

	return text, true, nil
}

// GetItem fetches a single message from q and deserializes its JSON body into T.
// An empty queue yields the zero value and false. A body that does not parse as T is left
// unacknowledged and ErrDeserialization is returned.
func GetItem[T any](ctx context.Context, q *MessageQueue) (T, bool, error) {
	var item T

	msg, ok, err := q.fetch(ctx)
	if err != nil || !ok {
		return item, false, err
	}

	if err := msg.Unmarshal(&item); err != nil {
		var zero T
		if errors.Is(err, ErrDecode) {
			return zero, false, newError(q.Identifier(), "get", ErrDecode, nil)
		}

		return zero, false, newError(q.Identifier(), "get", ErrDeserialization, err)
	}

	if err := q.ack(msg); err != nil {
		var zero T

		return zero, false, err
	}

	return item, true, nil
}

func (q *MessageQueue) fetch(ctx context.Context) (Message, bool, error) {
	if q.closed.Load() {
		return Message{}, false, newError(q.cfg.Identifier, "get", ErrQueueClosed, nil)
	}

	if !q.CanReceive() {
		return Message{}, false, newError(q.cfg.Identifier, "get", ErrNotAuthorizedForReceive, nil)
	}

	_, span := q.tracer.Start(ctx, q.cfg.Queue+" receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(spanAttributes(q.cfg, "receive")...),
	)
	defer span.End()

	d, ok, err := q.channel.get(q.cfg.Queue)
	if err != nil {
		return Message{}, false, spanError(span, newError(q.cfg.Identifier, "get", ErrBroker, err))
	}

	span.SetAttributes(attribute.Bool("messaging.message.available", ok))

	if !ok {
		return Message{}, false, nil
	}

	span.SetAttributes(
		semconv.MessagingMessageID(d.MessageId),
		semconv.MessagingMessageBodySize(len(d.Body)),
	)

	return newMessage(d), true, nil
}

func (q *MessageQueue) ack(msg Message) error {
	if err := q.channel.Ack(msg.DeliveryTag, false); err != nil {
		return newError(q.cfg.Identifier, "ack", ErrBroker, err)
	}

	return nil
}

// RegisterConsumer attaches handler to every delivery the broker pushes from now on.
// A previously registered handler is detached first and will not see further deliveries.
// With autoAck the broker settles deliveries on send; otherwise handler settles them through its MsgController.
func (q *MessageQueue) RegisterConsumer(handler Handler, autoAck bool) error {
	if handler == nil {
		return errors.New("consumer handler must not be nil")
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.closed.Load() {
		return newError(q.cfg.Identifier, "register consumer", ErrQueueClosed, nil)
	}

	if !q.CanReceive() {
		return newError(q.cfg.Identifier, "register consumer", ErrNotAuthorizedForReceive, nil)
	}

	if err := q.detach(); err != nil {
		return err
	}

	tag := q.cfg.Identifier + "-" + uuid.NewString()

	deliveries, err := q.channel.consume(q.cfg.Queue, tag, autoAck)
	if err != nil {
		return newError(q.cfg.Identifier, "register consumer", ErrBroker, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &consumer{
		tag:        tag,
		autoAck:    autoAck,
		deliveries: deliveries,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	q.consumer = c

	go q.dispatch(ctx, c, handler)

	q.logger.Info().
		Str("consumer_tag", tag).
		Bool("auto_ack", autoAck).
		Msg("consumer registered")

	return nil
}

// UnregisterConsumer detaches the active handler, if any.
func (q *MessageQueue) UnregisterConsumer() error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.detach()
}

// detach cancels the broker subscription, waits for the dispatch loop to exit and hands
// deliveries the loop never reached back to the broker. Callers must hold q.mutex.
func (q *MessageQueue) detach() error {
	c := q.consumer
	if c == nil {
		return nil
	}

	q.consumer = nil
	c.detaching.Store(true)

	var err error
	if !c.lost.Load() {
		err = q.channel.cancel(c.tag)
	}

	c.cancel()
	<-c.done

	if err == nil && !q.channel.isClosed() {
		q.returnUndispatched(c)
	}

	q.logger.Info().Str("consumer_tag", c.tag).Msg("consumer detached")

	if err != nil {
		return newError(q.cfg.Identifier, "cancel consumer", ErrBroker, err)
	}

	return nil
}

// returnUndispatched drains the deliveries buffered for c until the transport closes them.
func (q *MessageQueue) returnUndispatched(c *consumer) {
	returned := 0

	for d := range c.deliveries {
		if q.returnDelivery(c, d) {
			returned++
		}
	}

	if returned > 0 {
		q.logger.Info().
			Str("consumer_tag", c.tag).
			Int("returned", returned).
			Msg("undispatched deliveries returned to the broker")
	}
}

// returnDelivery hands d back to the broker. Unsettled deliveries are requeued, auto
// acknowledged ones are published to the queue again.
func (q *MessageQueue) returnDelivery(c *consumer, d amqp.Delivery) bool {
	var err error
	if c.autoAck {
		err = q.channel.publish(context.Background(), "", q.cfg.Queue, republishing(d))
	} else {
		err = q.channel.Nack(d.DeliveryTag, false, true)
	}

	if err != nil {
		q.logger.Warn().
			Err(err).
			Str("consumer_tag", c.tag).
			Uint64("delivery_tag", d.DeliveryTag).
			Msg("failed to return undispatched delivery")

		return false
	}

	return true
}

func republishing(d amqp.Delivery) amqp.Publishing {
	return amqp.Publishing{
		Headers:         d.Headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		DeliveryMode:    d.DeliveryMode,
		Priority:        d.Priority,
		CorrelationId:   d.CorrelationId,
		ReplyTo:         d.ReplyTo,
		Expiration:      d.Expiration,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		AppId:           d.AppId,
		Body:            d.Body,
	}
}

func (q *MessageQueue) dispatch(ctx context.Context, c *consumer, handler Handler) {
	defer close(c.done)

	ctrl := NewMsgController(q.channel)

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-c.deliveries:
			if !ok {
				if !c.detaching.Load() {
					q.consumerLost(c)
				}

				return
			}

			if ctx.Err() != nil {
				_ = q.returnDelivery(c, d)

				return
			}

			q.handle(ctx, d, ctrl, handler)
		}
	}
}

// consumerLost forgets c after the broker closed its deliveries, e.g. on channel loss.
func (q *MessageQueue) consumerLost(c *consumer) {
	c.lost.Store(true)

	q.logger.Warn().
		Str("consumer_tag", c.tag).
		Msg("broker closed the consumer deliveries, consumer detached")

	// detach may hold q.mutex while waiting for this dispatch loop to exit.
	go func() {
		q.mutex.Lock()
		defer q.mutex.Unlock()

		if q.consumer == c {
			q.consumer = nil
		}
	}()
}

func (q *MessageQueue) handle(ctx context.Context, d amqp.Delivery, ctrl *MsgController, handler Handler) {
	ctx, span := q.tracer.Start(ctx, q.cfg.Queue+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(spanAttributes(q.cfg, "process")...),
		trace.WithAttributes(
			semconv.MessagingMessageID(d.MessageId),
			semconv.MessagingRabbitmqMessageDeliveryTag(int(d.DeliveryTag)),
		),
	)
	defer span.End()

	if err := handler(ctx, newMessage(d), ctrl); err != nil {
		_ = spanError(span, err)

		q.logger.Error().
			Err(err).
			Uint64("delivery_tag", d.DeliveryTag).
			Msg("consumer handler failed")

		q.errHandler(err)
	}
}

// Close detaches the consumer, then closes the channel and the connection.
// Only the first call has an effect.
func (q *MessageQueue) Close() error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}

	errs := make([]error, 0, 3)

	if err := q.detach(); err != nil {
		errs = append(errs, err)
	}

	if err := q.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, newError(q.cfg.Identifier, "close channel", ErrBroker, err))
	}

	if err := q.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, newError(q.cfg.Identifier, "close connection", ErrBroker, err))
	}

	q.logger.Debug().Msg("queue closed")

	return errors.Join(errs...)
}

func spanAttributes(cfg Configuration, operation string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.MessagingSystemRabbitmq,
		semconv.MessagingOperationName(operation),
		semconv.MessagingDestinationName(cfg.Queue),
		semconv.ServerAddress(cfg.Hostname),
		semconv.ServerPort(cfg.Port),
		attribute.String("messaging.queue.identifier", cfg.Identifier),
	}

	if cfg.RoutingKey != nil {
		attrs = append(attrs, semconv.MessagingRabbitmqDestinationRoutingKey(*cfg.RoutingKey))
	}

	return attrs
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
