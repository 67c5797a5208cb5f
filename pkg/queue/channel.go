package queue

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel a MessageQueue relies on.
// It exists mainly to be able to swap the broker for a fake in tests.
//
//nolint:interfacebloat // mirrors the AMQP operations used by a queue
type Channel interface {
	io.Closer
	amqp.Acknowledger

	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

// ChannelWrapper serializes every call on a single AMQP channel, which is not safe for concurrent use.
type ChannelWrapper struct {
	amqpChan Channel

	mutex  *sync.Mutex
	closed atomic.Bool
}

var _ amqp.Acknowledger = (*ChannelWrapper)(nil)

func newChannelWrapper(ch Channel) *ChannelWrapper {
	return &ChannelWrapper{
		amqpChan: ch,
		mutex:    &sync.Mutex{},
	}
}

// Close closes the underlying channel. A second call returns amqp.ErrClosed.
func (ch *ChannelWrapper) Close() error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	if ch.isClosed() {
		return amqp.ErrClosed
	}

	ch.closed.Store(true)

	return ch.amqpChan.Close()
}

func (ch *ChannelWrapper) queueDeclare(name string, durable, autoDelete, exclusive bool) (amqp.Queue, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.QueueDeclare(name, durable, autoDelete, exclusive, false, nil)
}

func (ch *ChannelWrapper) queueDeclarePassive(name string, durable, autoDelete, exclusive bool) (amqp.Queue, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.QueueDeclarePassive(name, durable, autoDelete, exclusive, false, nil)
}

func (ch *ChannelWrapper) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if ch.isClosed() {
		return amqp.ErrClosed
	}

	return ch.amqpChan.PublishWithContext(ctx, exchange, key, false, false, msg)
}

func (ch *ChannelWrapper) get(queue string) (amqp.Delivery, bool, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if ch.isClosed() {
		return amqp.Delivery{}, false, amqp.ErrClosed
	}

	return ch.amqpChan.Get(queue, false)
}

func (ch *ChannelWrapper) consume(queue, consumer string, autoAck bool) (<-chan amqp.Delivery, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if ch.isClosed() {
		return nil, amqp.ErrClosed
	}

	return ch.amqpChan.Consume(queue, consumer, autoAck, false, false, false, nil)
}

func (ch *ChannelWrapper) cancel(consumer string) error {
	defer ch.mutex.Unlock()
	ch.mutex.Lock()

	if ch.isClosed() {
		return nil
	}

	return ch.amqpChan.Cancel(consumer, false)
}

// Ack acknowledges a delivery by its tag.
func (ch *ChannelWrapper) Ack(tag uint64, multiple bool) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Ack(tag, multiple)
}

// Nack negatively acknowledges a delivery by its tag.
func (ch *ChannelWrapper) Nack(tag uint64, multiple, requeue bool) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Nack(tag, multiple, requeue)
}

// Reject rejects a single delivery by its tag.
func (ch *ChannelWrapper) Reject(tag uint64, requeue bool) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Reject(tag, requeue)
}

func (ch *ChannelWrapper) isClosed() bool {
	return ch.closed.Load()
}
