package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeBroker is an in-memory broker. The default exchange routes by queue name,
// other exchanges route through bindings.
type fakeBroker struct {
	mutex    sync.Mutex
	queues   map[string]*fakeQueue
	bindings map[string]string
	nextTag  uint64

	dials     atomic.Int32
	dialDelay time.Duration
	dialErr   error
}

type fakeQueue struct {
	name      string
	durable   bool
	ready     []amqp.Delivery
	consumers map[string]*fakeConsumer
}

type fakeConsumer struct {
	owner      *fakeChannel
	autoAck    bool
	deliveries chan amqp.Delivery
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		queues:   make(map[string]*fakeQueue),
		bindings: make(map[string]string),
	}
}

func (b *fakeBroker) Dial(_ context.Context, _ Configuration) (Connection, error) {
	b.dials.Add(1)

	if b.dialDelay > 0 {
		time.Sleep(b.dialDelay)
	}

	if b.dialErr != nil {
		return nil, b.dialErr
	}

	return &fakeConnection{broker: b}, nil
}

func (b *fakeBroker) bind(exchange, key, queue string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.bindings[exchange+"/"+key] = queue
}

func (b *fakeBroker) declare(name string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, ok := b.queues[name]; !ok {
		b.queues[name] = &fakeQueue{name: name, consumers: make(map[string]*fakeConsumer)}
	}
}

func (b *fakeBroker) depth(name string) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	q, ok := b.queues[name]
	if !ok {
		return 0
	}

	return len(q.ready)
}

// deliverLocked hands d to a consumer of q or appends it to the ready list.
func (b *fakeBroker) deliverLocked(q *fakeQueue, d amqp.Delivery) {
	for tag, c := range q.consumers {
		b.nextTag++
		d.DeliveryTag = b.nextTag
		d.ConsumerTag = tag

		if !c.autoAck {
			c.owner.unacked[d.DeliveryTag] = unackedDelivery{queue: q.name, delivery: d}
		}

		c.deliveries <- d

		return
	}

	q.ready = append(q.ready, d)
}

type fakeConnection struct {
	broker *fakeBroker
	closed atomic.Bool
}

func (c *fakeConnection) Channel() (Channel, error) {
	if c.closed.Load() {
		return nil, amqp.ErrClosed
	}

	return &fakeChannel{broker: c.broker, unacked: make(map[uint64]unackedDelivery)}, nil
}

func (c *fakeConnection) Close() error {
	c.closed.Store(true)

	return nil
}

type unackedDelivery struct {
	queue    string
	delivery amqp.Delivery
}

type fakeChannel struct {
	broker  *fakeBroker
	unacked map[uint64]unackedDelivery
	acked   []uint64
	closed  bool
}

func (ch *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	q, ok := b.queues[name]
	if !ok {
		q = &fakeQueue{name: name, durable: durable, consumers: make(map[string]*fakeConsumer)}
		b.queues[name] = q
	}

	if q.durable != durable {
		return amqp.Queue{}, &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - inequivalent arg 'durable'"}
	}

	return amqp.Queue{Name: name, Messages: len(q.ready)}, nil
}

func (ch *fakeChannel) QueueDeclarePassive(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	q, ok := b.queues[name]
	if !ok {
		return amqp.Queue{}, &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND - no queue '" + name + "'"}
	}

	return amqp.Queue{Name: name, Messages: len(q.ready)}, nil
}

func (ch *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}

	name := key
	if exchange != "" {
		name = b.bindings[exchange+"/"+key]
	}

	q, ok := b.queues[name]
	if !ok {
		return nil
	}

	b.deliverLocked(q, amqp.Delivery{
		Headers:     msg.Headers,
		ContentType: msg.ContentType,
		MessageId:   msg.MessageId,
		Timestamp:   msg.Timestamp,
		Exchange:    exchange,
		RoutingKey:  key,
		Body:        msg.Body,
	})

	return nil
}

func (ch *fakeChannel) Get(queue string, autoAck bool) (amqp.Delivery, bool, error) {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	q, ok := b.queues[queue]
	if !ok {
		return amqp.Delivery{}, false, &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND"}
	}

	if len(q.ready) == 0 {
		return amqp.Delivery{}, false, nil
	}

	d := q.ready[0]
	q.ready = q.ready[1:]

	b.nextTag++
	d.DeliveryTag = b.nextTag

	if !autoAck {
		ch.unacked[d.DeliveryTag] = unackedDelivery{queue: queue, delivery: d}
	}

	return d, true, nil
}

func (ch *fakeChannel) Ack(tag uint64, _ bool) error {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, ok := ch.unacked[tag]; !ok {
		return &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - unknown delivery tag"}
	}

	delete(ch.unacked, tag)
	ch.acked = append(ch.acked, tag)

	return nil
}

func (ch *fakeChannel) Nack(tag uint64, _, requeue bool) error {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	u, ok := ch.unacked[tag]
	if !ok {
		return &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - unknown delivery tag"}
	}

	delete(ch.unacked, tag)

	if requeue {
		u.delivery.Redelivered = true
		b.queues[u.queue].ready = append(b.queues[u.queue].ready, u.delivery)
	}

	return nil
}

func (ch *fakeChannel) Reject(tag uint64, requeue bool) error {
	return ch.Nack(tag, false, requeue)
}

func (ch *fakeChannel) Consume(queue, consumer string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	q, ok := b.queues[queue]
	if !ok {
		return nil, &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND"}
	}

	c := &fakeConsumer{owner: ch, autoAck: autoAck, deliveries: make(chan amqp.Delivery, 128)}
	q.consumers[consumer] = c

	ready := q.ready
	q.ready = nil

	for _, d := range ready {
		b.deliverLocked(q, d)
	}

	return c.deliveries, nil
}

func (ch *fakeChannel) Cancel(consumer string, _ bool) error {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, q := range b.queues {
		if c, ok := q.consumers[consumer]; ok {
			delete(q.consumers, consumer)
			close(c.deliveries)

			return nil
		}
	}

	return errors.New("unknown consumer tag " + consumer)
}

// Close requeues whatever the channel left unacknowledged, like the broker does.
func (ch *fakeChannel) Close() error {
	b := ch.broker
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch.closed = true

	for tag, u := range ch.unacked {
		u.delivery.Redelivered = true
		if q, ok := b.queues[u.queue]; ok {
			q.ready = append(q.ready, u.delivery)
		}

		delete(ch.unacked, tag)
	}

	return nil
}

func (ch *fakeChannel) unackedCount() int {
	ch.broker.mutex.Lock()
	defer ch.broker.mutex.Unlock()

	return len(ch.unacked)
}

func (ch *fakeChannel) ackedCount() int {
	ch.broker.mutex.Lock()
	defer ch.broker.mutex.Unlock()

	return len(ch.acked)
}

func fakeChannelOf(q *MessageQueue) *fakeChannel {
	return q.channel.amqpChan.(*fakeChannel)
}
