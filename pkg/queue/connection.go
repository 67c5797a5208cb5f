package queue

import (
	"context"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultConnectionTimeout = 30 * time.Second
	defaultHeartbeat         = 10 * time.Second
	defaultLocale            = "en_US"
)

// Dialer opens a broker connection for a configuration.
type Dialer interface {
	Dial(ctx context.Context, cfg Configuration) (Connection, error)
}

// Connection is a broker connection able to open channels.
type Connection interface {
	io.Closer

	Channel() (Channel, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context, cfg Configuration) (Connection, error)

func (f DialerFunc) Dial(ctx context.Context, cfg Configuration) (Connection, error) {
	return f(ctx, cfg)
}

type amqpDialer struct {
	timeout   time.Duration
	heartbeat time.Duration
}

// NewDialer returns a Dialer backed by amqp091-go.
func NewDialer(timeout, heartbeat time.Duration) Dialer {
	return amqpDialer{
		timeout:   timeout,
		heartbeat: heartbeat,
	}
}

func (d amqpDialer) Dial(ctx context.Context, cfg Configuration) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	props := amqp.NewConnectionProperties()
	props["connection_name"] = cfg.Identifier

	conn, err := amqp.DialConfig(getURL(cfg), amqp.Config{
		Heartbeat:  d.heartbeat,
		Locale:     defaultLocale,
		Properties: props,
		Dial:       amqp.DefaultDial(d.timeout),
	})
	if err != nil {
		return nil, err
	}

	return &amqpConnection{conn: conn}, nil
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func (c *amqpConnection) Close() error {
	if c.conn.IsClosed() {
		return nil
	}

	return c.conn.Close()
}
