package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultIdentifier  = "QueueIdentifier"
	DefaultScheme      = "amqp"
	DefaultHostname    = "localhost"
	DefaultPort        = 5672
	DefaultVirtualHost = "/"
	DefaultUsername    = "guest"
	DefaultPassword    = "guest"
	DefaultQueue       = "TestQueue"
)

// Configuration binds one identifier to a broker endpoint and a broker-side queue.
// Exchange and RoutingKey are pointers: nil means unset, while "" is the AMQP default exchange.
type Configuration struct {
	Identifier  string `mapstructure:"identifier" json:"identifier" validate:"required"`
	PublishOnly bool   `mapstructure:"publish_only" json:"publish_only"`
	ReceiveOnly bool   `mapstructure:"receive_only" json:"receive_only" validate:"excluded_if=PublishOnly true"`

	Scheme      string `mapstructure:"scheme" json:"scheme" validate:"oneof=amqp amqps"`
	Hostname    string `mapstructure:"hostname" json:"hostname" validate:"required,hostname_rfc1123|ip"`
	Port        int    `mapstructure:"port" json:"port" validate:"min=1,max=65535"`
	VirtualHost string `mapstructure:"virtual_host" json:"virtual_host" validate:"required"`
	Username    string `mapstructure:"username" json:"username"`
	Password    string `mapstructure:"password" json:"-"`

	Queue               string `mapstructure:"queue" json:"queue" validate:"required"`
	QueueDeclarePassive bool   `mapstructure:"queue_declare_passive" json:"queue_declare_passive"`
	Durable             bool   `mapstructure:"durable" json:"durable"`
	Exclusive           bool   `mapstructure:"exclusive" json:"exclusive"`
	AutoDelete          bool   `mapstructure:"auto_delete" json:"auto_delete"`

	Exchange   *string `mapstructure:"exchange" json:"exchange,omitempty"`
	RoutingKey *string `mapstructure:"routing_key" json:"routing_key,omitempty"`
}

// NewConfiguration returns a Configuration populated with the defaults.
func NewConfiguration() Configuration {
	return Configuration{
		Identifier:  DefaultIdentifier,
		Scheme:      DefaultScheme,
		Hostname:    DefaultHostname,
		Port:        DefaultPort,
		VirtualHost: DefaultVirtualHost,
		Username:    DefaultUsername,
		Password:    DefaultPassword,
		Queue:       DefaultQueue,
	}
}

// CanPublish reports whether the configuration allows publishing.
func (c Configuration) CanPublish() bool {
	return !c.ReceiveOnly && c.Exchange != nil && c.RoutingKey != nil
}

// CanReceive reports whether the configuration allows fetching and consuming.
func (c Configuration) CanReceive() bool {
	return !c.PublishOnly
}

func (c Configuration) exchange() string {
	if c.Exchange == nil {
		return ""
	}

	return *c.Exchange
}

func (c Configuration) routingKey() string {
	if c.RoutingKey == nil {
		return ""
	}

	return *c.RoutingKey
}

// StringPtr is a helper for setting Exchange and RoutingKey.
func StringPtr(s string) *string {
	return &s
}

func getURL(cfg Configuration) string {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}

	uri := amqp.URI{
		Scheme:   scheme,
		Username: cfg.Username,
		Password: cfg.Password,
		Host:     cfg.Hostname,
		Port:     cfg.Port,
		Vhost:    cfg.VirtualHost,
	}

	return uri.String()
}
