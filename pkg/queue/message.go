package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	contentTypeText = "text/plain"
	contentTypeJSON = "application/json"
)

// Message is a delivery handed to a consumer handler.
type Message struct {
	Body        []byte
	ContentType string
	MessageID   string
	Headers     amqp.Table
	Timestamp   time.Time
	DeliveryTag uint64
	Redelivered bool
	ConsumerTag string
}

func newMessage(d amqp.Delivery) Message {
	return Message{
		Body:        d.Body,
		ContentType: d.ContentType,
		MessageID:   d.MessageId,
		Headers:     d.Headers,
		Timestamp:   d.Timestamp,
		DeliveryTag: d.DeliveryTag,
		Redelivered: d.Redelivered,
		ConsumerTag: d.ConsumerTag,
	}
}

// Text decodes the body as UTF-8.
func (m Message) Text() (string, error) {
	if !utf8.Valid(m.Body) {
		return "", ErrDecode
	}

	return string(m.Body), nil
}

// Unmarshal parses the JSON body and stores the result in the value pointed to by target.
func (m Message) Unmarshal(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}

	if !utf8.Valid(m.Body) {
		return ErrDecode
	}

	if err := json.Unmarshal(m.Body, target); err != nil {
		return fmt.Errorf("could not unmarshal into target: %w", err)
	}

	return nil
}

// MsgController settles deliveries received with manual acknowledgement.
type MsgController struct {
	ack amqp.Acknowledger
}

// NewMsgController settles messages through ack, usually the channel the
// messages were delivered on.
func NewMsgController(ack amqp.Acknowledger) *MsgController {
	return &MsgController{ack: ack}
}

// Ack is used to positively acknowledge a consumed message.
func (ctrl *MsgController) Ack(m Message) error {
	return ctrl.ack.Ack(m.DeliveryTag, false)
}

// Nack is used to negatively acknowledge a consumed message without requeueing it.
func (ctrl *MsgController) Nack(m Message) error {
	return ctrl.ack.Nack(m.DeliveryTag, false, false)
}

// Reject is used to negatively acknowledge a consumed message. It will not be requeued.
func (ctrl *MsgController) Reject(m Message) error {
	return ctrl.ack.Reject(m.DeliveryTag, false)
}

// Requeue hands the message back to the broker for redelivery.
func (ctrl *MsgController) Requeue(m Message) error {
	return ctrl.ack.Nack(m.DeliveryTag, false, true)
}
