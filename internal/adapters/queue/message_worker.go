package queue

import (
	"context"

	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/ports"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

var _ ports.MessageHandler = (*MessageWorker)(nil)

// MessageWorker logs every pushed message and acknowledges it. Messages that
// are not valid UTF-8 text are rejected without requeue.
type MessageWorker struct {
	identifier string
	logger     infrastructure.Logger
	metrics    infrastructure.Metrics
}

func NewMessageWorker(
	identifier string,
	logger infrastructure.Logger,
	metrics infrastructure.Metrics,
) *MessageWorker {
	return &MessageWorker{
		identifier: identifier,
		logger:     logger.Component("message-worker"),
		metrics:    metrics,
	}
}

func (w *MessageWorker) ProcessMessage(ctx context.Context, msg queue.Message, ctrl *queue.MsgController) error {
	body, err := msg.Text()
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("identifier", w.identifier).
			Str("message_id", msg.MessageID).
			Msg("rejecting undecodable message")

		w.metrics.RecordConsumedMessage(ctx, w.identifier, infrastructure.OutcomeError)

		return ctrl.Reject(msg)
	}

	w.logger.Info().
		Str("identifier", w.identifier).
		Str("message_id", msg.MessageID).
		Str("consumer_tag", msg.ConsumerTag).
		Bool("redelivered", msg.Redelivered).
		Str("body", body).
		Msg("message received")

	w.metrics.RecordConsumedMessage(ctx, w.identifier, infrastructure.OutcomeSuccess)

	return ctrl.Ack(msg)
}
