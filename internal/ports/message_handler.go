package ports

import (
	"context"

	"github.com/architeacher/svc-mq-factory/pkg/queue"
)

// MessageHandler processes messages pushed by a registered consumer.
type MessageHandler interface {
	ProcessMessage(ctx context.Context, msg queue.Message, ctrl *queue.MsgController) error
}
