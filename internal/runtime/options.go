package runtime

import (
	"os"
)

type (
	ServiceOption func(*ServiceCtx)

	ConsumerOption func(*ConsumerCtx)
)

func WithServiceTermination(ch chan os.Signal) ServiceOption {
	return func(ctx *ServiceCtx) {
		ctx.shutdownChannel = ch
	}
}

func WithConsumerTermination(ch chan os.Signal) ConsumerOption {
	return func(ctx *ConsumerCtx) {
		ctx.shutdownChannel = ch
	}
}

func WithWaitingForServer() ServiceOption {
	return func(ctx *ServiceCtx) {
		ctx.serverReady = make(chan struct{})
	}
}
