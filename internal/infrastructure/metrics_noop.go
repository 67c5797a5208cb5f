package infrastructure

import (
	"context"
	"net/http"
	"time"
)

type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordHTTPRequest(_ context.Context, _, _ string, _ int, _ time.Duration, _, _ int64) {
}

func (n *NoOpMetrics) RecordQueueOperation(_ context.Context, _, _, _ string, _ time.Duration) {
}

func (n *NoOpMetrics) RecordQueueInstantiation(_ context.Context, _ string, _ bool) {
}

func (n *NoOpMetrics) RecordConsumedMessage(_ context.Context, _, _ string) {
}

func (n *NoOpMetrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (n *NoOpMetrics) Shutdown(_ context.Context) error {
	return nil
}
