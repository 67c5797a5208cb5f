package mocks

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
)

var _ infrastructure.Metrics = (*Metrics)(nil)

type (
	// Metrics records queue observations for assertions.
	Metrics struct {
		mutex          sync.Mutex
		operations     []QueueOperation
		instantiations map[string]int
		consumed       map[string]int
	}

	QueueOperation struct {
		Identifier string
		Operation  string
		Outcome    string
	}
)

func NewMetrics() *Metrics {
	return &Metrics{
		instantiations: map[string]int{},
		consumed:       map[string]int{},
	}
}

func (m *Metrics) RecordHTTPRequest(_ context.Context, _, _ string, _ int, _ time.Duration, _, _ int64) {
}

func (m *Metrics) RecordQueueOperation(_ context.Context, identifier, operation, outcome string, _ time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.operations = append(m.operations, QueueOperation{
		Identifier: identifier,
		Operation:  operation,
		Outcome:    outcome,
	})
}

func (m *Metrics) RecordQueueInstantiation(_ context.Context, identifier string, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if success {
		m.instantiations[identifier]++
	}
}

func (m *Metrics) RecordConsumedMessage(_ context.Context, identifier, outcome string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.consumed[identifier+"/"+outcome]++
}

func (m *Metrics) Operations() []QueueOperation {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]QueueOperation(nil), m.operations...)
}

func (m *Metrics) Instantiations(identifier string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.instantiations[identifier]
}

func (m *Metrics) Consumed(identifier, outcome string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.consumed[identifier+"/"+outcome]
}

func (m *Metrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (m *Metrics) Shutdown(_ context.Context) error {
	return nil
}
