package queue

import (
	"testing"

	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/architeacher/svc-mq-factory/internal/mocks"
	"github.com/architeacher/svc-mq-factory/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAcknowledger struct {
	acked    []uint64
	rejected []uint64
}

func (a *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)

	return nil
}

func (a *recordingAcknowledger) Nack(_ uint64, _ bool, _ bool) error {
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, _ bool) error {
	a.rejected = append(a.rejected, tag)

	return nil
}

func TestMessageWorker_ProcessMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		body         []byte
		wantAcked    []uint64
		wantRejected []uint64
		wantOutcome  string
	}{
		{
			name:        "text message is acked",
			body:        []byte("hello"),
			wantAcked:   []uint64{7},
			wantOutcome: infrastructure.OutcomeSuccess,
		},
		{
			name:         "invalid utf-8 is rejected",
			body:         []byte{0xff, 0xfe},
			wantRejected: []uint64{7},
			wantOutcome:  infrastructure.OutcomeError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ack := &recordingAcknowledger{}
			metrics := mocks.NewMetrics()
			worker := NewMessageWorker("MyReceiveQueue", infrastructure.NewTestLogger(), metrics)

			err := worker.ProcessMessage(t.Context(), queue.Message{Body: tc.body, DeliveryTag: 7}, queue.NewMsgController(ack))
			require.NoError(t, err)

			assert.Equal(t, tc.wantAcked, ack.acked)
			assert.Equal(t, tc.wantRejected, ack.rejected)
			assert.Equal(t, 1, metrics.Consumed("MyReceiveQueue", tc.wantOutcome))
		})
	}
}
