package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Text(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    []byte
		want    string
		wantErr error
	}{
		{name: "ascii", body: []byte("hello"), want: "hello"},
		{name: "multi-byte", body: []byte("grüße 👋"), want: "grüße 👋"},
		{name: "empty", body: []byte{}, want: ""},
		{name: "invalid utf-8", body: []byte{0xff, 0xfe, 0xfd}, wantErr: ErrDecode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Message{Body: tc.body}.Text()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMessage_Unmarshal(t *testing.T) {
	t.Parallel()

	msg := newMessage(amqp.Delivery{
		Body:        []byte(`{"name":"test","age":25}`),
		DeliveryTag: 3,
		Redelivered: true,
	})

	assert.Equal(t, uint64(3), msg.DeliveryTag)
	assert.True(t, msg.Redelivered)

	var result map[string]any
	require.NoError(t, msg.Unmarshal(&result))
	assert.Equal(t, "test", result["name"])
	assert.Equal(t, float64(25), result["age"])

	var notPointer map[string]any
	assert.Error(t, msg.Unmarshal(notPointer))

	assert.Error(t, Message{Body: []byte("not json")}.Unmarshal(&result))
	assert.ErrorIs(t, Message{Body: []byte{0xff}}.Unmarshal(&result), ErrDecode)
}

func TestMsgController(t *testing.T) {
	t.Parallel()

	msg := Message{DeliveryTag: 42}

	cases := []struct {
		name   string
		expect func(m *MockChannel)
		settle func(ctrl *MsgController) error
	}{
		{
			name:   "ack",
			expect: func(m *MockChannel) { m.On("Ack", uint64(42), false).Return(nil) },
			settle: func(ctrl *MsgController) error { return ctrl.Ack(msg) },
		},
		{
			name:   "nack",
			expect: func(m *MockChannel) { m.On("Nack", uint64(42), false, false).Return(nil) },
			settle: func(ctrl *MsgController) error { return ctrl.Nack(msg) },
		},
		{
			name:   "reject",
			expect: func(m *MockChannel) { m.On("Reject", uint64(42), false).Return(nil) },
			settle: func(ctrl *MsgController) error { return ctrl.Reject(msg) },
		},
		{
			name:   "requeue",
			expect: func(m *MockChannel) { m.On("Nack", uint64(42), false, true).Return(nil) },
			settle: func(ctrl *MsgController) error { return ctrl.Requeue(msg) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockChannel := &MockChannel{}
			tc.expect(mockChannel)

			ctrl := &MsgController{ack: newChannelWrapper(mockChannel)}

			assert.NoError(t, tc.settle(ctrl))
			mockChannel.AssertExpectations(t)
		})
	}
}
