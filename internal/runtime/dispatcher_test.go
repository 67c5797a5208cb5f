package runtime

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates service context with default values", func(t *testing.T) {
		t.Parallel()

		serviceCtx := New()

		require.NotNil(t, serviceCtx)
		require.NotNil(t, serviceCtx.shutdownChannel)
		require.Nil(t, serviceCtx.deps)
		require.Nil(t, serviceCtx.serverReady)
	})

	t.Run("creates service context with options", func(t *testing.T) {
		t.Parallel()

		ch := make(chan os.Signal, 1)
		serviceCtx := New(
			WithServiceTermination(ch),
			WithWaitingForServer(),
		)

		require.NotNil(t, serviceCtx)
		require.Equal(t, ch, serviceCtx.shutdownChannel)
		require.NotNil(t, serviceCtx.serverReady)
	})

	t.Run("keeps a default termination channel when only waiting", func(t *testing.T) {
		t.Parallel()

		serviceCtx := New(WithWaitingForServer())

		require.NotNil(t, serviceCtx.shutdownChannel)
		require.NotNil(t, serviceCtx.serverReady)
	})
}

func TestNewConsumer(t *testing.T) {
	t.Parallel()

	t.Run("creates consumer context with default values", func(t *testing.T) {
		t.Parallel()

		consumerCtx := NewConsumer()

		require.NotNil(t, consumerCtx)
		require.NotNil(t, consumerCtx.shutdownChannel)
		require.Nil(t, consumerCtx.deps)
	})

	t.Run("creates consumer context with options", func(t *testing.T) {
		t.Parallel()

		ch := make(chan os.Signal, 1)
		consumerCtx := NewConsumer(WithConsumerTermination(ch))

		require.NotNil(t, consumerCtx)
		require.Equal(t, ch, consumerCtx.shutdownChannel)
	})
}
