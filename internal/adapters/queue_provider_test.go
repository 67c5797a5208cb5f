package adapters

import (
	"context"
	"testing"

	"github.com/architeacher/svc-mq-factory/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryQueueProvider(t *testing.T) {
	t.Parallel()

	dialer := queue.DialerFunc(func(_ context.Context, _ queue.Configuration) (queue.Connection, error) {
		return nil, assert.AnError
	})

	factory, err := queue.NewFactory(healthConfigurations(), queue.WithDialer(dialer))
	require.NoError(t, err)

	provider := NewFactoryQueueProvider(factory)

	assert.Equal(t, healthConfigurations(), provider.Configurations())
	assert.False(t, provider.IsInstantiated("MySendQueue"))

	q, err := provider.Queue(t.Context(), "MySendQueue")
	assert.Nil(t, q, "a failed lookup must not return a typed nil queue")
	assert.ErrorIs(t, err, queue.ErrConnection)

	_, err = provider.Queue(t.Context(), "unknown")
	assert.ErrorIs(t, err, queue.ErrConfigurationNotFound)

	assert.ErrorIs(t, provider.InstantiateQueues(t.Context()), queue.ErrConnection)

	require.NoError(t, provider.Close())

	_, err = provider.Queue(t.Context(), "MySendQueue")
	assert.ErrorIs(t, err, queue.ErrFactoryClosed)
}
