package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedOrderStoreBeginOnce(t *testing.T) {
	store := NewProcessedOrderStore()
	ctx := context.Background()

	first, err := store.Begin(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Begin(ctx, "order-1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.Begin(ctx, "order-2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestProcessedOrderStoreRelease(t *testing.T) {
	store := NewProcessedOrderStore()
	ctx := context.Background()

	first, err := store.Begin(ctx, "order-1")
	require.NoError(t, err)
	require.True(t, first)

	require.NoError(t, store.Release(ctx, "order-1"))

	retry, err := store.Begin(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestProcessedOrderStoreConcurrentBegin(t *testing.T) {
	store := NewProcessedOrderStore()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Begin(ctx, "order-1")
			assert.NoError(t, err)
			if ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}
