package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreCounters(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore()

	n, err := s.Increment(ctx, "route:health")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, _ = s.Increment(ctx, "route:health")
	_, _ = s.Increment(ctx, "route:loki")

	got, err := s.GetCounter(ctx, "route:health")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	missing, err := s.GetCounter(ctx, "route:nope")
	require.NoError(t, err)
	assert.Zero(t, missing)

	all, err := s.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"route:health": 2, "route:loki": 1}, all)

	// snapshot is detached from the store
	all["route:health"] = 100
	got, _ = s.GetCounter(ctx, "route:health")
	assert.Equal(t, int64(2), got)
}

func TestLocalStoreConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Increment(ctx, "k")
		}()
	}
	wg.Wait()

	got, _ := s.GetCounter(ctx, "k")
	assert.Equal(t, int64(50), got)
}
