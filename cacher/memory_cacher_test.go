package cacher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Cacher[string] = (*MemoryCacher[string])(nil)

func TestMemoryCacher_GetOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches and hit reuses", func(t *testing.T) {
		c := NewMemoryCacher[string](cache.NoExpiration, time.Minute)
		calls := 0
		fetch := func(ctx context.Context) (string, error) {
			calls++
			return "1 2 3", nil
		}

		v, err := c.GetOrFetch(ctx, "3 1 2", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "1 2 3", v)

		v, err = c.GetOrFetch(ctx, "3 1 2", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "1 2 3", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("fetch error is returned and not stored", func(t *testing.T) {
		c := NewMemoryCacher[string](cache.NoExpiration, time.Minute)
		_, err := c.GetOrFetch(ctx, "k", time.Minute, func(ctx context.Context) (string, error) {
			return "", assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		n, err := c.ItemCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("zero ttl uses default expiration", func(t *testing.T) {
		c := NewMemoryCacher[string](20*time.Millisecond, time.Minute)
		calls := 0
		fetch := func(ctx context.Context) (string, error) {
			calls++
			return "v", nil
		}

		_, err := c.GetOrFetch(ctx, "k", 0, fetch)
		require.NoError(t, err)
		time.Sleep(40 * time.Millisecond)
		_, err = c.GetOrFetch(ctx, "k", 0, fetch)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("concurrent misses share one fetch", func(t *testing.T) {
		c := NewMemoryCacher[string](cache.NoExpiration, time.Minute)
		var calls int32
		fetch := func(ctx context.Context) (string, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(20 * time.Millisecond)
			return "shared", nil
		}

		const n = 10
		var wg sync.WaitGroup
		results := make([]string, n)
		for i := 0; i < n; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = c.GetOrFetch(ctx, "same", time.Minute, fetch)
			}()
		}
		wg.Wait()

		for _, r := range results {
			assert.Equal(t, "shared", r)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestMemoryCacher_DeleteClearCount(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCacher[string](cache.NoExpiration, time.Minute)
	value := func(v string) FetchFunc[string] {
		return func(ctx context.Context) (string, error) { return v, nil }
	}

	_, _ = c.GetOrFetch(ctx, "a", time.Minute, value("1"))
	_, _ = c.GetOrFetch(ctx, "b", time.Minute, value("2"))

	n, err := c.ItemCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.Delete(ctx, "a"))
	n, _ = c.ItemCount(ctx)
	assert.Equal(t, 1, n)

	require.NoError(t, c.Clear(ctx))
	n, _ = c.ItemCount(ctx)
	assert.Equal(t, 0, n)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, c.Delete(cancelled, "b"))
	assert.Error(t, c.Clear(cancelled))
	_, err = c.ItemCount(cancelled)
	assert.Error(t, err)
	assert.NoError(t, c.Close())
}
