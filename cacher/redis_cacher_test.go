package cacher

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Cacher[string] = (*RedisCacher[string])(nil)

// newTestRedis connects to a local Redis on DB 1 and skips when none answers.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available, skipping redis cacher tests")
	}

	return client
}

func TestRedisCacher(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	c := NewRedisCacher[string](client, "sortnet-test:")
	t.Cleanup(func() {
		_ = c.Clear(ctx)
		_ = c.Close()
	})
	require.NoError(t, c.Clear(ctx))

	t.Run("miss then hit", func(t *testing.T) {
		calls := 0
		fetch := func(ctx context.Context) (string, error) {
			calls++
			return "apple zebra", nil
		}

		v, err := c.GetOrFetch(ctx, "zebra apple", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "apple zebra", v)

		v, err = c.GetOrFetch(ctx, "zebra apple", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, "apple zebra", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are namespaced", func(t *testing.T) {
		exists, err := client.Exists(ctx, "sortnet-test:zebra apple").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		n, err := c.ItemCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("fetch error is not cached", func(t *testing.T) {
		_, err := c.GetOrFetch(ctx, "bad", time.Minute, func(ctx context.Context) (string, error) {
			return "", assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("delete and clear", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, "zebra apple"))
		n, err := c.ItemCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}
