package cacher

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// MemoryCacher keeps values in process memory using go-cache. Concurrent
// misses for one key share a single fetch through singleflight.
type MemoryCacher[T any] struct {
	cache *cache.Cache
	group singleflight.Group
}

// NewMemoryCacher creates an in-memory cache.
//
// Parameters:
//   - defaultExpiration: TTL used when GetOrFetch is called with ttl 0
//   - cleanupInterval: How often expired items are purged
//
// Returns:
//   - A new MemoryCacher
func NewMemoryCacher[T any](defaultExpiration, cleanupInterval time.Duration) *MemoryCacher[T] {
	return &MemoryCacher[T]{cache: cache.New(defaultExpiration, cleanupInterval)}
}

// GetOrFetch implements Cacher.
func (c *MemoryCacher[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc[T]) (T, error) {
	var zero T

	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// another caller may have filled the key while we waited on the group
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		v, err := fetchFn(ctx)
		if err != nil {
			return zero, err
		}

		if ttl == 0 {
			ttl = cache.DefaultExpiration
		}

		c.cache.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return zero, err
	}

	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected type in cache for key %s", key)
	}

	return v, nil
}

func (c *MemoryCacher[T]) lookup(key string) (T, bool) {
	var zero T
	raw, found := c.cache.Get(key)
	if !found {
		return zero, false
	}

	v, ok := raw.(T)
	return v, ok
}

// Delete implements Cacher.
func (c *MemoryCacher[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.cache.Delete(key)
	return nil
}

// Clear implements Cacher.
func (c *MemoryCacher[T]) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.cache.Flush()
	return nil
}

// ItemCount implements Cacher.
func (c *MemoryCacher[T]) ItemCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return c.cache.ItemCount(), nil
}

// Close implements Cacher.
func (c *MemoryCacher[T]) Close() error {
	return nil
}
