package cacher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RedisCacher stores JSON-encoded values in Redis under a key prefix, so
// several sortnet instances can share responses. Misses are collapsed per
// process with singleflight; Clear and ItemCount only touch prefixed keys.
type RedisCacher[T any] struct {
	client *redis.Client
	prefix string
	group  singleflight.Group
}

// NewRedisCacher wraps an existing client.
//
// Parameters:
//   - client: A connected go-redis client; Close closes it
//   - prefix: Namespace prepended to every key (e.g. "sortnet:")
//
// Returns:
//   - A new RedisCacher
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	responses := NewRedisCacher[string](client, "sortnet:")
func NewRedisCacher[T any](client *redis.Client, prefix string) *RedisCacher[T] {
	return &RedisCacher[T]{client: client, prefix: prefix}
}

// GetOrFetch implements Cacher.
func (c *RedisCacher[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc[T]) (T, error) {
	var zero T
	full := c.prefix + key

	v, found, err := c.get(ctx, full)
	if err != nil {
		return zero, err
	}
	if found {
		return v, nil
	}

	res, err, _ := c.group.Do(full, func() (any, error) {
		fetched, err := fetchFn(ctx)
		if err != nil {
			return zero, err
		}

		data, err := json.Marshal(fetched)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal result: %w", err)
		}

		if err := c.client.Set(ctx, full, data, ttl).Err(); err != nil {
			return zero, fmt.Errorf("failed to cache result: %w", err)
		}

		return fetched, nil
	})
	if err != nil {
		return zero, err
	}

	return res.(T), nil
}

func (c *RedisCacher[T]) get(ctx context.Context, key string) (T, bool, error) {
	var result T
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return result, true, nil
}

// Delete implements Cacher.
func (c *RedisCacher[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Clear implements Cacher. Only keys under the prefix are removed.
func (c *RedisCacher[T]) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	return nil
}

// ItemCount implements Cacher.
func (c *RedisCacher[T]) ItemCount(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	return len(keys), err
}

func (c *RedisCacher[T]) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	return keys, nil
}

// Close implements Cacher.
func (c *RedisCacher[T]) Close() error {
	return c.client.Close()
}
