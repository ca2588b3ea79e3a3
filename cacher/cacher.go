// Package cacher provides read-through caches used to memoize handler
// responses. Implementations collapse concurrent misses for the same key
// into a single fetch.
package cacher

import (
	"context"
	"time"
)

// FetchFunc produces the value for a key on a cache miss.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cacher is a read-through cache keyed by string.
type Cacher[T any] interface {
	// GetOrFetch returns the cached value for key, or calls fetchFn, stores
	// its result for ttl and returns it. Fetch errors are returned and
	// nothing is stored.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key to retrieve or set
	//   - ttl: Time-to-live duration for a freshly fetched value
	//   - fetchFn: Function to fetch the value if not in cache
	//
	// Returns:
	//   - The cached or fetched value of type T
	//   - An error if retrieval or fetching fails
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc[T]) (T, error)

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes every item owned by this cache.
	Clear(ctx context.Context) error

	// ItemCount returns the number of items owned by this cache.
	ItemCount(ctx context.Context) (int, error)

	// Close releases connections held by the cache.
	Close() error
}
