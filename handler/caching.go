package handler

import (
	"context"
	"time"

	"github.com/cyberinferno/sortnet/cacher"
	"github.com/cyberinferno/sortnet/logger"
)

type cachingHandler struct {
	next  Handler
	cache cacher.Cacher[string]
	ttl   time.Duration
	log   logger.Logger
}

// Caching memoizes next's responses keyed by the exact request text. It is
// only valid for deterministic handlers. Cache failures are logged and the
// request is served by next directly.
//
// Parameters:
//   - next: The handler whose responses are cached
//   - cache: Backend storing responses
//   - ttl: Lifetime of a cached response
//   - log: Logger for cache failures
//
// Returns:
//   - A Handler with the same responses as next
func Caching(next Handler, cache cacher.Cacher[string], ttl time.Duration, log logger.Logger) Handler {
	return &cachingHandler{next: next, cache: cache, ttl: ttl, log: log}
}

func (h *cachingHandler) Process(request string) string {
	resp, err := h.cache.GetOrFetch(context.Background(), request, h.ttl, func(ctx context.Context) (string, error) {
		return h.next.Process(request), nil
	})
	if err != nil {
		h.log.Warn("response cache unavailable", logger.Err(err))
		return h.next.Process(request)
	}

	return resp
}
