package handler

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/sortnet/cacher"
	"github.com/cyberinferno/sortnet/logger"
	"github.com/cyberinferno/sortnet/value"
)

func bufferLogger(t *testing.T) (logger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logger.New(logger.Options{Service: "test", Level: zerolog.DebugLevel, Out: &buf})
	require.NoError(t, err)
	return l, &buf
}

func TestEcho(t *testing.T) {
	h := Echo()
	for _, in := range []string{"hello", "3 1 2", "ünïcode text", "x"} {
		assert.Equal(t, "Echo: "+in, h.Process(in))
	}
}

func TestHandlerFunc(t *testing.T) {
	h := HandlerFunc(strings.ToUpper)
	assert.Equal(t, "ABC", h.Process("abc"))
}

func TestSorting(t *testing.T) {
	h := DefaultSorting(logger.Nop())

	t.Run("sorts integers", func(t *testing.T) {
		assert.Equal(t, "1 2 3", h.Process("3 1 2"))
	})

	t.Run("sorts words", func(t *testing.T) {
		assert.Equal(t, "apple zebra", h.Process("zebra apple"))
	})

	t.Run("keeps float text form", func(t *testing.T) {
		assert.Equal(t, "1.0 2 3.5", h.Process("3.5 2 1.0"))
	})

	t.Run("large integers keep every digit", func(t *testing.T) {
		assert.Equal(t, "1 100000000000000000000", h.Process("100000000000000000000 1"))
		assert.Equal(t, "12345678901234567890 12345678901234567891",
			h.Process("12345678901234567891 12345678901234567890"))
	})

	t.Run("digit separators are numbers", func(t *testing.T) {
		assert.Equal(t, "5 1000", h.Process("1_000 5"))
		assert.Equal(t, "2 3 10.5", h.Process("3 1_0.5 2"))
	})

	t.Run("no tokens yields no data error", func(t *testing.T) {
		assert.Equal(t, NoDataResponse, h.Process(""))
		assert.Equal(t, NoDataResponse, h.Process("  \t "))
	})

	t.Run("response re-parses to independently sorted sequence", func(t *testing.T) {
		in := "10 -4 7 7 0 99 -100"
		want, err := value.Sort(value.Parse(in), false)
		require.NoError(t, err)
		assert.Equal(t, want, value.Parse(h.Process(in)))
	})

	t.Run("sorting sorted output is idempotent", func(t *testing.T) {
		once := h.Process("delta alpha charlie bravo")
		assert.Equal(t, once, h.Process(once))
	})
}

func TestSorting_MixedTypes(t *testing.T) {
	log, buf := bufferLogger(t)
	h := DefaultSorting(log)

	assert.Equal(t, "3.14 42 apple 1.41", h.Process("3.14 42 apple 1.41"))
	assert.Contains(t, buf.String(), "unable to sort mixed incompatible types")
}

func TestSorting_EmptyParseResult(t *testing.T) {
	dropAll := func(string) []value.Value { return nil }
	h := Sorting(dropAll, Ascending, logger.Nop())
	assert.Equal(t, "Error: No valid data to sort", h.Process("anything at all"))
}

func TestSorting_RecoversPanics(t *testing.T) {
	boom := func([]value.Value) ([]value.Value, error) { panic("boom") }
	h := Sorting(value.Parse, boom, logger.Nop())
	assert.Equal(t, "Error processing data: boom", h.Process("1 2"))
}

func TestSorting_NilResultOnError(t *testing.T) {
	broken := func([]value.Value) ([]value.Value, error) { return nil, assert.AnError }
	h := Sorting(value.Parse, broken, logger.Nop())
	assert.Equal(t, "2 1", h.Process("2 1"))
}

func TestDescending(t *testing.T) {
	h := Sorting(value.Parse, Descending, logger.Nop())
	assert.Equal(t, "3 2 1", h.Process("1 3 2"))
}

type failingCacher struct{ cacher.Cacher[string] }

func (failingCacher) GetOrFetch(context.Context, string, time.Duration, cacher.FetchFunc[string]) (string, error) {
	return "", assert.AnError
}

func TestCaching(t *testing.T) {
	var calls int32
	counting := HandlerFunc(func(request string) string {
		atomic.AddInt32(&calls, 1)
		return "sorted:" + request
	})

	t.Run("second identical request is served from cache", func(t *testing.T) {
		c := cacher.NewMemoryCacher[string](cache.NoExpiration, time.Minute)
		h := Caching(counting, c, time.Minute, logger.Nop())

		assert.Equal(t, "sorted:3 1 2", h.Process("3 1 2"))
		assert.Equal(t, "sorted:3 1 2", h.Process("3 1 2"))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

		assert.Equal(t, "sorted:b a", h.Process("b a"))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("cache failure falls through to next", func(t *testing.T) {
		log, buf := bufferLogger(t)
		h := Caching(counting, failingCacher{}, time.Minute, log)
		assert.Equal(t, "sorted:x", h.Process("x"))
		assert.Contains(t, buf.String(), "response cache unavailable")
	})
}

func TestTimed(t *testing.T) {
	log, buf := bufferLogger(t)
	h := Timed(DefaultSorting(logger.Nop()), log)

	assert.Equal(t, "1 2", h.Process("2 1"))
	assert.Contains(t, buf.String(), "request processed")
	assert.Contains(t, buf.String(), `"outcome":"ok"`)

	buf.Reset()
	assert.Equal(t, NoDataResponse, h.Process(" "))
	assert.Contains(t, buf.String(), `"outcome":"error"`)
}
