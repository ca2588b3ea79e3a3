package safemap

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conn struct {
	peer string
}

func TestNewSafeMap(t *testing.T) {
	m := NewSafeMap[uint32, *conn]()
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Values())
}

func TestSafeMap_StoreLoadDelete(t *testing.T) {
	m := NewSafeMap[uint32, *conn]()
	a := &conn{peer: "127.0.0.1:5000"}

	t.Run("store then load", func(t *testing.T) {
		m.Store(1, a)
		got, ok := m.Load(1)
		require.True(t, ok)
		assert.Same(t, a, got)
		assert.True(t, m.Has(1))
		assert.Equal(t, 1, m.Len())
	})

	t.Run("overwrite", func(t *testing.T) {
		b := &conn{peer: "127.0.0.1:5001"}
		m.Store(1, b)
		got, _ := m.Load(1)
		assert.Same(t, b, got)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("missing key", func(t *testing.T) {
		got, ok := m.Load(99)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		m.Delete(1)
		m.Delete(1)
		assert.False(t, m.Has(1))
		assert.Equal(t, 0, m.Len())
	})

	t.Run("load and delete", func(t *testing.T) {
		m.Store(2, a)
		got, ok := m.LoadAndDelete(2)
		assert.True(t, ok)
		assert.Same(t, a, got)

		_, ok = m.LoadAndDelete(2)
		assert.False(t, ok)
	})
}

func TestSafeMap_Range(t *testing.T) {
	m := NewSafeMap[uint32, string]()
	for i := uint32(1); i <= 5; i++ {
		m.Store(i, "peer")
	}

	t.Run("visits every entry", func(t *testing.T) {
		var keys []int
		m.Range(func(k uint32, _ string) bool {
			keys = append(keys, int(k))
			return true
		})
		sort.Ints(keys)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, keys)
	})

	t.Run("stops early", func(t *testing.T) {
		n := 0
		m.Range(func(uint32, string) bool {
			n++
			return n < 2
		})
		assert.Equal(t, 2, n)
	})

	t.Run("callback may delete", func(t *testing.T) {
		m.Range(func(k uint32, _ string) bool {
			m.Delete(k)
			return true
		})
		assert.Equal(t, 0, m.Len())
	})
}

func TestSafeMap_Concurrent(t *testing.T) {
	m := NewSafeMap[uint32, int]()
	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := uint32(w*perWorker + i)
				m.Store(id, i)
				_ = m.Len()
				m.Range(func(uint32, int) bool { return false })
				if i%2 == 0 {
					m.Delete(id)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker/2, m.Len())
	assert.Len(t, m.Values(), workers*perWorker/2)
}
