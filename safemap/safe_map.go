// Package safemap provides a generic map guarded by a read-write mutex. The
// server uses it as the registry of live connections keyed by connection ID.
package safemap

import "sync"

// SafeMap is a map safe for concurrent use. Len is O(1), which keeps
// frequent active-connection queries cheap.
//
// SafeMap must not be copied after first use.
type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewSafeMap returns an empty SafeMap.
func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{m: make(map[K]V)}
}

// Store sets the value for k, replacing any previous value.
func (m *SafeMap[K, V]) Store(k K, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[k] = v
}

// Load returns the value for k and whether it was present.
//
// Parameters:
//   - k: The key to look up
//
// Returns:
//   - The stored value, or the zero value of V when absent
//   - true if k was present
func (m *SafeMap[K, V]) Load(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

// Delete removes k. Deleting a missing key is a no-op.
func (m *SafeMap[K, V]) Delete(k K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, k)
}

// LoadAndDelete removes k and returns the value it held.
func (m *SafeMap[K, V]) LoadAndDelete(k K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[k]
	if ok {
		delete(m.m, k)
	}
	return v, ok
}

// Has reports whether k is present.
func (m *SafeMap[K, V]) Has(k K) bool {
	_, ok := m.Load(k)
	return ok
}

// Len returns the number of entries.
func (m *SafeMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.m)
}

// Values returns a snapshot of the stored values in no particular order.
func (m *SafeMap[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]V, 0, len(m.m))
	for _, v := range m.m {
		out = append(out, v)
	}
	return out
}

// Range calls f for each entry of a snapshot taken before the first call,
// stopping early when f returns false. f may modify the map.
//
// Parameters:
//   - f: Called with each key and value; return false to stop
func (m *SafeMap[K, V]) Range(f func(k K, v V) bool) {
	m.mu.RLock()
	keys := make([]K, 0, len(m.m))
	vals := make([]V, 0, len(m.m))
	for k, v := range m.m {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	m.mu.RUnlock()

	for i := range keys {
		if !f(keys[i], vals[i]) {
			return
		}
	}
}
