// Package idgenerator hands out connection identifiers.
package idgenerator

import "sync/atomic"

// IdGenerator returns increasing uint32 IDs and is safe for concurrent use.
// Zero is never returned, so it can mean "no connection"; after the counter
// wraps the sequence continues at 1.
type IdGenerator struct {
	last atomic.Uint32
}

// NewIdGenerator returns a generator whose first ID is start+1.
//
// Parameters:
//   - start: The value preceding the first ID
//
// Returns:
//   - A new IdGenerator
func NewIdGenerator(start uint32) *IdGenerator {
	gen := &IdGenerator{}
	gen.last.Store(start)
	return gen
}

// Id returns the next ID, skipping zero.
func (g *IdGenerator) Id() uint32 {
	for {
		if id := g.last.Add(1); id != 0 {
			return id
		}
	}
}

// Last returns the most recently issued ID, or the start value when none
// has been issued yet.
func (g *IdGenerator) Last() uint32 {
	return g.last.Load()
}
