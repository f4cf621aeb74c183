// Package entropy provides the seeded random source and ID generation shared
// by simulation systems. Both are context-scoped rather than process-global
// so runs are reproducible seed-for-seed and tests can run in parallel.
package entropy

import "math/rand"

// Source wraps a deterministic PRNG and a monotonic ID counter.
type Source struct {
	rng    *rand.Rand
	nextID uint64
}

// NewSource creates a source from a seed. The same seed always yields the
// same stream.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed)), nextID: 1}
}

// Float returns a random float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Intn returns a random int in [0, n). n must be positive.
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// Chance returns true with probability p.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// NextID returns a fresh entity ID. IDs are unique across all entity kinds
// within one source.
func (s *Source) NextID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// PeekNextID returns the next ID without allocating it. Used when saving so
// a resumed run continues the same sequence.
func (s *Source) PeekNextID() uint64 {
	return s.nextID
}

// SetNextID bumps the counter to at least n. Used when resuming from a saved
// world so new IDs stay above everything already allocated.
func (s *Source) SetNextID(n uint64) {
	if n > s.nextID {
		s.nextID = n
	}
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are excluded. Returns -1 when no weight is positive.
func (s *Source) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := s.rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i
		}
	}
	// Float rounding can leave roll at exactly 0 after the loop.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}
