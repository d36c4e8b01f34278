// Package random provides the uniform draws every stochastic decision in the
// game goes through.
//
// All helpers consume a Source that only needs Float64. Production code uses a
// PCG generator seeded from the runtime; tests substitute a scripted Source so
// each roll, steal fraction and shuffle is pinned.
//
// Sources are not safe for concurrent use. The engine's single-writer model
// means only one goroutine ever draws from a given Source.
package random

import (
	"math/rand/v2"
)

// Source yields uniform values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// New returns a PCG source seeded from the runtime's non-deterministic seed.
func New() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeeded returns a reproducible PCG source.
// Used by `ticketwar simulate --seed` to replay a run.
func NewSeeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Range draws uniformly from [a, b).
func Range(src Source, a, b float64) float64 {
	return a + src.Float64()*(b-a)
}

// IntRange draws an integer uniformly from [a, b).
// Returns a when b <= a.
func IntRange(src Source, a, b int) int {
	if b <= a {
		return a
	}
	n := a + int(src.Float64()*float64(b-a))
	if n >= b {
		// Guards scripted sources that return exactly 1.0.
		n = b - 1
	}
	return n
}

// Chance reports true with probability p.
// p <= 0 never fires and p >= 1 always fires.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

// Sign returns -1 or +1 with equal probability.
func Sign(src Source) int {
	if src.Float64() < 0.5 {
		return -1
	}
	return 1
}

// Shuffle permutes items in place with Fisher-Yates.
// Every permutation is equally likely for a uniform Source.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := IntRange(src, 0, i+1)
		items[i], items[j] = items[j], items[i]
	}
}
