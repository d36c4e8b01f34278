package testutil

import "sync"

// ConstSource returns the same draw forever.
//
// 0 wins every roll and always triggers gated steals; values close to 1 lose
// every roll. Shuffles under a constant source are deterministic.
type ConstSource float64

// Float64 implements random.Source.
func (c ConstSource) Float64() float64 {
	return float64(c)
}

// SequenceSource replays a scripted list of draws, then falls back to a
// constant once the script is exhausted.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequenceSource struct {
	mu       sync.Mutex
	values   []float64
	idx      int
	fallback float64
}

// NewSequenceSource creates a source that yields values in order, then fallback.
func NewSequenceSource(fallback float64, values ...float64) *SequenceSource {
	return &SequenceSource{values: values, fallback: fallback}
}

// Float64 implements random.Source.
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.values) {
		return s.fallback
	}
	v := s.values[s.idx]
	s.idx++
	return v
}

// Push appends more scripted draws.
func (s *SequenceSource) Push(values ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, values...)
}

// Consumed returns how many scripted values have been drawn.
func (s *SequenceSource) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}
