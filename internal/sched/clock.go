package sched

import "sync/atomic"

// Clock hands out logical sequence numbers, starting at 1.
//
// Manual uses it to break ties between timers due at the same instant, and
// sessions stamp their events with it, so ordering never depends on
// wall-clock resolution. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last number handed out, 0 before the first Next.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
