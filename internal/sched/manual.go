package sched

import (
	"container/heap"
	"sync"
	"time"
)

// Epoch is the default start time of a Manual scheduler.
var Epoch = time.Date(2025, time.December, 1, 19, 0, 0, 0, time.UTC)

// Manual is a virtual-time Scheduler.
//
// Time only moves when Advance is called. Callbacks run on the goroutine
// calling Advance, one at a time, with the clock set to their due time.
// A callback may schedule or stop other timers, including itself.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	clock   *Clock
	pending timerHeap
}

// NewManual creates a Manual scheduler starting at Epoch.
func NewManual() *Manual {
	return NewManualAt(Epoch)
}

// NewManualAt creates a Manual scheduler starting at start.
func NewManualAt(start time.Time) *Manual {
	return &Manual{now: start, clock: NewClock()}
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	return m.schedule(d, 0, fn)
}

// Every implements Scheduler.
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		panic("sched: Every requires a positive period")
	}
	return m.schedule(d, d, fn)
}

func (m *Manual) schedule(d, period time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t := &manualTimer{
		m:      m,
		due:    m.now.Add(d),
		seq:    m.clock.Next(),
		period: period,
		fn:     fn,
	}
	heap.Push(&m.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every callback due on the way.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	m.AdvanceTo(target)
}

// AdvanceTo moves the clock to target, firing every callback due at or
// before it. Moving backwards is a no-op.
func (m *Manual) AdvanceTo(target time.Time) {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 || m.pending[0].due.After(target) {
			if target.After(m.now) {
				m.now = target
			}
			m.mu.Unlock()
			return
		}
		t := heap.Pop(&m.pending).(*manualTimer)
		if t.due.After(m.now) {
			m.now = t.due
		}
		if t.period > 0 {
			// Re-arm before running so the callback can stop its own timer.
			t.due = t.due.Add(t.period)
			t.seq = m.clock.Next()
			heap.Push(&m.pending, t)
		} else {
			t.fired = true
		}
		fn := t.fn
		m.mu.Unlock()

		fn()
	}
}

// NextDue returns the due time of the earliest pending callback.
func (m *Manual) NextDue() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return time.Time{}, false
	}
	return m.pending[0].due, true
}

// Pending returns the number of scheduled callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

type manualTimer struct {
	m       *Manual
	due     time.Time
	seq     int64
	period  time.Duration
	fn      func()
	index   int
	fired   bool
	stopped bool
}

// Stop implements Timer.
func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	if t.index >= 0 && t.index < len(t.m.pending) && t.m.pending[t.index] == t {
		heap.Remove(&t.m.pending, t.index)
	}
	return true
}

// timerHeap orders timers by due time, then by logical sequence.
type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
