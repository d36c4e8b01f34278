package sched

import "time"

// Scheduler runs deferred and periodic callbacks for one session.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer

	// Every runs fn every d until the returned Timer is stopped.
	// The first run is d from now.
	Every(d time.Duration, fn func()) Timer
}

// Timer cancels a pending callback.
type Timer interface {
	// Stop prevents future runs. It reports whether this call stopped a
	// timer that had not yet fired; stopping twice returns false.
	Stop() bool
}

// StopTimer stops t if it is non-nil. Returns nil for direct assignment:
//
//	s.holdTimer = sched.StopTimer(s.holdTimer)
func StopTimer(t Timer) Timer {
	if t != nil {
		t.Stop()
	}
	return nil
}
