package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned by Do once the loop has been stopped.
var ErrStopped = errors.New("scheduler loop stopped")

// Loop is the wall-clock Scheduler.
//
// Timer callbacks and posted tasks all execute on the goroutine running Run,
// in FIFO order. That goroutine is the only writer of session state.
//
// Thread-safety model:
//   - Post(), Do(), AfterFunc(), Every(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Loop struct {
	queue  *taskQueue
	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger sets the logger for start and stop lines. Default: slog.Default().
func WithLogger(l *slog.Logger) LoopOption {
	return func(lp *Loop) { lp.logger = l }
}

// NewLoop creates a stopped loop; call Run to start draining it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{queue: newTaskQueue(), logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn for the loop goroutine.
// Returns false if the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	return l.queue.Enqueue(fn)
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc implements Scheduler.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			t.fired.Store(true)
			fn()
		})
	})
	return t
}

// Every implements Scheduler.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		panic("sched: Every requires a positive period")
	}
	t := &loopTimer{}
	var arm func()
	arm = func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.stopped.Load() {
			return
		}
		t.timer = time.AfterFunc(d, func() {
			l.Post(func() {
				if t.stopped.Load() {
					return
				}
				arm()
				fn()
			})
		})
	}
	arm()
	return t
}

// Run drains the queue until ctx is cancelled or Stop is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("scheduler loop starting")

	for {
		if fn, ok := l.queue.TryDequeue(); ok {
			fn()
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("scheduler loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			// The signal channel is closed by Stop, so a drained queue
			// means shutdown rather than a coalesced wake-up.
			if l.queue.Drained() {
				l.logger.Debug("scheduler loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run returns once the queued tasks have executed.
func (l *Loop) Stop() {
	l.queue.Close()
}

type loopTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

// Stop implements Timer.
func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	return !t.fired.Load()
}
