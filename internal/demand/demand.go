// Package demand produces the synthetic "concurrent users" signal.
//
// Two independent processes drive it: a bounded multiplicative random walk
// stepped on a fixed tick, and a spike flag that switches on for a random
// span, off for a random span, and repeats for as long as the signal runs.
// Neither reacts to the player; the engine only ever reads the current
// snapshot.
package demand

import (
	"log/slog"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
)

// Snapshot is the demand state at one instant.
type Snapshot struct {
	Concurrency int  `json:"concurrency" yaml:"concurrency"`
	SpikeActive bool `json:"spike_active" yaml:"spike_active"`
}

// View is the display projection of a Snapshot.
type View struct {
	Snapshot
	Display string `json:"display" yaml:"display"`
}

// Signal is the demand state plus the timers that evolve it.
//
// Not safe for concurrent use: all methods and every timer callback run on
// the owning session's scheduler goroutine.
type Signal struct {
	cfg     config.Demand
	src     random.Source
	printer *message.Printer
	logger  *slog.Logger

	concurrency int
	spike       bool

	tickTimer  sched.Timer
	spikeTimer sched.Timer
	onTick     func(Snapshot)
}

// Option configures a Signal.
type Option func(*Signal)

// WithOnTick registers fn to run after every random-walk step.
// The engine uses it to drive the crowd process on the same cadence.
func WithOnTick(fn func(Snapshot)) Option {
	return func(s *Signal) {
		s.onTick = fn
	}
}

// WithPrinter overrides the locale used by View.
func WithPrinter(p *message.Printer) Option {
	return func(s *Signal) {
		s.printer = p
	}
}

// WithLogger sets the logger for spike transitions. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Signal) {
		s.logger = l
	}
}

// New creates a Signal with its initial concurrency drawn from
// [ConcMin, ConcMax). The spike flag starts off.
func New(cfg config.Demand, src random.Source, opts ...Option) *Signal {
	s := &Signal{
		cfg:     cfg,
		src:     src,
		printer: message.NewPrinter(language.English),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.concurrency = random.IntRange(src, cfg.ConcMin, cfg.ConcMax)
	return s
}

// Tick advances the random walk one step: a percentage drawn from
// [StepMin, StepMax), a fair sign, floor, then clamp to [ConcMin, ConcMax].
func (s *Signal) Tick() {
	pct := random.Range(s.src, s.cfg.StepMin, s.cfg.StepMax)
	sign := float64(random.Sign(s.src))
	next := int(math.Floor(float64(s.concurrency) * (1 + sign*pct)))
	s.concurrency = clamp(next, s.cfg.ConcMin, s.cfg.ConcMax)
}

// Start arms the random-walk ticker and the spike chain on sch.
// Calling Start again first cancels the previous timers.
func (s *Signal) Start(sch sched.Scheduler) {
	s.Stop()
	s.tickTimer = sch.Every(s.cfg.Tick(), func() {
		s.Tick()
		if s.onTick != nil {
			s.onTick(s.Snapshot())
		}
	})
	s.armIdle(sch)
}

// Stop cancels both timers. The spike flag keeps its last value.
func (s *Signal) Stop() {
	s.tickTimer = sched.StopTimer(s.tickTimer)
	s.spikeTimer = sched.StopTimer(s.spikeTimer)
}

// Running reports whether Start has armed the timers.
func (s *Signal) Running() bool {
	return s.tickTimer != nil
}

func (s *Signal) armIdle(sch sched.Scheduler) {
	wait := span(s.src, s.cfg.SpikeIdleMinMS, s.cfg.SpikeIdleMaxMS)
	s.spikeTimer = sch.AfterFunc(wait, func() {
		s.spike = true
		s.logger.Debug("demand spike started", "concurrency", s.concurrency)
		s.armOn(sch)
	})
}

func (s *Signal) armOn(sch sched.Scheduler) {
	on := span(s.src, s.cfg.SpikeOnMinMS, s.cfg.SpikeOnMaxMS)
	s.spikeTimer = sch.AfterFunc(on, func() {
		s.spike = false
		s.logger.Debug("demand spike ended", "concurrency", s.concurrency)
		s.armIdle(sch)
	})
}

// Snapshot returns the current state.
func (s *Signal) Snapshot() Snapshot {
	return Snapshot{Concurrency: s.concurrency, SpikeActive: s.spike}
}

// Force overwrites the current state. Concurrency is clamped to the
// configured bounds. Scenario files use it to pin the odds.
func (s *Signal) Force(snap Snapshot) {
	s.concurrency = clamp(snap.Concurrency, s.cfg.ConcMin, s.cfg.ConcMax)
	s.spike = snap.SpikeActive
}

// View returns the current state with its display string,
// e.g. "Concurrent users: 12,345 waiting".
func (s *Signal) View() View {
	snap := s.Snapshot()
	return View{
		Snapshot: snap,
		Display:  s.printer.Sprintf("Concurrent users: %d waiting", snap.Concurrency),
	}
}

// Normalized rescales the current concurrency linearly into [0, 1] against
// [ConcMin, ConcMax].
func (s *Signal) Normalized() float64 {
	return Normalize(s.concurrency, s.cfg.ConcMin, s.cfg.ConcMax)
}

// Normalize rescales c into [0, 1] against [lo, hi].
func Normalize(c, lo, hi int) float64 {
	if hi <= lo {
		return 0
	}
	n := float64(c-lo) / float64(hi-lo)
	return math.Max(0, math.Min(1, n))
}

// span draws a duration uniformly from [minMS, maxMS] milliseconds.
func span(src random.Source, minMS, maxMS int) time.Duration {
	return time.Duration(random.IntRange(src, minMS, maxMS+1)) * time.Millisecond
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
