package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/demand"
	"github.com/roach88/ticketwar/internal/policy"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Session is one player's reservation run.
//
// CRITICAL: not safe for concurrent use. Public methods and timer callbacks
// must all run on the goroutine that owns the Scheduler (see package doc).
//
// INVARIANTS:
//   - selection never contains a seat that was taken when it was toggled in
//   - every timer handle lives next to the state it mutates and is stopped
//     before it is replaced
//   - at most one attempt is in flight
type Session struct {
	id     string
	cfg    config.Config
	world  *seatmap.World
	demand *demand.Signal
	sched  sched.Scheduler
	clock  *sched.Clock
	logger *slog.Logger

	// Randomness is split so a scripted dice source only sees decisions:
	// token outcome, roll, steal gate, steal fraction and shuffle.
	dice   random.Source
	crowd  random.Source
	timing random.Source

	limiter *policy.RateLimiter
	budget  *policy.Budget
	curve   policy.CooldownCurve

	recorder  Recorder
	listeners []Listener

	state       State
	dateID      string
	selection   []seatmap.SeatID
	confirmed   []seatmap.SeatID
	attempts    int
	consecutive int
	inFlight    bool
	last        Result

	cooldown      int
	cooldownTimer sched.Timer
	hold          int
	holdTimer     sched.Timer
	tokenTimer    sched.Timer
}

// Option configures a Session.
type Option func(*options)

type options struct {
	sched     sched.Scheduler
	world     random.Source
	demand    random.Source
	dice      random.Source
	crowd     random.Source
	ids       IDGenerator
	logger    *slog.Logger
	recorder  Recorder
	listeners []Listener
}

// WithScheduler sets the scheduler every timer runs on.
// Default: a fresh sched.Manual.
func WithScheduler(s sched.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

// WithRandom uses src for every draw: occupancy, demand, dice and crowd.
func WithRandom(src random.Source) Option {
	return func(o *options) {
		o.world, o.demand, o.dice, o.crowd = src, src, src, src
	}
}

// WithDice sets the source for attempt decisions only.
// Tests script it to force wins, losses and steals.
func WithDice(src random.Source) Option {
	return func(o *options) { o.dice = src }
}

// WithCrowdSource sets the source the crowd process draws from.
func WithCrowdSource(src random.Source) Option {
	return func(o *options) { o.crowd = src }
}

// WithIDGenerator sets the session id generator.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithJournal records every final result to r.
func WithJournal(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithListener registers fn for every event. May be repeated.
func WithListener(fn Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, fn) }
}

// New creates a Session in state Idle. The demand timers are not armed
// until Start.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sched == nil {
		o.sched = sched.NewManual()
	}
	if o.ids == nil {
		o.ids = UUIDv7Generator{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	for _, src := range []*random.Source{&o.world, &o.demand, &o.dice, &o.crowd} {
		if *src == nil {
			*src = random.New()
		}
	}

	dates := make([]seatmap.Date, len(cfg.Grid.Dates))
	for i, d := range cfg.Grid.Dates {
		dates[i] = seatmap.Date{ID: d.ID, Label: d.Label}
	}
	world, err := seatmap.NewWorld(cfg.Grid.Rows, cfg.Grid.Cols, dates,
		cfg.Occupancy.PreTakenMin, cfg.Occupancy.PreTakenMax, o.world)
	if err != nil {
		return nil, fmt.Errorf("seat world: %w", err)
	}

	s := &Session{
		id:        o.ids.Generate(),
		cfg:       cfg,
		world:     world,
		sched:     o.sched,
		clock:     sched.NewClock(),
		logger:    o.logger,
		dice:      o.dice,
		crowd:     o.crowd,
		timing:    o.demand,
		limiter:   policy.NewRateLimiter(cfg.Limits.RateLimit, cfg.Limits.RateWindow()),
		budget:    policy.NewBudget(cfg.Limits.MaxAttempts),
		curve:     policy.NewCooldownCurve(cfg.Cooldown),
		recorder:  o.recorder,
		listeners: o.listeners,
	}
	s.demand = demand.New(cfg.Demand, o.demand,
		demand.WithOnTick(s.onDemandTick),
		demand.WithLogger(o.logger.With("session", s.id)))

	s.logger.Debug("session created",
		"session", s.id,
		"variant", cfg.Variant,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Rows, cfg.Grid.Cols))
	return s, nil
}

// Start arms the demand random walk and spike chain.
func (s *Session) Start() {
	s.demand.Start(s.sched)
}

// Close stops every timer the session owns.
func (s *Session) Close() {
	s.demand.Stop()
	s.stopAttemptTimers()
	s.holdTimer = sched.StopTimer(s.holdTimer)
}

// Restart returns to Idle and forgets the date, selection, confirmation,
// counters, rate-limit window, cooldown and hold.
func (s *Session) Restart() {
	s.stopAttemptTimers()
	s.holdTimer = sched.StopTimer(s.holdTimer)
	s.hold = 0
	s.resetAttemptState()
	s.limiter.Reset()
	s.state = Idle
	s.dateID = ""
	s.last = Result{}
	s.logger.Debug("session restarted", "session", s.id)
}

// stopAttemptTimers cancels the cooldown and any pending token wait.
func (s *Session) stopAttemptTimers() {
	s.cooldownTimer = sched.StopTimer(s.cooldownTimer)
	s.cooldown = 0
	s.tokenTimer = sched.StopTimer(s.tokenTimer)
	s.inFlight = false
}

func (s *Session) resetAttemptState() {
	s.selection = nil
	s.confirmed = nil
	s.attempts = 0
	s.consecutive = 0
	s.budget.Reset()
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Config returns the session configuration.
func (s *Session) Config() config.Config { return s.cfg }

// World exposes the seat world, e.g. to pin a date's layout with Seed.
func (s *Session) World() *seatmap.World { return s.world }

// Demand exposes the demand signal.
func (s *Session) Demand() *demand.Signal { return s.demand }

// Scheduler returns the scheduler the session's timers run on.
func (s *Session) Scheduler() sched.Scheduler { return s.sched }

// State returns the current state.
func (s *Session) State() State { return s.state }

// DateID returns the active date, or "" in Idle.
func (s *Session) DateID() string { return s.dateID }

// Selection returns a copy of the selected seats in selection order.
func (s *Session) Selection() []seatmap.SeatID {
	return append([]seatmap.SeatID(nil), s.selection...)
}

// Confirmed returns the seats of the last confirmed reservation.
func (s *Session) Confirmed() []seatmap.SeatID {
	return append([]seatmap.SeatID(nil), s.confirmed...)
}

// CooldownSeconds returns the remaining cooldown, 0 when the reserve action
// is enabled.
func (s *Session) CooldownSeconds() int { return s.cooldown }

// HoldSeconds returns the remaining hold countdown, 0 when none runs.
func (s *Session) HoldSeconds() int { return s.hold }

// Attempts returns how many attempts were made since the date was selected.
func (s *Session) Attempts() int { return s.attempts }

// ConsecutiveFailures returns the current failure streak.
func (s *Session) ConsecutiveFailures() int { return s.consecutive }

// RemainingAttempts returns the budget left, or -1 when unlimited.
func (s *Session) RemainingAttempts() int { return s.budget.Remaining() }

// InFlight reports whether an attempt is waiting for a queue token.
func (s *Session) InFlight() bool { return s.inFlight }

// LastResult returns the most recent final result.
func (s *Session) LastResult() Result { return s.last }

// ListDates returns the configured dates in display order.
func (s *Session) ListDates() []seatmap.Date {
	return s.world.Dates()
}

// DemandView returns the current demand projection for display.
func (s *Session) DemandView() demand.View {
	return s.demand.View()
}

// Snapshot is a read-only copy of everything a front end renders.
type Snapshot struct {
	SessionID           string           `json:"session_id" yaml:"session_id"`
	State               State            `json:"state" yaml:"state"`
	DateID              string           `json:"date_id,omitempty" yaml:"date_id,omitempty"`
	DateLabel           string           `json:"date_label,omitempty" yaml:"date_label,omitempty"`
	Selection           []seatmap.SeatID `json:"selection,omitempty" yaml:"selection,omitempty"`
	Confirmed           []seatmap.SeatID `json:"confirmed,omitempty" yaml:"confirmed,omitempty"`
	Attempts            int              `json:"attempts" yaml:"attempts"`
	RemainingAttempts   int              `json:"remaining_attempts" yaml:"remaining_attempts"`
	ConsecutiveFailures int              `json:"consecutive_failures" yaml:"consecutive_failures"`
	CooldownSeconds     int              `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	HoldSeconds         int              `json:"hold_seconds" yaml:"hold_seconds"`
	InFlight            bool             `json:"in_flight" yaml:"in_flight"`
	Demand              demand.View      `json:"demand" yaml:"demand"`
	LastResult          Result           `json:"last_result" yaml:"last_result"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:           s.id,
		State:               s.state,
		DateID:              s.dateID,
		Selection:           s.Selection(),
		Confirmed:           s.Confirmed(),
		Attempts:            s.attempts,
		RemainingAttempts:   s.budget.Remaining(),
		ConsecutiveFailures: s.consecutive,
		CooldownSeconds:     s.cooldown,
		HoldSeconds:         s.hold,
		InFlight:            s.inFlight,
		Demand:              s.demand.View(),
		LastResult:          s.last,
	}
	if s.dateID != "" {
		snap.DateLabel = s.cfg.DateLabel(s.dateID)
	}
	return snap
}
