package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/demand"
	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
	"github.com/roach88/ticketwar/internal/testutil"
)

const defaultFallbackRoll = 0.5

// Harness executes one scenario.
type Harness struct {
	session *engine.Session
	clock   *sched.Manual
	seq     *sched.Clock
	start   time.Time
	result  *Result

	// pending is set while a queued attempt's expect waits for its result.
	pending *pendingExpect
}

type pendingExpect struct {
	step   int
	expect *Expect
}

// Run executes a scenario against a fresh session and returns the result.
//
// A broken scenario (bad config, seeds outside the grid) is an error; a
// failed expectation or assertion is reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, err
	}

	fallback := defaultFallbackRoll
	if scenario.FallbackRoll != nil {
		fallback = *scenario.FallbackRoll
	}

	h := &Harness{
		clock:  sched.NewManual(),
		seq:    sched.NewClock(),
		result: NewResult(),
	}
	h.start = h.clock.Now()

	s, err := engine.New(cfg,
		engine.WithScheduler(h.clock),
		engine.WithRandom(random.NewSeeded(scenario.Seed)),
		engine.WithDice(testutil.NewSequenceSource(fallback, scenario.Rolls...)),
		engine.WithIDGenerator(testutil.NewFixedSessionGenerator(scenario.SessionID)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithListener(h.onEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer s.Close()
	h.session = s
	h.result.SessionID = s.ID()

	for _, date := range sortedKeys(scenario.Taken) {
		if err := s.World().Seed(date, scenario.Taken[date]); err != nil {
			return nil, fmt.Errorf("failed to seed taken seats: %w", err)
		}
	}
	if scenario.Demand != nil {
		s.Demand().Force(demand.Snapshot{
			Concurrency: scenario.Demand.Concurrency,
			SpikeActive: scenario.Demand.Spike,
		})
	}
	if scenario.StartDemand {
		s.Start()
	}

	for i, step := range scenario.Steps {
		h.execute(i, step)
	}
	if h.pending != nil {
		h.result.AddError(fmt.Sprintf("steps[%d]: queued attempt never resolved", h.pending.step))
	}

	h.result.Final = FinalState{
		State:           s.State(),
		DateID:          s.DateID(),
		Selection:       s.Selection(),
		Confirmed:       s.Confirmed(),
		Attempts:        s.Attempts(),
		CooldownSeconds: s.CooldownSeconds(),
	}
	for _, msg := range EvaluateAssertions(h.result, s, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// scenarioConfig applies the scenario's overrides to its variant preset.
func scenarioConfig(scenario *Scenario) (config.Config, error) {
	variant := scenario.Variant
	if variant == "" {
		variant = config.VariantNormal
	}
	if scenario.Config.Kind == 0 {
		cfg, err := config.Preset(variant)
		if err != nil {
			return config.Config{}, err
		}
		return cfg, cfg.Validate()
	}

	data, err := yaml.Marshal(&scenario.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to encode config overrides: %w", err)
	}
	cfg, err := config.Parse(scenario.Name+".yaml", data, variant)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid config overrides: %w", err)
	}
	return cfg, nil
}

func (h *Harness) execute(i int, step Step) {
	ev := TraceEvent{Type: TraceStep, Step: step.Do}
	s := h.session

	switch step.Do {
	case StepSelectDate:
		ev.Date = step.Date
		h.trace(ev)
		if err := s.SelectDate(step.Date); err != nil {
			h.trace(TraceEvent{Type: TraceReturned, Error: err.Error()})
		}

	case StepToggle:
		ev.Seats = step.Seats
		h.trace(ev)
		for _, id := range step.Seats {
			if _, err := s.ToggleSeat(id); err != nil {
				h.trace(TraceEvent{Type: TraceReturned, Seat: id, Error: err.Error()})
			}
		}

	case StepClear:
		h.trace(ev)
		s.ClearSelection()

	case StepRestart:
		h.trace(ev)
		s.Restart()

	case StepAdvance:
		d, _ := time.ParseDuration(step.Duration)
		ev.Duration = d.String()
		h.trace(ev)
		h.clock.Advance(d)

	case StepAttempt:
		h.trace(ev)
		if h.pending != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: previous queued attempt (steps[%d]) still unresolved",
				i, h.pending.step))
			h.pending = nil
		}
		r := s.AttemptReserve()
		if !r.Final() {
			h.trace(TraceEvent{Type: TraceReturned, Kind: r.Kind, Cooldown: r.CooldownSeconds})
		}
		if step.Expect == nil {
			return
		}
		if r.Kind == engine.KindPending && step.Expect.Kind != engine.KindPending {
			h.pending = &pendingExpect{step: i, expect: step.Expect}
			return
		}
		h.check(i, step.Expect, r)
	}
}

func (h *Harness) onEvent(ev engine.Event) {
	t := TraceEvent{Type: string(ev.Type), Date: ev.DateID}
	switch ev.Type {
	case engine.EventCountdown, engine.EventDemand:
		return
	case engine.EventCrowdGrab:
		t.Seat = ev.Seat
	case engine.EventResult:
		r := *ev.Result
		h.result.Results = append(h.result.Results, r)
		t.Kind = r.Kind
		t.Reason = r.Reason
		t.Seats = r.Seats
		t.Stolen = r.Stolen
		t.Cooldown = r.CooldownSeconds
		t.Message = r.Message()
		if h.pending != nil {
			h.check(h.pending.step, h.pending.expect, r)
			h.pending = nil
		}
	}
	h.trace(t)
}

func (h *Harness) trace(ev TraceEvent) {
	ev.Seq = h.seq.Next()
	ev.At = h.clock.Now().Sub(h.start).String()
	h.result.Trace = append(h.result.Trace, ev)
}

// check compares r with an expect clause.
func (h *Harness) check(step int, want *Expect, r engine.Result) {
	fail := func(field string, want, got any) {
		h.result.AddError(fmt.Sprintf("steps[%d].expect.%s: want %v, got %v", step, field, want, got))
	}
	if r.Kind != want.Kind {
		fail("kind", want.Kind, r.Kind)
	}
	if want.Reason != "" && r.Reason != want.Reason {
		fail("reason", want.Reason, r.Reason)
	}
	if want.Seats != nil && !slices.Equal(r.Seats, want.Seats) {
		fail("seats", want.Seats, r.Seats)
	}
	if want.Stolen != nil && !slices.Equal(r.Stolen, want.Stolen) {
		fail("stolen", want.Stolen, r.Stolen)
	}
	if want.Cooldown != nil && r.CooldownSeconds != *want.Cooldown {
		fail("cooldown", *want.Cooldown, r.CooldownSeconds)
	}
	if want.Message != "" && r.Message() != want.Message {
		fail("message", want.Message, r.Message())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
