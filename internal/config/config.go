// Package config holds every tunable of the ticket-war simulation in one struct.
//
// Difficulty variants are presets of Config rather than separate code paths:
// the engine, the demand signal and the attempt policy read their constants
// from here and nowhere else.
//
// Files are loaded through CUE (see load.go) so YAML, JSON and CUE sources are
// checked against the same embedded schema before they are decoded over a
// preset.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Odds models accepted by Odds.Model.
const (
	// ModelSuccess starts from a base success rate and subtracts penalties.
	ModelSuccess = "success"
	// ModelFailure starts from a high base failure rate and only adds to it.
	ModelFailure = "failure"
)

// Config is the full simulation configuration.
type Config struct {
	Variant   string    `json:"variant" yaml:"variant"`
	Grid      Grid      `json:"grid" yaml:"grid"`
	Occupancy Occupancy `json:"occupancy" yaml:"occupancy"`
	Demand    Demand    `json:"demand" yaml:"demand"`
	Odds      Odds      `json:"odds" yaml:"odds"`
	Steal     Steal     `json:"steal" yaml:"steal"`
	Limits    Limits    `json:"limits" yaml:"limits"`
	Cooldown  Cooldown  `json:"cooldown" yaml:"cooldown"`
	Token     Token     `json:"token" yaml:"token"`
	Crowd     Crowd     `json:"crowd" yaml:"crowd"`
}

// Grid is the seat universe shared by every date.
type Grid struct {
	Rows  int    `json:"rows" yaml:"rows"`
	Cols  int    `json:"cols" yaml:"cols"`
	Dates []Date `json:"dates" yaml:"dates"`
}

// Date is one selectable performance date.
type Date struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Occupancy bounds the share of seats already taken when a date is first opened.
type Occupancy struct {
	PreTakenMin float64 `json:"pretaken_min" yaml:"pretaken_min"`
	PreTakenMax float64 `json:"pretaken_max" yaml:"pretaken_max"`
}

// Demand drives the synthetic "concurrent users" signal.
type Demand struct {
	ConcMin        int     `json:"conc_min" yaml:"conc_min"`
	ConcMax        int     `json:"conc_max" yaml:"conc_max"`
	TickMS         int     `json:"tick_ms" yaml:"tick_ms"`
	StepMin        float64 `json:"step_min" yaml:"step_min"`
	StepMax        float64 `json:"step_max" yaml:"step_max"`
	SpikeIdleMinMS int     `json:"spike_idle_min_ms" yaml:"spike_idle_min_ms"`
	SpikeIdleMaxMS int     `json:"spike_idle_max_ms" yaml:"spike_idle_max_ms"`
	SpikeOnMinMS   int     `json:"spike_on_min_ms" yaml:"spike_on_min_ms"`
	SpikeOnMaxMS   int     `json:"spike_on_max_ms" yaml:"spike_on_max_ms"`
}

// Tick returns the random-walk cadence.
func (d Demand) Tick() time.Duration {
	return time.Duration(d.TickMS) * time.Millisecond
}

// Odds parameterizes both probability models. Only the fields of the
// selected Model are read.
type Odds struct {
	Model string `json:"model" yaml:"model"`

	// success model
	BaseSuccess       float64 `json:"base_success" yaml:"base_success"`
	SuccessBonus      float64 `json:"success_bonus" yaml:"success_bonus"`
	MinSuccess        float64 `json:"min_success" yaml:"min_success"`
	MaxSuccess        float64 `json:"max_success" yaml:"max_success"`
	ConcurrencyWeight float64 `json:"concurrency_weight" yaml:"concurrency_weight"`
	SeatPenalty       float64 `json:"seat_penalty" yaml:"seat_penalty"`
	SeatPenaltyCap    float64 `json:"seat_penalty_cap" yaml:"seat_penalty_cap"`
	SpikePenalty      float64 `json:"spike_penalty" yaml:"spike_penalty"`

	// failure model
	BaseFailure      float64 `json:"base_failure" yaml:"base_failure"`
	MaxFailure       float64 `json:"max_failure" yaml:"max_failure"`
	FailurePerUser   float64 `json:"failure_per_user" yaml:"failure_per_user"`
	SpikeFailure     float64 `json:"spike_failure" yaml:"spike_failure"`
	SeatFailure      float64 `json:"seat_failure" yaml:"seat_failure"`
	SeatFailureCap   float64 `json:"seat_failure_cap" yaml:"seat_failure_cap"`
	StreakFailure    float64 `json:"streak_failure" yaml:"streak_failure"`
	StreakFailureCap float64 `json:"streak_failure_cap" yaml:"streak_failure_cap"`
}

// Steal controls how many selected seats are lost on a failed attempt.
// Probability 1 makes stealing unconditional.
type Steal struct {
	MinRatio    float64 `json:"min_ratio" yaml:"min_ratio"`
	MaxRatio    float64 `json:"max_ratio" yaml:"max_ratio"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Limits are the per-session attempt restrictions. Zero disables each one.
type Limits struct {
	// RateLimit is the number of attempts admitted per rolling window.
	RateLimit    int `json:"rate_limit" yaml:"rate_limit"`
	RateWindowMS int `json:"rate_window_ms" yaml:"rate_window_ms"`
	// MaxAttempts ends the session in Exhausted once reached.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
	// ChargeOverrides makes rate-limit, token and race failures consume
	// attempt budget too.
	ChargeOverrides bool `json:"charge_overrides" yaml:"charge_overrides"`
	// HoldSeconds is the countdown started when a date is selected.
	HoldSeconds int `json:"hold_seconds" yaml:"hold_seconds"`
}

// RateWindow returns the rolling window length.
func (l Limits) RateWindow() time.Duration {
	return time.Duration(l.RateWindowMS) * time.Millisecond
}

// Cooldown is the escalating lockout curve, in whole seconds.
type Cooldown struct {
	RateLimit    int `json:"rate_limit" yaml:"rate_limit"`
	TokenFailure int `json:"token_failure" yaml:"token_failure"`
	Loss         int `json:"loss" yaml:"loss"`
	Step         int `json:"step" yaml:"step"`
	Max          int `json:"max" yaml:"max"`
}

// Token simulates acquiring a queue token before the main roll.
type Token struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	DelayMinMS      int     `json:"delay_min_ms" yaml:"delay_min_ms"`
	DelayMaxMS      int     `json:"delay_max_ms" yaml:"delay_max_ms"`
	FailProbability float64 `json:"fail_probability" yaml:"fail_probability"`
}

// Crowd lets the simulated crowd grab free seats of the active date on each
// demand tick.
type Crowd struct {
	GrabProbability float64 `json:"grab_probability" yaml:"grab_probability"`
	SpikeMultiplier float64 `json:"spike_multiplier" yaml:"spike_multiplier"`
}

// ValidationError lists every rule a Config violates.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid config: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid config: %d problems: %v", len(e.Problems), e.Problems)
}

// IsValidationError returns true if err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the cross-field rules the schema cannot express.
func (c Config) Validate() error {
	var p []string
	add := func(format string, args ...any) {
		p = append(p, fmt.Sprintf(format, args...))
	}

	if c.Grid.Rows < 1 || c.Grid.Rows > 26 {
		add("grid.rows must be in [1,26], got %d", c.Grid.Rows)
	}
	if c.Grid.Cols < 1 {
		add("grid.cols must be positive, got %d", c.Grid.Cols)
	}
	if len(c.Grid.Dates) == 0 {
		add("grid.dates must not be empty")
	}
	seen := make(map[string]bool)
	for _, d := range c.Grid.Dates {
		if d.ID == "" {
			add("grid.dates: empty id")
		}
		if seen[d.ID] {
			add("grid.dates: duplicate id %q", d.ID)
		}
		seen[d.ID] = true
	}

	if c.Occupancy.PreTakenMin < 0 || c.Occupancy.PreTakenMin > c.Occupancy.PreTakenMax {
		add("occupancy: need 0 <= pretaken_min <= pretaken_max")
	}
	if c.Occupancy.PreTakenMax >= 1 {
		add("occupancy.pretaken_max must be < 1, got %v", c.Occupancy.PreTakenMax)
	}

	if c.Demand.ConcMin < 0 || c.Demand.ConcMin >= c.Demand.ConcMax {
		add("demand: need 0 <= conc_min < conc_max")
	}
	if c.Demand.TickMS <= 0 {
		add("demand.tick_ms must be positive")
	}
	if c.Demand.StepMin < 0 || c.Demand.StepMin > c.Demand.StepMax || c.Demand.StepMax >= 1 {
		add("demand: need 0 <= step_min <= step_max < 1")
	}
	if c.Demand.SpikeIdleMinMS <= 0 || c.Demand.SpikeIdleMinMS > c.Demand.SpikeIdleMaxMS {
		add("demand: need 0 < spike_idle_min_ms <= spike_idle_max_ms")
	}
	if c.Demand.SpikeOnMinMS <= 0 || c.Demand.SpikeOnMinMS > c.Demand.SpikeOnMaxMS {
		add("demand: need 0 < spike_on_min_ms <= spike_on_max_ms")
	}

	switch c.Odds.Model {
	case ModelSuccess:
		if c.Odds.MinSuccess < 0 || c.Odds.MinSuccess > c.Odds.MaxSuccess || c.Odds.MaxSuccess > 1 {
			add("odds: need 0 <= min_success <= max_success <= 1")
		}
	case ModelFailure:
		if c.Odds.BaseFailure < 0 || c.Odds.BaseFailure > c.Odds.MaxFailure || c.Odds.MaxFailure > 1 {
			add("odds: need 0 <= base_failure <= max_failure <= 1")
		}
	default:
		add("odds.model must be %q or %q, got %q", ModelSuccess, ModelFailure, c.Odds.Model)
	}

	if c.Steal.MinRatio < 0 || c.Steal.MinRatio > c.Steal.MaxRatio || c.Steal.MaxRatio > 1 {
		add("steal: need 0 <= min_ratio <= max_ratio <= 1")
	}
	if c.Steal.Probability < 0 || c.Steal.Probability > 1 {
		add("steal.probability must be in [0,1]")
	}

	if c.Limits.RateLimit < 0 || c.Limits.MaxAttempts < 0 || c.Limits.HoldSeconds < 0 {
		add("limits must not be negative")
	}
	if c.Limits.RateLimit > 0 && c.Limits.RateWindowMS <= 0 {
		add("limits.rate_window_ms must be positive when rate_limit is set")
	}

	if c.Cooldown.RateLimit < 0 || c.Cooldown.TokenFailure < 0 || c.Cooldown.Loss < 0 ||
		c.Cooldown.Step < 0 || c.Cooldown.Max < 0 {
		add("cooldown values must not be negative")
	}

	if c.Token.Enabled {
		if c.Token.DelayMinMS < 0 || c.Token.DelayMinMS > c.Token.DelayMaxMS {
			add("token: need 0 <= delay_min_ms <= delay_max_ms")
		}
		if c.Token.FailProbability < 0 || c.Token.FailProbability > 1 {
			add("token.fail_probability must be in [0,1]")
		}
	}

	if c.Crowd.GrabProbability < 0 || c.Crowd.GrabProbability > 1 || c.Crowd.SpikeMultiplier < 0 {
		add("crowd: need grab_probability in [0,1] and spike_multiplier >= 0")
	}

	if len(p) > 0 {
		return &ValidationError{Problems: p}
	}
	return nil
}

// DateLabel returns the label for a date id, or the id itself when unknown.
func (c Config) DateLabel(id string) string {
	for _, d := range c.Grid.Dates {
		if d.ID == id {
			return d.Label
		}
	}
	return id
}
