// Package policy decides how likely a reservation attempt is to win and which
// hard-fail overrides apply before the roll.
//
// Everything here is a pure function of config.Config plus the inputs, or a
// small piece of per-session bookkeeping (RateLimiter, Budget). The engine
// owns the instances and calls them from its single goroutine.
package policy

import (
	"math"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/demand"
)

// Input is what an odds model reads at the instant of an attempt.
type Input struct {
	Demand              demand.Snapshot
	SelectionSize       int
	ConsecutiveFailures int
}

// Verdict is the outcome of evaluating the odds for one attempt.
type Verdict struct {
	// Model is config.ModelSuccess or config.ModelFailure.
	Model string `json:"model" yaml:"model"`

	// Probability is the chance the attempt wins, used directly as the
	// Bernoulli parameter of the roll.
	Probability float64 `json:"probability" yaml:"probability"`
}

// SuccessProbability computes the success model:
//
//	base + bonus - weight*norm(concurrency) - min(n*seat, cap) - spike
//
// clamped to [MinSuccess, MaxSuccess].
func SuccessProbability(cfg config.Config, in Input) float64 {
	o := cfg.Odds
	norm := demand.Normalize(in.Demand.Concurrency, cfg.Demand.ConcMin, cfg.Demand.ConcMax)

	raw := o.BaseSuccess + o.SuccessBonus
	raw -= o.ConcurrencyWeight * norm
	raw -= math.Min(float64(in.SelectionSize)*o.SeatPenalty, o.SeatPenaltyCap)
	if in.Demand.SpikeActive {
		raw -= o.SpikePenalty
	}
	return Clamp(raw, o.MinSuccess, o.MaxSuccess)
}

// FailureProbability computes the stacked failure model:
//
//	base + perUser*concurrency + spike + min(n*seat, cap) + min(streak*k, cap)
//
// clamped to [BaseFailure, MaxFailure]. The floor is the base itself, so no
// input can make failure less likely than the base rate.
func FailureProbability(cfg config.Config, in Input) float64 {
	o := cfg.Odds

	raw := o.BaseFailure
	raw += o.FailurePerUser * float64(in.Demand.Concurrency)
	if in.Demand.SpikeActive {
		raw += o.SpikeFailure
	}
	raw += math.Min(float64(in.SelectionSize)*o.SeatFailure, o.SeatFailureCap)
	raw += math.Min(float64(in.ConsecutiveFailures)*o.StreakFailure, o.StreakFailureCap)
	return Clamp(raw, o.BaseFailure, o.MaxFailure)
}

// Evaluate runs the configured model and returns the win probability.
func Evaluate(cfg config.Config, in Input) Verdict {
	if cfg.Odds.Model == config.ModelFailure {
		return Verdict{
			Model:       config.ModelFailure,
			Probability: 1 - FailureProbability(cfg, in),
		}
	}
	return Verdict{
		Model:       config.ModelSuccess,
		Probability: SuccessProbability(cfg, in),
	}
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
