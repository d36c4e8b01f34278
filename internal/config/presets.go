package config

import (
	"fmt"
	"sort"
)

// Variant names accepted by Preset.
const (
	VariantNormal  = "normal"
	VariantHard    = "hard"
	VariantStacked = "stacked"
)

// DefaultDates is the fixed date list shown on the date screen.
var DefaultDates = []Date{
	{ID: "2025-12-23", Label: "23, Dec"},
	{ID: "2025-12-24", Label: "24, Dec"},
	{ID: "2025-12-25", Label: "25, Dec"},
}

// Normal returns the baseline game: success-model odds, gated seat stealing
// and no rate limit, budget or countdown.
func Normal() Config {
	return Config{
		Variant: VariantNormal,
		Grid: Grid{
			Rows:  10,
			Cols:  12,
			Dates: append([]Date(nil), DefaultDates...),
		},
		Occupancy: Occupancy{PreTakenMin: 0.20, PreTakenMax: 0.35},
		Demand: Demand{
			ConcMin:        3000,
			ConcMax:        60000,
			TickMS:         1000,
			StepMin:        0.005,
			StepMax:        0.02,
			SpikeIdleMinMS: 10000,
			SpikeIdleMaxMS: 20000,
			SpikeOnMinMS:   2000,
			SpikeOnMaxMS:   6000,
		},
		Odds: Odds{
			Model:             ModelSuccess,
			BaseSuccess:       0.20,
			SuccessBonus:      0.05,
			MinSuccess:        0.02,
			MaxSuccess:        0.85,
			ConcurrencyWeight: 0.3,
			SeatPenalty:       0.04,
			SeatPenaltyCap:    0.12,
			SpikePenalty:      0.2,
		},
		Steal: Steal{MinRatio: 0.5, MaxRatio: 0.9, Probability: 0.8},
		Limits: Limits{
			RateWindowMS: 60000,
		},
		Cooldown: Cooldown{RateLimit: 30, TokenFailure: 5, Step: 5, Max: 60},
		Token: Token{
			DelayMinMS:      800,
			DelayMaxMS:      2500,
			FailProbability: 0.10,
		},
		Crowd: Crowd{SpikeMultiplier: 1},
	}
}

// Hard returns the high-occupancy game with every override switched on:
// rate limit, queue tokens, a three-attempt budget, a hold countdown and a
// crowd that keeps grabbing seats.
func Hard() Config {
	c := Normal()
	c.Variant = VariantHard
	c.Occupancy = Occupancy{PreTakenMin: 0.60, PreTakenMax: 0.85}
	c.Odds.BaseSuccess = 0.15
	c.Odds.SuccessBonus = 0
	c.Odds.SpikePenalty = 0.25
	c.Steal.Probability = 1
	c.Limits = Limits{
		RateLimit:    5,
		RateWindowMS: 60000,
		MaxAttempts:  3,
		HoldSeconds:  120,
	}
	c.Cooldown = Cooldown{RateLimit: 30, TokenFailure: 5, Loss: 3, Step: 5, Max: 60}
	c.Token.Enabled = true
	c.Crowd = Crowd{GrabProbability: 0.15, SpikeMultiplier: 3}
	return c
}

// Stacked returns the failure-model game: the odds start high against the
// player and every factor only pushes them higher.
func Stacked() Config {
	c := Normal()
	c.Variant = VariantStacked
	c.Odds = Odds{
		Model:            ModelFailure,
		BaseFailure:      0.70,
		MaxFailure:       0.98,
		FailurePerUser:   0.000002,
		SpikeFailure:     0.10,
		SeatFailure:      0.03,
		SeatFailureCap:   0.12,
		StreakFailure:    0.02,
		StreakFailureCap: 0.10,
	}
	c.Steal.Probability = 1
	c.Limits = Limits{
		RateLimit:    10,
		RateWindowMS: 60000,
		MaxAttempts:  5,
	}
	c.Cooldown = Cooldown{RateLimit: 20, TokenFailure: 3, Loss: 2, Step: 2, Max: 30}
	c.Token.Enabled = true
	return c
}

var presets = map[string]func() Config{
	VariantNormal:  Normal,
	VariantHard:    Hard,
	VariantStacked: Stacked,
}

// Preset returns a fresh copy of the named variant.
func Preset(name string) (Config, error) {
	fn, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown variant %q: must be one of %v", name, Variants())
	}
	return fn(), nil
}

// Variants lists the preset names in sorted order.
func Variants() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
