package policy

import "github.com/roach88/ticketwar/internal/config"

// Trigger names what started a cooldown.
type Trigger string

const (
	TriggerRateLimit Trigger = "rate_limit"
	TriggerToken     Trigger = "token"
	TriggerLoss      Trigger = "loss"
)

// CooldownCurve maps a trigger and the failure streak to a lockout length.
type CooldownCurve struct {
	cfg config.Cooldown
}

// NewCooldownCurve wraps the configured curve.
func NewCooldownCurve(cfg config.Cooldown) CooldownCurve {
	return CooldownCurve{cfg: cfg}
}

// Seconds returns the cooldown for trigger given the failures that came
// before it in the current streak:
//
//	min(max, base(trigger) + step*prior)
//
// A trigger whose base is 0 never cools down. A Max of 0 leaves the curve
// uncapped.
func (c CooldownCurve) Seconds(trigger Trigger, prior int) int {
	base := c.base(trigger)
	if base <= 0 {
		return 0
	}
	if prior < 0 {
		prior = 0
	}
	secs := base + c.cfg.Step*prior
	if c.cfg.Max > 0 && secs > c.cfg.Max {
		secs = c.cfg.Max
	}
	return secs
}

func (c CooldownCurve) base(trigger Trigger) int {
	switch trigger {
	case TriggerRateLimit:
		return c.cfg.RateLimit
	case TriggerToken:
		return c.cfg.TokenFailure
	case TriggerLoss:
		return c.cfg.Loss
	}
	return 0
}
