package engine

import (
	"time"

	"github.com/roach88/ticketwar/internal/policy"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// AttemptReserve tries to reserve the current selection.
//
// A call whose preconditions fail (no date, empty selection, not Selecting,
// cooling down or an attempt already in flight) returns KindNoOp and changes
// nothing. With queue tokens enabled the call returns KindPending and the
// final result is delivered later as an EventResult. Every other result is
// final, returned here and also emitted.
func (s *Session) AttemptReserve() Result {
	if s.state != Selecting || s.dateID == "" || len(s.selection) == 0 ||
		s.cooldown > 0 || s.inFlight {
		return Result{Kind: KindNoOp, DateID: s.dateID, CooldownSeconds: s.cooldown}
	}

	s.attempts++
	if !s.limiter.Allow(s.sched.Now()) {
		return s.finish(s.rateLimited())
	}

	if s.cfg.Token.Enabled {
		return s.awaitToken()
	}
	return s.finish(s.resolve())
}

// rateLimited handles a full rolling window. It does not count as a failure
// in the streak; the cooldown still escalates with the streak so far.
func (s *Session) rateLimited() Result {
	r := s.newResult(KindRateLimited, ReasonRateLimit)
	if s.chargeOverride() {
		return s.exhaust(r)
	}
	r.CooldownSeconds = s.startCooldown(policy.TriggerRateLimit, s.consecutive)
	return r
}

// awaitToken suspends the attempt for a random queueing delay.
func (s *Session) awaitToken() Result {
	delay := time.Duration(random.IntRange(s.timing,
		s.cfg.Token.DelayMinMS, s.cfg.Token.DelayMaxMS+1)) * time.Millisecond

	s.state = Attempting
	s.inFlight = true
	attempt := s.attempts
	s.tokenTimer = s.sched.AfterFunc(delay, func() {
		s.tokenTimer = nil
		s.inFlight = false
		s.state = Selecting

		if random.Chance(s.dice, s.cfg.Token.FailProbability) {
			s.finish(s.tokenFailed())
			return
		}
		s.finish(s.resolve())
	})

	s.logger.Debug("waiting for queue token",
		"session", s.id,
		"attempt", attempt,
		"delay", delay)
	return s.newResult(KindPending, "")
}

func (s *Session) tokenFailed() Result {
	r := s.newResult(KindFailed, ReasonToken)
	prior := s.consecutive
	s.consecutive++
	if s.chargeOverride() {
		return s.exhaust(r)
	}
	r.CooldownSeconds = s.startCooldown(policy.TriggerToken, prior)
	return r
}

// resolve runs the race check and the probability roll.
func (s *Session) resolve() Result {
	taken := s.world.Taken(s.dateID)

	if raced := policy.RaceTaken(s.selection, taken); len(raced) > 0 {
		s.removeFromSelection(raced)
		r := s.newResult(KindFailed, ReasonRaceTaken)
		r.Stolen = append(raced, s.steal(taken)...)
		return s.failed(r, s.chargeOverride())
	}

	verdict := policy.Evaluate(s.cfg, policy.Input{
		Demand:              s.demand.Snapshot(),
		SelectionSize:       len(s.selection),
		ConsecutiveFailures: s.consecutive,
	})
	roll := s.dice.Float64()

	if roll < verdict.Probability {
		r := s.newResult(KindConfirmed, "")
		r.Rolled, r.Probability, r.Roll = true, verdict.Probability, roll
		s.commit(taken, &r)
		return r
	}

	r := s.newResult(KindFailed, ReasonLostRace)
	r.Rolled, r.Probability, r.Roll = true, verdict.Probability, roll
	r.Stolen = s.steal(taken)
	return s.failed(r, s.budget.Charge(s.id) != nil)
}

// commit reserves every selected seat.
func (s *Session) commit(taken *seatmap.TakenSet, r *Result) {
	for _, id := range s.selection {
		taken.Add(id)
	}
	// A win never ends in Exhausted, but it still counts toward the budget.
	s.budget.Count()

	r.Seats = s.Selection()
	s.confirmed = r.Seats
	s.selection = nil
	s.consecutive = 0
	s.state = Confirmed
	s.holdTimer = stopAndZero(s.holdTimer, &s.hold)
}

// steal moves a random share of the selection into taken.
func (s *Session) steal(taken *seatmap.TakenSet) []seatmap.SeatID {
	stolen := policy.PickStolen(s.cfg.Steal, s.dice, s.selection)
	for _, id := range stolen {
		taken.Add(id)
	}
	s.removeFromSelection(stolen)
	return stolen
}

// failed finishes a recoverable failure, or exhausts the session when the
// budget ran out on it.
func (s *Session) failed(r Result, exhausted bool) Result {
	prior := s.consecutive
	s.consecutive++
	if exhausted {
		return s.exhaust(r)
	}
	r.CooldownSeconds = s.startCooldown(policy.TriggerLoss, prior)
	return r
}

// exhaust turns r into the terminal budget result.
func (s *Session) exhaust(r Result) Result {
	r.Kind = KindExhausted
	r.Reason = ReasonBudget
	r.CooldownSeconds = 0
	s.state = Exhausted
	s.stopAttemptTimers()
	s.holdTimer = stopAndZero(s.holdTimer, &s.hold)
	return r
}

// chargeOverride charges a hard-fail override to the budget when the
// configuration says so, and reports whether that spent the last attempt.
func (s *Session) chargeOverride() bool {
	if !s.cfg.Limits.ChargeOverrides {
		return false
	}
	return s.budget.Charge(s.id) != nil
}

func (s *Session) newResult(kind Kind, reason Reason) Result {
	return Result{
		Kind:      kind,
		Reason:    reason,
		DateID:    s.dateID,
		DateLabel: s.cfg.DateLabel(s.dateID),
		Attempt:   s.attempts,
	}
}

// finish records a final result and hands it to listeners.
func (s *Session) finish(r Result) Result {
	s.last = r
	s.logger.Debug("attempt resolved",
		"session", s.id,
		"attempt", r.Attempt,
		"kind", r.Kind,
		"reason", r.Reason,
		"stolen", len(r.Stolen),
		"cooldown", r.CooldownSeconds)
	s.emit(Event{Type: EventResult, DateID: r.DateID, Result: &r})
	return r
}
