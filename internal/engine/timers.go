package engine

import (
	"time"

	"github.com/roach88/ticketwar/internal/demand"
	"github.com/roach88/ticketwar/internal/policy"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
)

// startCooldown disables the reserve action for the curve's duration and
// arms a per-second countdown. Returns the seconds, 0 when the trigger has
// no cooldown.
func (s *Session) startCooldown(trigger policy.Trigger, prior int) int {
	secs := s.curve.Seconds(trigger, prior)
	s.cooldownTimer = sched.StopTimer(s.cooldownTimer)
	s.cooldown = secs
	if secs <= 0 {
		return 0
	}
	s.cooldownTimer = s.sched.Every(time.Second, s.cooldownTick)
	return secs
}

func (s *Session) cooldownTick() {
	s.cooldown--
	if s.cooldown > 0 {
		s.emit(Event{Type: EventCountdown, DateID: s.dateID})
		return
	}
	s.cooldown = 0
	s.cooldownTimer = sched.StopTimer(s.cooldownTimer)
	s.logger.Debug("cooldown ended", "session", s.id)
	s.emit(Event{Type: EventCooldownEnded, DateID: s.dateID})
}

// startHold (re)starts the hold countdown when one is configured.
func (s *Session) startHold() {
	s.holdTimer = sched.StopTimer(s.holdTimer)
	s.hold = s.cfg.Limits.HoldSeconds
	if s.hold <= 0 {
		s.hold = 0
		return
	}
	s.holdTimer = s.sched.Every(time.Second, s.holdTick)
}

func (s *Session) holdTick() {
	s.hold--
	if s.hold > 0 {
		s.emit(Event{Type: EventCountdown, DateID: s.dateID})
		return
	}
	s.expireHold()
}

// expireHold ends the run: whatever is in flight is abandoned and the
// session returns to Idle with an Exhausted{hold_expired} result.
func (s *Session) expireHold() {
	s.holdTimer = stopAndZero(s.holdTimer, &s.hold)
	s.stopAttemptTimers()

	r := s.newResult(KindExhausted, ReasonHoldExpired)
	s.selection = nil
	s.state = Idle
	s.dateID = ""

	s.logger.Debug("hold expired", "session", s.id, "date", r.DateID)
	s.finish(r)
}

// onDemandTick runs the crowd process after each random-walk step: with the
// configured probability (scaled up during a spike) the crowd takes one free
// seat of the active date. That seat may be one the player selected.
func (s *Session) onDemandTick(snap demand.Snapshot) {
	defer s.emit(Event{Type: EventDemand, DateID: s.dateID})

	if s.dateID == "" || s.state.Terminal() {
		return
	}
	p := s.cfg.Crowd.GrabProbability
	if snap.SpikeActive {
		p *= s.cfg.Crowd.SpikeMultiplier
	}
	if !random.Chance(s.crowd, p) {
		return
	}
	free := s.world.Free(s.dateID)
	if len(free) == 0 {
		return
	}
	seat := free[random.IntRange(s.crowd, 0, len(free))]
	s.world.Taken(s.dateID).Add(seat)

	s.logger.Debug("crowd grabbed seat", "session", s.id, "seat", seat, "selected", s.IsSelected(seat))
	s.emit(Event{Type: EventCrowdGrab, DateID: s.dateID, Seat: seat})
}

// stopAndZero stops t, zeroes the counter it drives and returns nil.
func stopAndZero(t sched.Timer, counter *int) sched.Timer {
	*counter = 0
	return sched.StopTimer(t)
}
