package engine

import (
	"context"
	"time"

	"github.com/roach88/ticketwar/internal/demand"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// EventType categorizes session events.
type EventType string

const (
	// EventDateSelected follows a successful SelectDate.
	EventDateSelected EventType = "date_selected"

	// EventResult carries a final attempt result, including hold expiry.
	EventResult EventType = "result"

	// EventCountdown fires on each second of a running cooldown or hold.
	EventCountdown EventType = "countdown"

	// EventCooldownEnded fires when the reserve action is enabled again.
	EventCooldownEnded EventType = "cooldown_ended"

	// EventDemand follows every demand random-walk step.
	EventDemand EventType = "demand"

	// EventCrowdGrab fires when the crowd takes a seat of the active date.
	EventCrowdGrab EventType = "crowd_grab"
)

// Event is a notification from a Session to its listener and journal.
//
// Seq is a logical sequence number from the session clock; it orders events
// of one session without relying on wall time.
type Event struct {
	Type      EventType `json:"type" yaml:"type"`
	Seq       int64     `json:"seq" yaml:"seq"`
	At        time.Time `json:"at" yaml:"at"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	DateID    string    `json:"date_id,omitempty" yaml:"date_id,omitempty"`

	// Result is set for EventResult.
	Result *Result `json:"result,omitempty" yaml:"result,omitempty"`

	// Seat is set for EventCrowdGrab.
	Seat seatmap.SeatID `json:"seat,omitempty" yaml:"seat,omitempty"`

	// Demand is the snapshot at the time of the event.
	Demand demand.Snapshot `json:"demand" yaml:"demand"`

	CooldownSeconds int `json:"cooldown_seconds,omitempty" yaml:"cooldown_seconds,omitempty"`
	HoldSeconds     int `json:"hold_seconds,omitempty" yaml:"hold_seconds,omitempty"`
}

// Recorder persists final results. Implemented by journal.Journal.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Listener receives every event on the session goroutine.
type Listener func(Event)

// emit stamps ev and fans it out.
//
// ERROR HANDLING: a journal write failure is logged and play continues. The
// journal observes the game; it never decides it.
func (s *Session) emit(ev Event) {
	ev.Seq = s.clock.Next()
	ev.At = s.sched.Now()
	ev.SessionID = s.id
	ev.Demand = s.demand.Snapshot()
	ev.CooldownSeconds = s.cooldown
	ev.HoldSeconds = s.hold

	if ev.Type == EventResult && s.recorder != nil {
		if err := s.recorder.Record(context.Background(), ev); err != nil {
			s.logger.Error("journal write failed",
				"session", s.id,
				"seq", ev.Seq,
				"error", err)
		}
	}
	for _, l := range s.listeners {
		l(ev)
	}
}
