package journal

import (
	"time"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Entry is one recorded attempt result.
type Entry struct {
	ID              int64            `json:"id" yaml:"id"`
	SessionID       string           `json:"session_id" yaml:"session_id"`
	Seq             int64            `json:"seq" yaml:"seq"`
	At              time.Time        `json:"at" yaml:"at"`
	DateID          string           `json:"date_id,omitempty" yaml:"date_id,omitempty"`
	DateLabel       string           `json:"date_label,omitempty" yaml:"date_label,omitempty"`
	Attempt         int              `json:"attempt" yaml:"attempt"`
	Kind            engine.Kind      `json:"kind" yaml:"kind"`
	Reason          engine.Reason    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Seats           []seatmap.SeatID `json:"seats,omitempty" yaml:"seats,omitempty"`
	Stolen          []seatmap.SeatID `json:"stolen,omitempty" yaml:"stolen,omitempty"`
	CooldownSeconds int              `json:"cooldown_seconds,omitempty" yaml:"cooldown_seconds,omitempty"`
	Rolled          bool             `json:"rolled,omitempty" yaml:"rolled,omitempty"`
	Probability     float64          `json:"probability,omitempty" yaml:"probability,omitempty"`
	Roll            float64          `json:"roll,omitempty" yaml:"roll,omitempty"`
	Concurrency     int              `json:"concurrency" yaml:"concurrency"`
	Spike           bool             `json:"spike" yaml:"spike"`
}

// FromEvent converts a result event. ok is false for any other event type.
func FromEvent(ev engine.Event) (Entry, bool) {
	if ev.Type != engine.EventResult || ev.Result == nil {
		return Entry{}, false
	}
	r := ev.Result
	return Entry{
		SessionID:       ev.SessionID,
		Seq:             ev.Seq,
		At:              ev.At,
		DateID:          r.DateID,
		DateLabel:       r.DateLabel,
		Attempt:         r.Attempt,
		Kind:            r.Kind,
		Reason:          r.Reason,
		Seats:           r.Seats,
		Stolen:          r.Stolen,
		CooldownSeconds: r.CooldownSeconds,
		Rolled:          r.Rolled,
		Probability:     r.Probability,
		Roll:            r.Roll,
		Concurrency:     ev.Demand.Concurrency,
		Spike:           ev.Demand.SpikeActive,
	}, true
}

// SessionInfo summarizes one journaled session.
type SessionInfo struct {
	ID        string      `json:"id" yaml:"id"`
	Variant   string      `json:"variant,omitempty" yaml:"variant,omitempty"`
	StartedAt time.Time   `json:"started_at" yaml:"started_at"`
	Entries   int         `json:"entries" yaml:"entries"`
	LastKind  engine.Kind `json:"last_kind,omitempty" yaml:"last_kind,omitempty"`
}
