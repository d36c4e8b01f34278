package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/ticketwar/internal/seatmap"
)

// Kind categorizes the result of AttemptReserve.
type Kind string

const (
	// KindNoOp means the call changed nothing: no date, no seats, cooling
	// down, already in flight or in a terminal state.
	KindNoOp Kind = "noop"

	// KindPending means the attempt is waiting for a queue token; the final
	// result arrives later as an EventResult.
	KindPending Kind = "pending"

	// KindConfirmed means every selected seat is now reserved.
	KindConfirmed Kind = "confirmed"

	// KindFailed is a recoverable failure; see Reason.
	KindFailed Kind = "failed"

	// KindRateLimited means the rolling window was full.
	KindRateLimited Kind = "rate_limited"

	// KindExhausted is terminal failure: budget spent or hold expired.
	KindExhausted Kind = "exhausted"
)

// Reason explains a Failed or Exhausted result.
type Reason string

const (
	ReasonLostRace    Reason = "lost_race"
	ReasonToken       Reason = "token"
	ReasonRaceTaken   Reason = "race_taken"
	ReasonRateLimit   Reason = "rate_limit"
	ReasonBudget      Reason = "budget"
	ReasonHoldExpired Reason = "hold_expired"
)

// Result is the outcome of one AttemptReserve call or of a timer that
// finished an attempt.
type Result struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Reason Reason `json:"reason,omitempty" yaml:"reason,omitempty"`

	DateID    string `json:"date_id,omitempty" yaml:"date_id,omitempty"`
	DateLabel string `json:"date_label,omitempty" yaml:"date_label,omitempty"`

	// Seats are the reserved seats of a Confirmed result, in selection order.
	Seats []seatmap.SeatID `json:"seats,omitempty" yaml:"seats,omitempty"`

	// Stolen are the selected seats moved into the TakenSet by this attempt.
	Stolen []seatmap.SeatID `json:"stolen,omitempty" yaml:"stolen,omitempty"`

	// CooldownSeconds is how long the reserve action stays disabled.
	CooldownSeconds int `json:"cooldown_seconds,omitempty" yaml:"cooldown_seconds,omitempty"`

	// Attempt is the session's attempt number, 0 for NoOp.
	Attempt int `json:"attempt,omitempty" yaml:"attempt,omitempty"`

	// Rolled is true when the probability roll decided the attempt, even if
	// the budget then turned the result into Exhausted. Probability and Roll
	// are only meaningful when it is set; a roll of exactly 0 is possible.
	Rolled      bool    `json:"rolled,omitempty" yaml:"rolled,omitempty"`
	Probability float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Roll        float64 `json:"roll,omitempty" yaml:"roll,omitempty"`
}

// Final reports whether r ends an attempt. The zero Result is not final.
func (r Result) Final() bool {
	return r.Kind != "" && r.Kind != KindNoOp && r.Kind != KindPending
}

// Message is the text the UI shows for r.
func (r Result) Message() string {
	switch r.Kind {
	case KindConfirmed:
		return fmt.Sprintf("Reserved seats for %s: %s", r.DateLabel, joinSeats(r.Seats))
	case KindPending:
		return "Waiting for a queue token..."
	case KindRateLimited:
		return fmt.Sprintf("Too many attempts. Please wait %d seconds.", r.CooldownSeconds)
	case KindExhausted:
		if r.Reason == ReasonHoldExpired {
			return "Your reservation time has expired."
		}
		return "You have used all of your attempts."
	case KindFailed:
		switch r.Reason {
		case ReasonToken:
			return "Could not get a queue token. Please try again."
		case ReasonRaceTaken:
			return "Some of your seats were just taken. Please review your selection and try again"
		}
		return "Someone else has reserved those seats. Please review your selection and try again"
	}
	return ""
}

func joinSeats(ids []seatmap.SeatID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
