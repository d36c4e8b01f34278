package harness

import (
	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Trace event types recorded besides the engine's own event types.
const (
	TraceStep     = "step"
	TraceReturned = "returned"
)

// TraceEvent is one line of a scenario trace: a step as issued, a
// non-final value returned by AttemptReserve, or an engine event.
// Countdown and demand events are left out; they are noise in a trace.
type TraceEvent struct {
	Seq      int64            `json:"seq"`
	At       string           `json:"at"`
	Type     string           `json:"type"`
	Step     string           `json:"step,omitempty"`
	Date     string           `json:"date,omitempty"`
	Duration string           `json:"duration,omitempty"`
	Seats    []seatmap.SeatID `json:"seats,omitempty"`
	Kind     engine.Kind      `json:"kind,omitempty"`
	Reason   engine.Reason    `json:"reason,omitempty"`
	Stolen   []seatmap.SeatID `json:"stolen,omitempty"`
	Cooldown int              `json:"cooldown,omitempty"`
	Seat     seatmap.SeatID   `json:"seat,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// FinalState is the part of the session a trace snapshot pins.
type FinalState struct {
	State           engine.State     `json:"state"`
	DateID          string           `json:"date_id,omitempty"`
	Selection       []seatmap.SeatID `json:"selection,omitempty"`
	Confirmed       []seatmap.SeatID `json:"confirmed,omitempty"`
	Attempts        int              `json:"attempts"`
	CooldownSeconds int              `json:"cooldown_seconds"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	SessionID string       `json:"session_id"`
	Trace     []TraceEvent `json:"trace"`
	Final     FinalState   `json:"final"`

	// Results are the final attempt results in the order they were emitted.
	Results []engine.Result `json:"-"`

	// Errors is empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
