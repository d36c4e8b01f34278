package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// AssertionError is a failed assertion with the trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		if ev.Type == TraceStep {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Step, stepArgs(ev))
		} else if ev.Kind != "" {
			fmt.Fprintf(&buf, "  [%d]   -> %s %s\n", ev.Seq, ev.Kind, ev.Reason)
		}
	}
	return buf.String()
}

func stepArgs(ev TraceEvent) string {
	switch {
	case ev.Date != "":
		return ev.Date
	case len(ev.Seats) > 0:
		return fmt.Sprint(ev.Seats)
	default:
		return ev.Duration
	}
}

// EvaluateAssertions checks every assertion against the session and returns
// one message per failure.
func EvaluateAssertions(result *Result, s *engine.Session, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, s, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, s *engine.Session, a Assertion) error {
	fail := func(want, got any) error {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprint(want),
			Actual:   fmt.Sprint(got),
			Trace:    result.Trace,
		}
	}

	switch a.Type {
	case AssertState:
		if got := s.State().String(); got != a.State {
			return fail(a.State, got)
		}
	case AssertSelected:
		if got := s.Selection(); !slices.Equal(got, a.Seats) {
			return fail(a.Seats, got)
		}
	case AssertConfirmed:
		if got := s.Confirmed(); !slices.Equal(got, a.Seats) {
			return fail(a.Seats, got)
		}
	case AssertTaken, AssertNotTaken:
		if _, ok := s.World().Date(a.Date); !ok {
			return fmt.Errorf("%w: %q", engine.ErrUnknownDate, a.Date)
		}
		want := a.Type == AssertTaken
		taken := s.World().Taken(a.Date)
		var wrong []seatmap.SeatID
		for _, id := range a.Seats {
			if taken.Has(id) != want {
				wrong = append(wrong, id)
			}
		}
		if len(wrong) > 0 {
			return fail(fmt.Sprintf("%s %v", a.Type, a.Seats), fmt.Sprintf("wrong: %v", wrong))
		}
	case AssertAttempts:
		if got := s.Attempts(); got != *a.Count {
			return fail(*a.Count, got)
		}
	case AssertCooldown:
		if got := s.CooldownSeconds(); got != *a.Count {
			return fail(*a.Count, got)
		}
	case AssertResultCount:
		got := 0
		for _, r := range result.Results {
			if r.Kind == a.Kind {
				got++
			}
		}
		if got != *a.Count {
			return fail(fmt.Sprintf("%d %s", *a.Count, a.Kind), got)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
