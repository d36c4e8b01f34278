package engine

import "fmt"

// State is the session's position in the reservation flow.
type State int

const (
	// Idle means no date is chosen.
	Idle State = iota
	// Selecting means a date is chosen and seats can be toggled.
	Selecting
	// Attempting means an attempt is in flight waiting for a queue token.
	Attempting
	// Confirmed is terminal success.
	Confirmed
	// Exhausted is terminal failure: attempt budget spent.
	Exhausted
)

var stateNames = [...]string{
	Idle:       "idle",
	Selecting:  "selecting",
	Attempting: "attempting",
	Confirmed:  "confirmed",
	Exhausted:  "exhausted",
}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether only a new date selection leaves s.
func (s State) Terminal() bool {
	return s == Confirmed || s == Exhausted
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState maps a state name back to its value.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown state %q", name)
}
