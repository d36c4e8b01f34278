package policy

import (
	"errors"
	"fmt"
)

// Budget counts resolved attempts against a per-session cap.
//
// Each session has its own Budget. The engine charges it once an attempt
// has an outcome; whether hard-fail overrides are charged too is the
// limits.charge_overrides flag, decided by the caller.
//
// Unlike the rate limiter, which only delays the player, an exhausted budget
// is terminal: the session stays Exhausted until a new date is selected.
type Budget struct {
	max     int // 0 means unlimited
	current int
}

// NewBudget creates a budget with the given cap.
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Charge counts one attempt.
//
// Returns *BudgetExhaustedError when this attempt reaches the cap, so the
// attempt that uses the last unit is the one reported as exhausted.
func (b *Budget) Charge(sessionID string) error {
	b.current++
	if b.max > 0 && b.current >= b.max {
		return &BudgetExhaustedError{
			SessionID: sessionID,
			Attempts:  b.current,
			Limit:     b.max,
		}
	}
	return nil
}

// Count records an attempt that cannot exhaust the session, such as a win.
// It still uses a unit, so Remaining reflects it.
func (b *Budget) Count() {
	b.current++
}

// Exhausted reports whether the cap has been reached.
func (b *Budget) Exhausted() bool {
	return b.max > 0 && b.current >= b.max
}

// Remaining returns the attempts left, or -1 when unlimited.
func (b *Budget) Remaining() int {
	if b.max <= 0 {
		return -1
	}
	if b.current >= b.max {
		return 0
	}
	return b.max - b.current
}

// Reset sets the attempt count back to 0.
// Used when the player picks a new date.
func (b *Budget) Reset() {
	b.current = 0
}

// Current returns the attempt count.
func (b *Budget) Current() int {
	return b.current
}

// Max returns the cap, 0 when unlimited.
func (b *Budget) Max() int {
	return b.max
}

// BudgetExhaustedError is returned by Charge when the session used its last
// attempt.
type BudgetExhaustedError struct {
	SessionID string
	Attempts  int
	Limit     int
}

// Error implements the error interface.
func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("session %s exhausted attempt budget: %d of %d attempts used",
		e.SessionID, e.Attempts, e.Limit)
}

// IsBudgetExhausted returns true if err wraps a *BudgetExhaustedError.
func IsBudgetExhausted(err error) bool {
	var be *BudgetExhaustedError
	return errors.As(err, &be)
}
