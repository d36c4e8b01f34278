package engine

import "errors"

// Invalid calls. Everything else the player does is a game outcome reported
// through Result, not an error.
var (
	// ErrUnknownDate is returned for a date id not in the configured list.
	ErrUnknownDate = errors.New("unknown date")

	// ErrUnknownSeat is returned for a malformed seat id or one outside the grid.
	ErrUnknownSeat = errors.New("unknown seat")
)
