package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ticketwar/internal/engine"
)

// Begin registers a session. Calling it again for the same id is a no-op,
// so the first variant and start time win.
func (j *Journal) Begin(ctx context.Context, sessionID, variant string, at time.Time) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, variant, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sessionID, variant, formatTime(at))
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// Append inserts e. A session row is created on first use if Begin was not
// called. A second entry with the same (session, seq) is silently ignored.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if e.SessionID == "" {
		return fmt.Errorf("append entry: empty session id")
	}
	seats, err := marshalSeats(e.Seats)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	stolen, err := marshalSeats(e.Stolen)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if err := j.Begin(ctx, e.SessionID, "", e.At); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO entries
		(session_id, seq, at, date_id, date_label, attempt, kind, reason,
		 seats, stolen, cooldown_seconds, rolled, probability, roll, concurrency, spike)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		e.SessionID,
		e.Seq,
		formatTime(e.At),
		e.DateID,
		normalizeLabel(e.DateLabel),
		e.Attempt,
		string(e.Kind),
		string(e.Reason),
		seats,
		stolen,
		e.CooldownSeconds,
		boolToInt(e.Rolled),
		e.Probability,
		e.Roll,
		e.Concurrency,
		boolToInt(e.Spike),
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// Record implements engine.Recorder. Events other than results are ignored.
func (j *Journal) Record(ctx context.Context, ev engine.Event) error {
	e, ok := FromEvent(ev)
	if !ok {
		return nil
	}
	return j.Append(ctx, e)
}

var _ engine.Recorder = (*Journal)(nil)
