package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ticketwar/internal/engine"
)

const entryColumns = `id, session_id, seq, at, date_id, date_label, attempt, kind, reason,
	seats, stolen, cooldown_seconds, rolled, probability, roll, concurrency, spike`

// Entries returns every entry of sessionID ordered by seq.
// Returns an empty slice (not nil) when there are none.
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE session_id = ?
		ORDER BY seq ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// AllEntries returns every entry, grouped by session and ordered by seq.
func (j *Journal) AllEntries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		ORDER BY session_id COLLATE BINARY ASC, seq ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var (
			e             Entry
			at, kind      string
			reason        string
			seats, stolen string
			rolled, spike int
		)
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.Seq, &at, &e.DateID, &e.DateLabel, &e.Attempt,
			&kind, &reason, &seats, &stolen, &e.CooldownSeconds, &rolled,
			&e.Probability, &e.Roll, &e.Concurrency, &spike,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		var err error
		if e.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("scan entry %d: %w", e.ID, err)
		}
		if e.Seats, err = unmarshalSeats(seats); err != nil {
			return nil, fmt.Errorf("scan entry %d: %w", e.ID, err)
		}
		if e.Stolen, err = unmarshalSeats(stolen); err != nil {
			return nil, fmt.Errorf("scan entry %d: %w", e.ID, err)
		}
		e.Kind = engine.Kind(kind)
		e.Reason = engine.Reason(reason)
		e.Rolled = rolled != 0
		e.Spike = spike != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Sessions lists every journaled session ordered by start time, then id.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.variant, s.started_at,
			(SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id),
			COALESCE((SELECT e.kind FROM entries e WHERE e.session_id = s.id
				ORDER BY e.seq DESC, e.id DESC LIMIT 1), '')
		FROM sessions s
		ORDER BY s.started_at ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var (
			info    SessionInfo
			started string
			kind    string
		)
		if err := rows.Scan(&info.ID, &info.Variant, &started, &info.Entries, &kind); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if info.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("scan session %s: %w", info.ID, err)
		}
		info.LastKind = engine.Kind(kind)
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Summary aggregates entries.
type Summary struct {
	Sessions        int                   `json:"sessions" yaml:"sessions"`
	Entries         int                   `json:"entries" yaml:"entries"`
	ByKind          map[engine.Kind]int   `json:"by_kind" yaml:"by_kind"`
	ByReason        map[engine.Reason]int `json:"by_reason" yaml:"by_reason"`
	SeatsStolen     int                   `json:"seats_stolen" yaml:"seats_stolen"`
	SeatsConfirmed  int                   `json:"seats_confirmed" yaml:"seats_confirmed"`
	Rolled          int                   `json:"rolled" yaml:"rolled"`
	MeanProbability float64               `json:"mean_probability" yaml:"mean_probability"`
}

// Summary aggregates the entries of sessionID, or of every session when
// sessionID is empty. MeanProbability averages the entries that were
// decided by a roll.
func (j *Journal) Summary(ctx context.Context, sessionID string) (Summary, error) {
	sum := Summary{
		ByKind:   map[engine.Kind]int{},
		ByReason: map[engine.Reason]int{},
	}

	err := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT session_id),
			COUNT(*),
			COALESCE(SUM(json_array_length(stolen)), 0),
			COALESCE(SUM(CASE WHEN kind = ? THEN json_array_length(seats) ELSE 0 END), 0),
			COALESCE(SUM(rolled), 0),
			COALESCE(AVG(CASE WHEN rolled = 1 THEN probability END), 0)
		FROM entries
		WHERE (? = '' OR session_id = ?)
	`, string(engine.KindConfirmed), sessionID, sessionID).Scan(
		&sum.Sessions, &sum.Entries, &sum.SeatsStolen, &sum.SeatsConfirmed,
		&sum.Rolled, &sum.MeanProbability,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, reason, COUNT(*)
		FROM entries
		WHERE (? = '' OR session_id = ?)
		GROUP BY kind, reason
		ORDER BY kind COLLATE BINARY ASC, reason COLLATE BINARY ASC
	`, sessionID, sessionID)
	if err != nil {
		return Summary{}, fmt.Errorf("query summary counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind, reason string
			n            int
		)
		if err := rows.Scan(&kind, &reason, &n); err != nil {
			return Summary{}, fmt.Errorf("scan summary counts: %w", err)
		}
		sum.ByKind[engine.Kind(kind)] += n
		if reason != "" {
			sum.ByReason[engine.Reason(reason)] += n
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate summary counts: %w", err)
	}
	return sum, nil
}
