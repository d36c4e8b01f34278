package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/journal"
	"github.com/roach88/ticketwar/internal/seatmap"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// writeFixtureJournal records one session with a loss followed by a win.
func writeFixtureJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	at := time.Date(2025, 12, 23, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Begin(ctx, "s-1", "normal", at))
	require.NoError(t, j.Append(ctx, journal.Entry{
		SessionID:   "s-1",
		Seq:         1,
		At:          at.Add(time.Second),
		DateID:      "2025-12-23",
		DateLabel:   "23, Dec",
		Attempt:     1,
		Kind:        engine.KindFailed,
		Reason:      engine.ReasonLostRace,
		Stolen:      []seatmap.SeatID{"A1"},
		Rolled:      true,
		Probability: 0.25,
		Roll:        0.5,
	}))
	require.NoError(t, j.Append(ctx, journal.Entry{
		SessionID:   "s-1",
		Seq:         2,
		At:          at.Add(2 * time.Second),
		DateID:      "2025-12-23",
		DateLabel:   "23, Dec",
		Attempt:     2,
		Kind:        engine.KindConfirmed,
		Seats:       []seatmap.SeatID{"A2"},
		Rolled:      true,
		Probability: 0.3,
		Roll:        0.1,
	}))
	return path
}

func TestGolden_Dates(t *testing.T) {
	out, err := execute(t, "dates")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "dates", []byte(out))
}

func TestGolden_JournalSummary(t *testing.T) {
	path := writeFixtureJournal(t)
	out, err := execute(t, "journal", "--db", path)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "journal_summary", []byte(out))
}

func TestGolden_JournalSession(t *testing.T) {
	path := writeFixtureJournal(t)
	out, err := execute(t, "journal", "--db", path, "--session", "s-1")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "journal_session", []byte(out))
}
