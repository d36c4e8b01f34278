package journal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
	"github.com/roach88/ticketwar/internal/seatmap"
	"github.com/roach88/ticketwar/internal/testutil"
)

var testEpoch = time.Date(2025, 12, 1, 19, 0, 0, 0, time.UTC)

// createTestJournal opens a journal file in a temp dir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func entry(session string, seq int64, kind engine.Kind, reason engine.Reason) Entry {
	return Entry{
		SessionID: session,
		Seq:       seq,
		At:        testEpoch.Add(time.Duration(seq) * time.Second),
		DateID:    "2025-12-23",
		DateLabel: "23, Dec",
		Attempt:   int(seq),
		Kind:      kind,
		Reason:    reason,
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer j.Close()

	for _, table := range []string{"sessions", "entries"} {
		var name string
		err := j.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, entry("s1", 1, engine.KindConfirmed, "")))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpen_Memory(t *testing.T) {
	for _, path := range []string{"", MemoryPath} {
		j, err := Open(path)
		require.NoError(t, err, "path %q", path)
		require.NoError(t, j.Append(context.Background(), entry("s1", 1, engine.KindFailed, engine.ReasonLostRace)))
		got, err := j.Entries(context.Background(), "s1")
		require.NoError(t, err)
		assert.Len(t, got, 1)
		require.NoError(t, j.Close())
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/journal.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	j := &Journal{db: nil}
	if err := j.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	j := createTestJournal(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := j.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestAppend_RoundTrip(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	want := entry("s1", 7, engine.KindFailed, engine.ReasonLostRace)
	want.Seats = nil
	want.Stolen = []seatmap.SeatID{"A1", "B3"}
	want.CooldownSeconds = 5
	want.Rolled = true
	want.Probability = 0.17
	want.Roll = 0.42
	want.Concurrency = 31500
	want.Spike = true
	require.NoError(t, j.Append(ctx, want))

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	want.ID = got[0].ID
	assert.Equal(t, want, got[0])
	assert.True(t, got[0].At.Equal(testEpoch.Add(7*time.Second)))
}

func TestAppend_DuplicateSeqIgnored(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, entry("s1", 1, engine.KindFailed, engine.ReasonToken)))
	require.NoError(t, j.Append(ctx, entry("s1", 1, engine.KindConfirmed, "")))

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.KindFailed, got[0].Kind)
}

func TestAppend_EmptySession(t *testing.T) {
	j := createTestJournal(t)
	assert.Error(t, j.Append(context.Background(), Entry{Seq: 1, Kind: engine.KindFailed}))
}

func TestAppend_NormalizesLabel(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	e := entry("s1", 1, engine.KindConfirmed, "")
	e.DateLabel = "Cafe\u0301 night"
	require.NoError(t, j.Append(ctx, e))

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 night", got[0].DateLabel)
}

func TestEntries_OrderedBySeq(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	for _, seq := range []int64{5, 2, 9, 1} {
		require.NoError(t, j.Append(ctx, entry("s1", seq, engine.KindFailed, engine.ReasonLostRace)))
	}

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	var seqs []int64
	for _, e := range got {
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []int64{1, 2, 5, 9}, seqs)
}

func TestEntries_Empty(t *testing.T) {
	j := createTestJournal(t)

	got, err := j.Entries(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAllEntries_GroupedBySession(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, entry("b", 2, engine.KindFailed, engine.ReasonToken)))
	require.NoError(t, j.Append(ctx, entry("a", 3, engine.KindConfirmed, "")))
	require.NoError(t, j.Append(ctx, entry("b", 1, engine.KindFailed, engine.ReasonLostRace)))

	got, err := j.AllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].SessionID)
	assert.Equal(t, int64(1), got[1].Seq)
	assert.Equal(t, int64(2), got[2].Seq)
}

func TestSessions(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Begin(ctx, "s2", "hard", testEpoch.Add(time.Minute)))
	require.NoError(t, j.Begin(ctx, "s1", "normal", testEpoch))
	require.NoError(t, j.Begin(ctx, "s1", "stacked", testEpoch.Add(time.Hour)))
	require.NoError(t, j.Append(ctx, entry("s1", 1, engine.KindFailed, engine.ReasonLostRace)))
	require.NoError(t, j.Append(ctx, entry("s1", 2, engine.KindConfirmed, "")))

	got, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "normal", got[0].Variant)
	assert.True(t, got[0].StartedAt.Equal(testEpoch))
	assert.Equal(t, 2, got[0].Entries)
	assert.Equal(t, engine.KindConfirmed, got[0].LastKind)

	assert.Equal(t, "s2", got[1].ID)
	assert.Equal(t, 0, got[1].Entries)
	assert.Equal(t, engine.Kind(""), got[1].LastKind)
}

func TestSummary(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	lost := entry("s1", 1, engine.KindFailed, engine.ReasonLostRace)
	lost.Stolen = []seatmap.SeatID{"A1"}
	lost.Rolled, lost.Probability, lost.Roll = true, 0.2, 0.5

	raced := entry("s1", 2, engine.KindFailed, engine.ReasonRaceTaken)
	raced.Stolen = []seatmap.SeatID{"A2", "A3"}

	won := entry("s1", 3, engine.KindConfirmed, "")
	won.Seats = []seatmap.SeatID{"A4", "A5"}
	won.Rolled, won.Probability, won.Roll = true, 0.4, 0.1

	other := entry("s2", 1, engine.KindExhausted, engine.ReasonBudget)

	for _, e := range []Entry{lost, raced, won, other} {
		require.NoError(t, j.Append(ctx, e))
	}

	all, err := j.Summary(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Sessions)
	assert.Equal(t, 4, all.Entries)
	assert.Equal(t, map[engine.Kind]int{
		engine.KindFailed:    2,
		engine.KindConfirmed: 1,
		engine.KindExhausted: 1,
	}, all.ByKind)
	assert.Equal(t, map[engine.Reason]int{
		engine.ReasonLostRace:  1,
		engine.ReasonRaceTaken: 1,
		engine.ReasonBudget:    1,
	}, all.ByReason)
	assert.Equal(t, 3, all.SeatsStolen)
	assert.Equal(t, 2, all.SeatsConfirmed)
	assert.Equal(t, 2, all.Rolled)
	assert.InDelta(t, 0.3, all.MeanProbability, 1e-9)

	one, err := j.Summary(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, one.Sessions)
	assert.Equal(t, 1, one.Entries)
	assert.Equal(t, 0, one.Rolled)
	assert.Equal(t, 0.0, one.MeanProbability)
}

func TestSummary_CountsZeroRoll(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	// min_success 0 makes a losing roll of exactly 0 at probability 0.
	zero := entry("s1", 1, engine.KindFailed, engine.ReasonLostRace)
	zero.Rolled = true
	require.NoError(t, j.Append(ctx, zero))

	override := entry("s1", 2, engine.KindFailed, engine.ReasonToken)
	require.NoError(t, j.Append(ctx, override))

	sum, err := j.Summary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rolled)
	assert.Equal(t, 0.0, sum.MeanProbability)

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Rolled)
	assert.False(t, got[1].Rolled)
}

func TestSummary_Empty(t *testing.T) {
	j := createTestJournal(t)

	sum, err := j.Summary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Entries)
	assert.Empty(t, sum.ByKind)
}

func TestFromEvent(t *testing.T) {
	_, ok := FromEvent(engine.Event{Type: engine.EventDemand})
	assert.False(t, ok)

	_, ok = FromEvent(engine.Event{Type: engine.EventResult})
	assert.False(t, ok, "result event without a result")
}

func TestRecord_IgnoresNonResultEvents(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, engine.Event{Type: engine.EventCountdown, SessionID: "s1", Seq: 1}))

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

// TestRecord_FromSession wires the journal into a real session and checks a
// forced win lands as one entry.
func TestRecord_FromSession(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	cfg := config.Normal()
	cfg.Occupancy = config.Occupancy{}

	s, err := engine.New(cfg,
		engine.WithScheduler(sched.NewManual()),
		engine.WithRandom(random.NewSeeded(1)),
		engine.WithDice(testutil.ConstSource(0)),
		engine.WithIDGenerator(testutil.NewFixedSessionGenerator("journal-session")),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithJournal(j),
	)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, j.Begin(ctx, s.ID(), cfg.Variant, s.Scheduler().Now()))

	require.NoError(t, s.SelectDate("2025-12-23"))
	_, err = s.ToggleSeat("C4")
	require.NoError(t, err)
	r := s.AttemptReserve()
	require.Equal(t, engine.KindConfirmed, r.Kind)

	got, err := j.Entries(ctx, "journal-session")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.KindConfirmed, got[0].Kind)
	assert.Equal(t, []seatmap.SeatID{"C4"}, got[0].Seats)
	assert.Equal(t, "23, Dec", got[0].DateLabel)
	assert.True(t, got[0].Rolled, "a winning roll of 0 is still a roll")
	assert.Equal(t, 1, got[0].Attempt)
	assert.Greater(t, got[0].Concurrency, 0)

	sessions, err := j.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, config.VariantNormal, sessions[0].Variant)
}
