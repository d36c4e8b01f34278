package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/journal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func botIDs(n int) engine.IDGenerator {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("bot-%03d", i)
	}
	return engine.NewFixedGenerator(ids...)
}

func testOptions(n int) Options {
	return Options{
		Sessions: n,
		Seed:     42,
		IDs:      botIDs(n),
		Logger:   discardLogger(),
	}
}

// fixedOdds pins the success probability of the normal preset.
func fixedOdds(p float64) config.Config {
	cfg := config.Normal()
	cfg.Occupancy = config.Occupancy{}
	cfg.Odds.MinSuccess = p
	cfg.Odds.MaxSuccess = p
	return cfg
}

func TestRun_SureWin(t *testing.T) {
	report, err := Run(context.Background(), fixedOdds(1), testOptions(5))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Sessions)
	assert.Equal(t, 5, report.Confirmed)
	assert.Equal(t, 5, report.Attempts)
	assert.Equal(t, 10, report.SeatsConfirmed)
	assert.Equal(t, 0, report.SeatsStolen)
	assert.Equal(t, 1.0, report.SuccessRate)
	assert.Equal(t, 1.0, report.AttemptsPerSuccess)
	assert.Equal(t, map[engine.Kind]int{engine.KindConfirmed: 5}, report.ByKind)

	for i, o := range report.Outcomes {
		assert.Equal(t, fmt.Sprintf("bot-%03d", i), o.SessionID)
		assert.Equal(t, engine.KindConfirmed, o.Kind)
		assert.Len(t, o.Seats, 2)
	}
}

func TestRun_SureLossExhaustsBudget(t *testing.T) {
	cfg := fixedOdds(0)
	cfg.Limits.MaxAttempts = 3

	report, err := Run(context.Background(), cfg, testOptions(4))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Confirmed)
	assert.Equal(t, 4, report.Exhausted)
	assert.Equal(t, 12, report.Attempts)
	assert.Equal(t, 0.0, report.AttemptsPerSuccess)
	assert.Equal(t, 8, report.ByKind[engine.KindFailed])
	assert.Equal(t, 4, report.ByKind[engine.KindExhausted])
	assert.Equal(t, 4, report.ByReason[engine.ReasonBudget])
	for _, o := range report.Outcomes {
		assert.Equal(t, engine.ReasonBudget, o.Reason)
		assert.Equal(t, 3, o.Attempts)
	}
}

func TestRun_BotGivesUp(t *testing.T) {
	opts := testOptions(2)
	opts.MaxAttempts = 4

	report, err := Run(context.Background(), fixedOdds(0), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, report.GaveUp)
	for _, o := range report.Outcomes {
		assert.True(t, o.GaveUp)
		assert.Equal(t, 4, o.Attempts)
		assert.Equal(t, engine.KindFailed, o.Kind)
	}
}

func TestRun_SoldOut(t *testing.T) {
	cfg := fixedOdds(0)
	cfg.Grid.Rows, cfg.Grid.Cols = 1, 2
	cfg.Steal = config.Steal{MinRatio: 1, MaxRatio: 1, Probability: 1}

	report, err := Run(context.Background(), cfg, testOptions(3))
	require.NoError(t, err)

	assert.Equal(t, 3, report.SoldOut)
	assert.Equal(t, 6, report.SeatsStolen)
	for _, o := range report.Outcomes {
		assert.True(t, o.SoldOut)
		assert.Equal(t, 1, o.Attempts)
	}
}

func TestRun_HoldExpires(t *testing.T) {
	cfg := fixedOdds(0)
	cfg.Limits.HoldSeconds = 45
	cfg.Cooldown = config.Cooldown{Loss: 30}

	report, err := Run(context.Background(), cfg, testOptions(1))
	require.NoError(t, err)

	o := report.Outcomes[0]
	assert.Equal(t, engine.KindExhausted, o.Kind)
	assert.Equal(t, engine.ReasonHoldExpired, o.Reason)
	assert.Equal(t, 2, o.Attempts)
	assert.GreaterOrEqual(t, o.Elapsed, 45*time.Second)
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	cfg := config.Hard()

	serial := testOptions(12)
	first, err := Run(context.Background(), cfg, serial)
	require.NoError(t, err)

	parallel := testOptions(12)
	parallel.Workers = 4
	second, err := Run(context.Background(), cfg, parallel)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 12, first.Confirmed+first.Exhausted+first.GaveUp+first.SoldOut)
}

func TestRun_WritesJournal(t *testing.T) {
	j, err := journal.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	opts := testOptions(3)
	opts.Journal = j
	_, err = Run(context.Background(), fixedOdds(1), opts)
	require.NoError(t, err)

	sessions, err := j.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Equal(t, config.VariantNormal, s.Variant)
		assert.Equal(t, 1, s.Entries)
		assert.Equal(t, engine.KindConfirmed, s.LastKind)
	}

	sum, err := j.Summary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.ByKind[engine.KindConfirmed])
	assert.Equal(t, 6, sum.SeatsConfirmed)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, fixedOdds(1), testOptions(2))
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelAfter cancels once n bots have logged that they finished.
type cancelAfter struct {
	n        int64
	finished *atomic.Int64
	cancel   context.CancelFunc
}

func (h *cancelAfter) Enabled(context.Context, slog.Level) bool { return true }

func (h *cancelAfter) Handle(_ context.Context, r slog.Record) error {
	if r.Message == "bot finished" && h.finished.Add(1) >= h.n {
		h.cancel()
	}
	return nil
}

func (h *cancelAfter) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *cancelAfter) WithGroup(string) slog.Handler      { return h }

func TestRun_CancelledMidRunStopsRemainingBots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finished := &atomic.Int64{}
	opts := testOptions(200)
	opts.Workers = 2
	opts.Logger = slog.New(&cancelAfter{n: 1, finished: finished, cancel: cancel})

	_, err := Run(ctx, fixedOdds(1), opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, finished.Load(), int64(200))
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := config.Normal()
	cfg.Grid.Rows = 0

	_, err := Run(context.Background(), cfg, testOptions(1))
	assert.True(t, config.IsValidationError(err))
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultSessions, o.Sessions)
	assert.Equal(t, DefaultSeats, o.Seats)
	assert.Equal(t, DefaultMaxAttempts, o.MaxAttempts)
	assert.Equal(t, DefaultThink, o.Think)
	assert.Equal(t, 1, o.Workers)
	assert.NotNil(t, o.IDs)
	assert.NotNil(t, o.Logger)
}

func TestReport_Text(t *testing.T) {
	r := Report{
		Variant:            "hard",
		Sessions:           2000,
		Confirmed:          500,
		Attempts:           12345,
		SuccessRate:        0.25,
		AttemptsPerSuccess: 24.69,
		MeanElapsed:        90 * time.Second,
		ByKind:             map[engine.Kind]int{engine.KindFailed: 3, engine.KindConfirmed: 1},
		ByReason:           map[engine.Reason]int{engine.ReasonLostRace: 3},
	}

	text := r.Text(language.English)
	assert.Contains(t, text, "Sessions:             2,000\n")
	assert.Contains(t, text, "Confirmed:            500 (25.0%)\n")
	assert.Contains(t, text, "Attempts:             12,345\n")
	assert.Contains(t, text, "Mean session time:    1m30s\n")
	assert.Contains(t, text, "Results:\n  confirmed      1\n  failed         3\n")
	assert.Contains(t, text, "Reasons:\n  lost_race      3\n")
}
