package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/journal"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultSessions    = 100
	DefaultSeats       = 2
	DefaultMaxAttempts = 50
	DefaultThink       = 500 * time.Millisecond
)

// Options configures a run. Zero values fall back to the defaults above.
type Options struct {
	Sessions int
	// Seats is how many seats each bot tries to hold.
	Seats int
	// MaxAttempts is the bot's own ceiling, independent of limits.max_attempts.
	MaxAttempts int
	// Think is the virtual pause between two attempts.
	Think time.Duration
	// Seed makes the run reproducible. 0 draws a fresh seed per bot.
	Seed uint64
	// Workers runs bots in parallel. Results do not depend on it.
	Workers int

	Journal *journal.Journal
	IDs     engine.IDGenerator
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Sessions <= 0 {
		o.Sessions = DefaultSessions
	}
	if o.Seats <= 0 {
		o.Seats = DefaultSeats
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Think <= 0 {
		o.Think = DefaultThink
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.IDs == nil {
		o.IDs = engine.UUIDv7Generator{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Outcome is how one bot's session ended.
type Outcome struct {
	SessionID string           `json:"session_id" yaml:"session_id"`
	DateID    string           `json:"date_id" yaml:"date_id"`
	Kind      engine.Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Reason    engine.Reason    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Attempts  int              `json:"attempts" yaml:"attempts"`
	Stolen    int              `json:"stolen" yaml:"stolen"`
	Seats     []seatmap.SeatID `json:"seats,omitempty" yaml:"seats,omitempty"`
	GaveUp    bool             `json:"gave_up,omitempty" yaml:"gave_up,omitempty"`
	SoldOut   bool             `json:"sold_out,omitempty" yaml:"sold_out,omitempty"`
	Elapsed   time.Duration    `json:"elapsed" yaml:"elapsed"`

	// results holds every final result the session emitted.
	results []engine.Result
}

// Run plays opts.Sessions bots against cfg and aggregates their outcomes.
//
// A cancelled ctx stops the run between attempts; the error is ctx.Err() and
// no partial report is returned.
func Run(ctx context.Context, cfg config.Config, opts Options) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	opts = opts.withDefaults()

	// Session ids are drawn up front so a FixedGenerator hands them out in
	// bot order whatever the worker count.
	ids := make([]string, opts.Sessions)
	for i := range ids {
		ids[i] = opts.IDs.Generate()
	}

	// The first failing session cancels the rest; writes to outcomes are
	// per index so bots never share a slot.
	outcomes := make([]Outcome, opts.Sessions)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Sessions; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := playOne(gctx, cfg, opts, i, ids[i])
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := summarize(cfg.Variant, outcomes)
	opts.Logger.Info("simulation finished",
		"variant", cfg.Variant,
		"sessions", report.Sessions,
		"confirmed", report.Confirmed,
		"exhausted", report.Exhausted)
	return report, nil
}

func playOne(ctx context.Context, cfg config.Config, opts Options, i int, id string) (Outcome, error) {
	gameSrc, botSrc := sources(opts.Seed, i)
	clock := sched.NewManual()

	b := &bot{opts: opts, clock: clock, rng: botSrc}
	engineOpts := []engine.Option{
		engine.WithScheduler(clock),
		engine.WithRandom(gameSrc),
		engine.WithIDGenerator(engine.NewFixedGenerator(id)),
		engine.WithLogger(opts.Logger),
		engine.WithListener(b.onEvent),
	}
	if opts.Journal != nil {
		engineOpts = append(engineOpts, engine.WithJournal(opts.Journal))
	}

	s, err := engine.New(cfg, engineOpts...)
	if err != nil {
		return Outcome{}, err
	}
	b.session = s

	if opts.Journal != nil {
		if err := opts.Journal.Begin(ctx, id, cfg.Variant, clock.Now()); err != nil {
			// The journal observes the run; a failed write does not stop it.
			opts.Logger.Error("journal begin failed", "session", id, "error", err)
		}
	}
	return b.play(ctx)
}

// sources derives the game and bot random sources of bot i.
func sources(seed uint64, i int) (game, bot random.Source) {
	if seed == 0 {
		return random.New(), random.New()
	}
	base := seed + uint64(i)*2
	return random.NewSeeded(base), random.NewSeeded(base + 1)
}
