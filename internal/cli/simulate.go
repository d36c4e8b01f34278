package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/journal"
	"github.com/roach88/ticketwar/internal/sim"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Sessions    int
	Seats       int
	MaxAttempts int
	Seed        uint64
	Workers     int
	Journal     string
	Outcomes    bool

	// IDs allows overriding the session id generator (for testing).
	IDs engine.IDGenerator
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run bot sessions and report how they fared",
		Long: `Run automated players against the effective configuration on a virtual
clock and print aggregate results.

Each bot picks a date and --seats free seats, attempts until it confirms,
runs out of budget, sells out or reaches --max-attempts. A fixed --seed
makes the run reproducible regardless of --workers.

Examples:
  ticketwar simulate --variant hard --sessions 1000 --seed 42
  ticketwar simulate --journal ./sim.db --workers 8 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Sessions, "sessions", sim.DefaultSessions, "number of bot sessions")
	cmd.Flags().IntVar(&opts.Seats, "seats", sim.DefaultSeats, "seats each bot tries to reserve")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", sim.DefaultMaxAttempts, "attempts before a bot gives up")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "sessions run in parallel")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal file (default in-memory)")
	cmd.Flags().BoolVar(&opts.Outcomes, "outcomes", false, "include per-session outcomes in JSON output")

	return cmd
}

func runSimulate(opts *SimulateOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Sessions < 1 || opts.Seats < 1 || opts.Workers < 1 {
		return NewExitError(ExitCommandError, "--sessions, --seats and --workers must be positive")
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("simulation starting",
		"variant", cfg.Variant,
		"sessions", opts.Sessions,
		"seats", opts.Seats,
		"seed", opts.Seed,
		"workers", opts.Workers)

	report, err := sim.Run(ctx, cfg, sim.Options{
		Sessions:    opts.Sessions,
		Seats:       opts.Seats,
		MaxAttempts: opts.MaxAttempts,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		Journal:     j,
		IDs:         opts.IDs,
		Logger:      logger,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "simulation failed", err)
	}
	logger.Info("simulation finished", "confirmed", report.Confirmed, "attempts", report.Attempts)

	if !opts.Outcomes {
		report.Outcomes = nil
	}
	return formatter(opts.RootOptions, cmd).Success(report, func(w io.Writer) {
		_, _ = io.WriteString(w, report.Text(language.English))
	})
}
