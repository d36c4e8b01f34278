package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/journal"
	"github.com/roach88/ticketwar/internal/sched"
	"github.com/roach88/ticketwar/internal/tui"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Journal string
	LogFile string

	// NewScreen returns an initialized screen (for testing).
	// If nil, the real terminal is used.
	NewScreen func() (tcell.Screen, error)

	// IDs allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.IDGenerator
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively in the terminal",
		Long: `Start an interactive session in the terminal.

Every final attempt result is written to the journal: in memory unless
--journal names a SQLite file. Logs go to --log, never to the terminal.

Keys:
  arrows/hjkl  move        space    toggle seat
  r/enter      reserve     c        clear selection
  esc          back        q        quit

Example:
  ticketwar play --variant hard --journal ./attempts.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal file (default in-memory)")
	cmd.Flags().StringVar(&opts.LogFile, "log", "", "write logs to this file")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(opts.RootOptions, logOut)

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			logger.Error("error closing journal", "error", closeErr)
		}
	}()

	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	loop := sched.NewLoop(sched.WithLogger(logger))
	app, err := tui.New(cfg,
		engine.WithScheduler(loop),
		engine.WithIDGenerator(ids),
		engine.WithLogger(logger),
		engine.WithJournal(j),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}
	sessionID := app.Session().ID()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if err := j.Begin(ctx, sessionID, cfg.Variant, time.Now()); err != nil {
		logger.Error("failed to journal session", "session", sessionID, "error", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	newScreen := opts.NewScreen
	if newScreen == nil {
		newScreen = terminalScreen
	}
	screen, err := newScreen()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open terminal", err)
	}

	logger.Info("session starting", "session", sessionID, "variant", cfg.Variant)
	runErr := tui.Run(ctx, screen, app, loop)
	screen.Fini()
	if runErr != nil && runErr != context.DeadlineExceeded {
		return WrapExitError(ExitFailure, "session error", runErr)
	}

	snap := app.Session().Snapshot()
	logger.Info("session ended", "session", sessionID, "state", snap.State, "attempts", snap.Attempts)
	return formatter(opts.RootOptions, cmd).Success(snap, func(w io.Writer) {
		fmt.Fprintf(w, "Session %s ended in state %s.\n", sessionID, snap.State)
	})
}

func terminalScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}
