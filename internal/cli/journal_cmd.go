package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ticketwar/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Session  string
}

// JournalReport is the JSON payload of the journal command.
type JournalReport struct {
	Summary  journal.Summary       `json:"summary"`
	Sessions []journal.SessionInfo `json:"sessions,omitempty"`
	Entries  []journal.Entry       `json:"entries,omitempty"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Summarize a recorded attempt journal",
		Long: `Read a journal written by play or simulate.

Without --session the command prints totals across every session and
lists the sessions. With --session it prints that session's totals and
every recorded attempt in order.

Examples:
  ticketwar journal --db ./sim.db
  ticketwar journal --db ./sim.db --session 0193a5b2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "show a single session")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", opts.Database))
	}
	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	report := JournalReport{}
	report.Summary, err = j.Summary(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize journal", err)
	}

	if opts.Session == "" {
		report.Sessions, err = j.Sessions(ctx)
	} else {
		report.Entries, err = j.Entries(ctx, opts.Session)
		if err == nil && len(report.Entries) == 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	return formatter(opts.RootOptions, cmd).Success(report, func(w io.Writer) {
		writeJournalText(w, report)
	})
}

func writeJournalText(w io.Writer, r JournalReport) {
	s := r.Summary
	fmt.Fprintf(w, "Sessions: %d   Entries: %d\n", s.Sessions, s.Entries)
	fmt.Fprintf(w, "Seats confirmed: %d   Seats stolen: %d\n", s.SeatsConfirmed, s.SeatsStolen)
	fmt.Fprintf(w, "Rolled: %d   Mean probability: %.3f\n", s.Rolled, s.MeanProbability)

	writeCounts(w, "Results:", s.ByKind)
	writeCounts(w, "Reasons:", s.ByReason)

	if len(r.Sessions) > 0 {
		fmt.Fprintln(w, "Sessions:")
		for _, info := range r.Sessions {
			variant := info.Variant
			if variant == "" {
				variant = "-"
			}
			fmt.Fprintf(w, "  %s  %-8s %3d entries  last: %s\n", info.ID, variant, info.Entries, info.LastKind)
		}
	}
	if len(r.Entries) > 0 {
		fmt.Fprintln(w, "Attempts:")
		for _, e := range r.Entries {
			fmt.Fprintf(w, "  #%-3d %-8s %-13s %-12s", e.Attempt, e.DateLabel, e.Kind, e.Reason)
			if len(e.Seats) > 0 {
				fmt.Fprintf(w, " seats=%s", joinIDs(e.Seats))
			}
			if len(e.Stolen) > 0 {
				fmt.Fprintf(w, " stolen=%s", joinIDs(e.Stolen))
			}
			if e.CooldownSeconds > 0 {
				fmt.Fprintf(w, " cooldown=%ds", e.CooldownSeconds)
			}
			if e.Rolled {
				fmt.Fprintf(w, " p=%.3f roll=%.3f", e.Probability, e.Roll)
			}
			fmt.Fprintln(w)
		}
	}
}

func writeCounts[K ~string](w io.Writer, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	fmt.Fprintln(w, title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-14s %d\n", k, counts[k])
	}
}

func joinIDs[S ~string](ids []S) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
