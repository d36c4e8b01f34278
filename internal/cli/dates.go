package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewDatesCommand creates the dates command.
func NewDatesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the selectable dates",
		Long: `List the dates of the effective configuration in display order.

Examples:
  ticketwar dates
  ticketwar dates --config ./game.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return formatter(rootOpts, cmd).Success(cfg.Grid.Dates, func(w io.Writer) {
				for _, d := range cfg.Grid.Dates {
					fmt.Fprintf(w, "%s  %s\n", d.ID, d.Label)
				}
			})
		},
	}
}
