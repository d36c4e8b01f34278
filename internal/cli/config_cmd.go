package cli

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration a session would run with: the variant preset with
the --config file applied over it. Text output is YAML that can be saved
and edited as a config file.

Examples:
  ticketwar config --variant hard
  ticketwar config --config ./game.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode config", err)
			}
			return formatter(rootOpts, cmd).Success(cfg, func(w io.Writer) {
				_, _ = w.Write(data)
			})
		},
	}
}
