package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the flowline root command with all subcommands
// attached.
func NewRootCommand(version, commit string) *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "flowline",
		Short: "Workflow automation engine",
		Long: `Flowline runs YAML-defined workflows: ordered steps dispatched to typed
handlers, sequentially with output chaining or as a parallel fan-out.

Every run produces a full execution record: per-step results, timings, and
any failures as data.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default: built-in defaults)")

	cmd.AddCommand(
		newRunCommand(&cfgPath),
		newTemplatesCommand(&cfgPath),
		newValidateCommand(),
		newExecutionsCommand(&cfgPath),
		newServeCommand(&cfgPath),
	)
	return cmd
}
