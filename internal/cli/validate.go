package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowline-dev/flowline/pkg/workflow"
)

// newValidateCommand creates the validate command.
func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file-or-dir>",
		Short: "Check workflow definition files",
		Long: `Validate parses workflow definition files without executing anything.
Given a directory, every .yaml and .yml file underneath it is checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}

			if info.IsDir() {
				defs, err := workflow.LoadDir(path)
				if err != nil {
					return err
				}
				for _, def := range defs {
					fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d steps)\n", def.Name, len(def.Steps))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d workflow(s) valid\n", len(defs))
				return nil
			}

			def, err := workflow.LoadDefinition(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d steps)\n", def.Name, len(def.Steps))
			return nil
		},
	}
	return cmd
}
