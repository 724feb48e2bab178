package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newTemplatesCommand creates the templates command.
func newTemplatesCommand(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the builtin workflow templates",
		Long: `Templates lists the seeded workflow templates. Instantiate one with
'flowline run --template <id>'; each instantiation gets its own copy of the
template's steps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTEPS\tDESCRIPTION")
			for _, tpl := range a.registry.Templates() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tpl.ID, tpl.Name, len(tpl.Steps), tpl.Description)
			}
			return w.Flush()
		},
	}
	return cmd
}
