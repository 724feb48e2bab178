package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowline-dev/flowline/pkg/workflow"
)

// newExecutionsCommand creates the executions command.
func newExecutionsCommand(cfgPath *string) *cobra.Command {
	var (
		workflowID string
		status     string
		limit      int
		offset     int
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "executions [execution-id]",
		Short: "Inspect execution history",
		Long: `Executions lists stored execution records, or shows one record in full
when given its ID. History only outlives the process with the sqlite
backend configured (history.backend: sqlite).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if len(args) == 1 {
				exec, err := a.engine.ExecutionStatus(ctx, args[0])
				if err != nil {
					return err
				}
				return printExecutionJSON(cmd, exec)
			}

			execs, err := a.engine.ListExecutions(ctx, workflow.ExecutionFilter{
				WorkflowID: workflowID,
				Status:     workflow.Status(status),
				Limit:      limit,
				Offset:     offset,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(execs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWORKFLOW\tSTATUS\tSTARTED\tDURATION\tSTEPS")
			for _, e := range execs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					e.ID, e.WorkflowID, e.Status,
					e.StartedAt.Format(time.RFC3339),
					e.Duration.Round(time.Millisecond),
					len(e.Results),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "Filter by workflow ID")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (running, completed, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum records to return (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip from the oldest")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print records as JSON")

	return cmd
}
