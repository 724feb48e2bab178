package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowline-dev/flowline/pkg/workflow"
)

// newRunCommand creates the run command.
func newRunCommand(cfgPath *string) *cobra.Command {
	var (
		inputs     []string
		parallel   bool
		template   string
		outputFile string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "run [workflow-file]",
		Short: "Execute a workflow",
		Long: `Run executes a workflow from a YAML definition file, or instantiates one
of the builtin templates with --template.

Steps run sequentially by default, each step's output feeding the next
step's input. With --parallel every step runs concurrently against the
original input and results come back in declaration order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (template == "") {
				return fmt.Errorf("provide either a workflow file or --template")
			}

			input, err := parseInputs(inputs)
			if err != nil {
				return err
			}

			a, err := newApp(*cfgPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			var id string
			if template != "" {
				var tpl *workflow.Template
				tpl, err = a.registry.Template(template)
				if err == nil {
					id, err = a.registry.Create(tpl.Name, nil, workflow.FromTemplate(template))
				}
			} else {
				var def *workflow.Definition
				def, err = workflow.LoadDefinition(args[0])
				if err == nil {
					id, err = a.registry.CreateFromDefinition(def)
				}
			}
			if err != nil {
				return err
			}

			var opts []workflow.ExecuteOption
			if parallel {
				opts = append(opts, workflow.Parallel())
			}

			exec, err := a.engine.Execute(cmd.Context(), id, input, opts...)
			if err != nil {
				return err
			}

			if outputFile != "" {
				data, err := json.MarshalIndent(exec, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outputFile, data, 0o644); err != nil {
					return fmt.Errorf("failed to write output file: %w", err)
				}
			}

			if jsonOut {
				return printExecutionJSON(cmd, exec)
			}
			printExecution(cmd, exec)
			if exec.Status == workflow.StatusFailed {
				return fmt.Errorf("execution %s failed: %s", exec.ID, exec.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "Workflow input in key=value format")
	cmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "Run all steps concurrently against the original input")
	cmd.Flags().StringVarP(&template, "template", "t", "", "Instantiate a builtin template instead of a file")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the execution record to a JSON file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the execution record as JSON")

	return cmd
}

// printExecution renders an execution record for humans.
func printExecution(cmd *cobra.Command, exec *workflow.Execution) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Execution %s: %s (%s)\n", exec.ID, exec.Status, exec.Duration.Round(time.Millisecond))
	for _, r := range exec.Results {
		marker := "ok"
		detail := ""
		if r.Status == workflow.ResultFailed {
			marker = "FAILED"
			detail = " " + r.Error
		}
		fmt.Fprintf(out, "  [%s] %s (%s)%s\n", marker, r.Step, r.Type, detail)
	}
	if exec.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", exec.Error)
	}
}

func printExecutionJSON(cmd *cobra.Command, exec *workflow.Execution) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(exec)
}
