package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/seedbank/internal/harness"
)

// NewTestCommand creates the test command, which runs scenario files
// through the conformance harness.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml...>",
		Short: "Run seed scenarios and print their traces",
		Long: `Run one or more scenario files through the conformance harness.

Each scenario registers its engines and processes its events against a real
seed service; the resulting trace of seed assignments is printed.

Example:
  seedbank test scenarios/auto-increment.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				sc, err := harness.LoadScenario(path)
				if err != nil {
					return err
				}
				trace, err := harness.Run(sc)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Name, err)
				}

				if rootOpts.Format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(trace); err != nil {
						return err
					}
					continue
				}

				fmt.Fprintf(out, "scenario %s: %d steps\n", trace.Scenario, len(trace.Steps))
				for _, step := range trace.Steps {
					if step.Action == "reseed" {
						fmt.Fprintf(out, "  %-8s %-28s %12d  (run %d subrun %d event %d)\n",
							step.Action, step.Engine, step.Seed, step.Run, step.SubRun, step.Event)
						continue
					}
					fmt.Fprintf(out, "  %-8s %-28s %12d\n", step.Action, step.Engine, step.Seed)
				}
			}
			return nil
		},
	}
	return cmd
}
