package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/policy"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a seed service configuration",
		Long: `Validate a seed service configuration file.

The file is checked against the configuration schema, and the configured
policy is actually built, so missing or out-of-range policy parameters are
reported too.

Example:
  seedbank validate job-seeds.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := config.FromYAMLFile(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(tree); err != nil {
				return err
			}
			p, err := policy.New(tree)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (policy %q)\n", args[0], p.Kind())
			return nil
		},
	}
	return cmd
}
