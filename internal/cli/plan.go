package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/seedbank/internal/audit"
	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
	"github.com/roach88/seedbank/internal/service"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Engines []string
	Audit   string
}

// planRow is one line of the computed seed table.
type planRow struct {
	Engine string `json:"engine"`
	Seed   uint32 `json:"seed"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <config.yaml>",
		Short: "Compute the seed table a configuration would produce",
		Long: `Compute the seeds a job would assign to a given set of engines.

Engines are named module[.instance]; prefix an instance name with @ for a
global engine. Registration is simulated the way the host framework would
drive it, so range checks, collision checks and table lookups all apply.

Example:
  seedbank plan job-seeds.yaml --engines generator,filter.aux,@pool
  seedbank plan job-seeds.yaml --engines generator --audit seeds.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&opts.Engines, "engines", nil, "engines to seed, as module[.instance] or @instance")
	cmd.Flags().StringVar(&opts.Audit, "audit", "", "record assignments into this SQLite database")
	return cmd
}

func runPlan(opts *PlanOptions, configPath string, out io.Writer) error {
	tree, err := config.FromYAMLFile(configPath)
	if err != nil {
		return err
	}

	var svcOpts []service.Option
	svcOpts = append(svcOpts, service.WithSummaryWriter(io.Discard))
	if opts.Audit != "" {
		log, err := audit.Open(opts.Audit)
		if err != nil {
			return err
		}
		defer log.Close()
		svcOpts = append(svcOpts, service.WithAudit(log))
	}

	svc, err := service.New(tree, svcOpts...)
	if err != nil {
		return err
	}

	ids, err := parseEngineSpecs(opts.Engines)
	if err != nil {
		return err
	}

	noop := func(seed.EngineID, seed.Seed) {}
	var rows []planRow
	for _, id := range ids {
		var value seed.Seed
		if id.IsGlobal() {
			value, err = svc.RegisterGlobalEngine(noop, id.Instance)
		} else {
			err = inConstruction(svc, id.Module, func() error {
				var rerr error
				value, rerr = svc.RegisterEngine(noop, id.Instance)
				return rerr
			})
		}
		if err != nil {
			return fmt.Errorf("engine %s: %w", id, err)
		}
		rows = append(rows, planRow{Engine: id.String(), Seed: uint32(value)})
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Fprintf(out, "%-32s %12s\n", "ENGINE", "SEED")
	for _, row := range rows {
		fmt.Fprintf(out, "%-32s %12d\n", row.Engine, row.Seed)
	}
	return nil
}

// inConstruction brackets fn in a module-construction window.
func inConstruction(svc *service.Service, label string, fn func() error) error {
	if err := svc.PreModuleConstruction(service.ModuleInfo{Label: label, Process: "seedbank-plan"}); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return svc.PostModuleConstruction()
}

// parseEngineSpecs turns the --engines list into engine IDs, global
// engines first so their registration falls in the service-construction
// window.
func parseEngineSpecs(specs []string) ([]seed.EngineID, error) {
	var globals, scoped []seed.EngineID
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			return nil, fmt.Errorf("empty engine spec")
		}
		if strings.HasPrefix(spec, "@") {
			globals = append(globals, seed.GlobalEngineID(spec[1:]))
			continue
		}
		module, instance, _ := strings.Cut(spec, ".")
		if module == "" {
			return nil, fmt.Errorf("engine spec %q: missing module label", spec)
		}
		scoped = append(scoped, seed.NewEngineID(module, instance))
	}
	return append(globals, scoped...), nil
}
