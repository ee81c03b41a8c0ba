package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/vsinha/perishplan/pkg/application/services/orchestration"
	"github.com/vsinha/perishplan/pkg/application/services/validation"
	"github.com/vsinha/perishplan/pkg/infrastructure/config"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/perishplan/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command
type Config struct {
	ScenarioFile string
	OutputDir    string
	Format       string
	// TimeLimit and Allocation override the scenario when set
	TimeLimit  time.Duration
	Allocation string
	// DatabasePath saves the run to a SQLite database when set
	DatabasePath string
	Verbose      bool
	Help         bool
	Stdout       io.Writer
}

// PlanCommand loads a scenario, plans it and renders the run
type PlanCommand struct {
	config Config
	logger *slog.Logger
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config, logger *slog.Logger) *PlanCommand {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanCommand{config: config, logger: logger}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if c.config.ScenarioFile == "" {
		return fmt.Errorf("validation error: must specify -scenario file")
	}

	out := c.config.Stdout
	if c.config.Verbose {
		fmt.Fprintf(out, "🚀 Perishable Supply Planner\n")
		fmt.Fprintf(out, "Scenario: %s\n", c.config.ScenarioFile)
		fmt.Fprintf(out, "Output format: %s\n\n", c.config.Format)
		fmt.Fprintln(out, "📂 Loading scenario...")
	}

	scenario, err := config.LoadScenario(c.config.ScenarioFile)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	in, opts, err := scenario.Build()
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	if c.config.TimeLimit > 0 {
		opts.Solver.TimeLimit = c.config.TimeLimit
	}
	if c.config.Allocation != "" {
		if opts.Allocation, err = orchestration.ParseAllocationMode(c.config.Allocation); err != nil {
			return fmt.Errorf("validation error: %w", err)
		}
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "✅ Scenario loaded:\n")
		fmt.Fprintf(out, "  Nodes: %d\n", len(in.Network.Nodes))
		fmt.Fprintf(out, "  Routes: %d\n", len(in.Network.Routes))
		fmt.Fprintf(out, "  Trucks: %d\n", len(in.Network.Trucks))
		fmt.Fprintf(out, "  Products: %d\n", len(in.Network.Products))
		fmt.Fprintf(out, "  Demand entries: %d\n", len(in.Demand))
		fmt.Fprintf(out, "  Labor days: %d\n\n", in.Labor.Len())
	}

	var orchestratorOpts []orchestration.Option
	if c.config.DatabasePath != "" {
		repo, err := sqlite.Open(c.config.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open plan database: %w", err)
		}
		defer repo.Close()
		orchestratorOpts = append(orchestratorOpts, orchestration.WithRepository(repo))
	}
	orchestrator := orchestration.NewPlanningOrchestrator(nil, c.logger, orchestratorOpts...)

	if c.config.Verbose {
		fmt.Fprintf(out, "🔄 Solving (time limit %v, allocation %s)...\n", opts.Solver.TimeLimit, opts.Allocation)
	}
	run, err := orchestrator.Run(ctx, in, opts)
	if err != nil && !errors.Is(err, validation.ErrBusinessRuleViolation) {
		return fmt.Errorf("error running planner: %w", err)
	}
	if c.config.Verbose {
		fmt.Fprintf(out, "✅ Run %s finished in %v\n\n", run.ID, run.Duration)
	}

	if genErr := output.Generate(run, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Stdout:    out,
	}); genErr != nil {
		return fmt.Errorf("error generating output: %w", genErr)
	}
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintln(out, "🏁 Planning complete!")
	}
	return nil
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprint(c.config.Stdout, `Perishable Supply Planner - production, shipping and shelf-life planning

USAGE:
    planner plan -scenario <file> [options]
    planner generate -output <dir> [options]
    planner runs -db <file> [-id <run>]

PLAN OPTIONS:
    -scenario <file>     Scenario YAML file
    -output <dir>        Output directory for results (optional)
    -format <fmt>        Output format: text, json, csv, svg (default: text)
    -time-limit <dur>    Solver time limit, e.g. 30s (overrides the scenario)
    -allocation <mode>   Batch allocation: fefo, lp, none (overrides the scenario)
    -db <file>           Save the run to a SQLite database
    -verbose             Enable verbose output
    -help                Show this help message

SCENARIO FILE:
    name: weekly
    horizon: {start: 2025-01-06, end: 2025-01-19}
    solver: {time_limit: 30s}
    costs: {production_per_unit: 1, shortage_per_unit: 10, disposal_per_unit: 15}
    network:
      nodes:    [{id: MFG, produces: true, ambient: true, production_rate: 100}, ...]
      routes:   [{id: MFG-DC, origin: MFG, destination: DC, transit_days: 1}, ...]
      trucks:   [{id: T1, origin: MFG, destination: DC, days: [mon, thu], pallet_capacity: 26}]
      products: [{id: P1, units_per_pallet: 100}]
    demand: {file: demand.csv}
    labor: {file: labor.csv}
    inventory: {snapshot: 2025-01-05, file: inventory.csv}

CSV FILE FORMATS:

demand.csv:
    node,product,date,quantity
    DC,P1,2025-01-08,120

inventory.csv:
    node,product,state,quantity
    HUB,P1,frozen,300

labor.csv:
    date,fixed_hours,max_hours,regular_rate,overtime_rate,non_fixed_rate,minimum_hours
    2025-01-06,12,14,25,37.5,,

EXAMPLES:
    planner plan -scenario scenarios/two_echelon/scenario.yaml -verbose
    planner plan -scenario scenarios/two_echelon/scenario.yaml -format csv -output results/
    planner plan -scenario scenarios/two_echelon/scenario.yaml -allocation lp -db plans.db
`)
}
