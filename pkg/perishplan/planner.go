// Package perishplan is the library entry point for planning perishable
// production and distribution. It wires the planning orchestrator to a plan
// store and an event log so callers need only an Input or a scenario file.
package perishplan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/application/services/model"
	"github.com/vsinha/perishplan/pkg/application/services/orchestration"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
	"github.com/vsinha/perishplan/pkg/infrastructure/config"
	"github.com/vsinha/perishplan/pkg/infrastructure/events"
	"github.com/vsinha/perishplan/pkg/infrastructure/metrics"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/perishplan/pkg/solver"
)

type (
	Input          = model.Input
	Options        = orchestration.RunOptions
	AllocationMode = orchestration.AllocationMode
	Run            = dto.PlanRun
	RunSummary     = dto.PlanRunSummary
)

const (
	AllocateNone = orchestration.AllocateNone
	AllocateFEFO = orchestration.AllocateFEFO
	AllocateLP   = orchestration.AllocateLP
)

// PlannerConfig holds optional collaborators for a Planner
type PlannerConfig struct {
	Logger *slog.Logger
	// Solver defaults to HiGHS
	Solver solver.Solver
	// DatabasePath keeps runs in SQLite; empty keeps them in memory
	DatabasePath string
	Metrics      *metrics.Recorder
}

// Planner plans inputs and keeps every finished run
type Planner struct {
	orchestrator *orchestration.PlanningOrchestrator
	runs         repositories.PlanRepository
	events       *events.InMemoryEventStore
	closeFn      func() error
}

// NewPlanner creates a planner that keeps runs in memory
func NewPlanner() *Planner {
	p, _ := NewPlannerWithConfig(PlannerConfig{})
	return p
}

// NewPlannerWithConfig creates a planner with custom collaborators
func NewPlannerWithConfig(cfg PlannerConfig) (*Planner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Planner{
		events:  events.NewInMemoryEventStore(logger),
		closeFn: func() error { return nil },
	}
	if cfg.DatabasePath != "" {
		repo, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open plan database: %w", err)
		}
		p.runs = repo
		p.closeFn = repo.Close
	} else {
		p.runs = memory.NewPlanRepository()
	}

	opts := []orchestration.Option{
		orchestration.WithEventStore(p.events),
		orchestration.WithRepository(p.runs),
	}
	if cfg.Metrics != nil {
		opts = append(opts, orchestration.WithMetrics(cfg.Metrics))
	}
	p.orchestrator = orchestration.NewPlanningOrchestrator(cfg.Solver, logger, opts...)
	return p, nil
}

// DefaultOptions returns run options for an inclusive horizon with FEFO
// allocation and the default solver limits
func DefaultOptions(start, end time.Time) Options {
	return Options{
		Model:      model.DefaultConfig(start, end),
		Solver:     solver.DefaultOptions(),
		Allocation: AllocateFEFO,
	}
}

// Plan runs one planning cycle over in. A rejected plan returns the run
// together with the validation error.
func (p *Planner) Plan(ctx context.Context, in Input, opts Options) (*Run, error) {
	return p.orchestrator.Run(ctx, in, opts)
}

// PlanScenario loads a scenario file and plans it
func (p *Planner) PlanScenario(ctx context.Context, path string) (*Run, error) {
	scenario, err := config.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	in, opts, err := scenario.Build()
	if err != nil {
		return nil, err
	}
	return p.Plan(ctx, in, opts)
}

// Get returns a stored run by ID
func (p *Planner) Get(ctx context.Context, id string) (*Run, error) {
	return p.runs.Get(ctx, id)
}

// List returns summaries of every stored run, newest first
func (p *Planner) List(ctx context.Context) ([]RunSummary, error) {
	return p.runs.List(ctx)
}

// History returns the event types recorded for a run in order
func (p *Planner) History(runID string) ([]string, error) {
	evs, err := p.events.Run(runID)
	if err != nil {
		return nil, err
	}
	types := make([]string, len(evs))
	for i, e := range evs {
		types[i] = e.Type
	}
	return types, nil
}

// Close releases the plan database, if any
func (p *Planner) Close() error {
	return p.closeFn()
}
