package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/application/services/allocation"
	"github.com/vsinha/perishplan/pkg/application/services/model"
	"github.com/vsinha/perishplan/pkg/application/services/validation"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
	"github.com/vsinha/perishplan/pkg/infrastructure/events"
	"github.com/vsinha/perishplan/pkg/infrastructure/metrics"
	"github.com/vsinha/perishplan/pkg/solver"
)

// AllocationMode selects the post-solve batch allocation
type AllocationMode string

const (
	AllocateNone AllocationMode = "none"
	AllocateFEFO AllocationMode = "fefo"
	AllocateLP   AllocationMode = "lp"
)

// ParseAllocationMode parses a mode name; empty means FEFO
func ParseAllocationMode(value string) (AllocationMode, error) {
	switch AllocationMode(value) {
	case "", AllocateFEFO:
		return AllocateFEFO, nil
	case AllocateNone, AllocateLP:
		return AllocationMode(value), nil
	default:
		return "", fmt.Errorf("unknown allocation mode %q (want none, fefo or lp)", value)
	}
}

// Run statuses beyond the solver's own
const (
	StatusRejected = "rejected"
)

// RunOptions configures one planning run
type RunOptions struct {
	Name       string
	Model      model.Config
	Solver     solver.Options
	Allocation AllocationMode
}

// PlanningOrchestrator coordinates build, solve, extraction, allocation and
// validation of one planning run
type PlanningOrchestrator struct {
	builder   *model.Builder
	solver    solver.Solver
	extractor *model.Extractor
	validator *validation.Validator
	logger    *slog.Logger

	events  events.EventStore
	metrics *metrics.Recorder
	repo    repositories.PlanRepository

	now   func() time.Time
	newID func() string
}

// Option customizes a PlanningOrchestrator
type Option func(*PlanningOrchestrator)

// WithEventStore records planning events in store
func WithEventStore(store events.EventStore) Option {
	return func(po *PlanningOrchestrator) { po.events = store }
}

// WithMetrics publishes run metrics to recorder
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(po *PlanningOrchestrator) { po.metrics = recorder }
}

// WithRepository saves every finished run to repo
func WithRepository(repo repositories.PlanRepository) Option {
	return func(po *PlanningOrchestrator) { po.repo = repo }
}

// NewPlanningOrchestrator creates a new planning orchestrator. A nil solver
// uses solver.NewDefault, which is HiGHS unless built with the nohighs tag; a
// nil logger uses slog.Default().
func NewPlanningOrchestrator(s solver.Solver, logger *slog.Logger, opts ...Option) *PlanningOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if s == nil {
		s = solver.NewDefault(logger)
	}
	po := &PlanningOrchestrator{
		builder:   model.NewBuilder(logger),
		solver:    s,
		extractor: model.NewExtractor(logger),
		validator: validation.NewValidator(logger),
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(po)
	}
	return po
}

// Run plans the input end to end. An infeasible or unsolved model is a
// normal outcome reported through the run status. A plan that breaks a
// business rule is rejected: the run is returned without its plan together
// with a *validation.ValidationError.
func (po *PlanningOrchestrator) Run(ctx context.Context, in model.Input, opts RunOptions) (*dto.PlanRun, error) {
	if opts.Allocation == "" {
		opts.Allocation = AllocateFEFO
	}
	started := po.now()
	run := &dto.PlanRun{
		ID:         po.newID(),
		Name:       opts.Name,
		CreatedAt:  started.UTC(),
		Allocation: string(opts.Allocation),
	}
	log := po.logger.With("run", run.ID)

	// Step 1: build the model
	m, err := po.builder.Build(in, opts.Model)
	if err != nil {
		po.observeRun("config_error")
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	stats := m.Problem.Stats()
	po.record(run.ID, events.ModelBuiltEvent, events.ModelBuilt{
		Variables:   stats.Variables,
		Integers:    stats.Integers,
		Constraints: stats.Constraints,
		Folded:      stats.Folded,
		CoefRatio:   stats.CoefficientRatio(),
	})
	if po.metrics != nil {
		po.metrics.ObserveModel(stats.Variables, stats.Integers, stats.Constraints)
	}

	// Step 2: solve
	sol, err := po.solver.Solve(ctx, m.Problem, opts.Solver)
	if err != nil {
		po.observeRun("error")
		return nil, fmt.Errorf("failed to solve model: %w", err)
	}
	run.Status = sol.Status.String()
	po.record(run.ID, events.SolveCompletedEvent, events.SolveCompleted{
		Status:    run.Status,
		Objective: sol.Objective,
		Gap:       sol.Gap,
		Nodes:     sol.Nodes,
		Elapsed:   sol.Elapsed,
	})
	if po.metrics != nil {
		po.metrics.ObserveSolve(sol.Elapsed)
	}
	if !sol.Status.HasSolution() {
		log.Warn("model has no solution", "status", run.Status, "allow_shortages", opts.Model.AllowShortages)
		po.record(run.ID, events.PlanInfeasibleEvent, events.PlanInfeasible{AllowShortages: opts.Model.AllowShortages})
		return po.finish(ctx, run, started)
	}

	// Step 3: extract
	plan, err := po.extractor.Extract(m, sol)
	if err != nil {
		po.observeRun("error")
		return nil, fmt.Errorf("failed to extract plan: %w", err)
	}
	total, _ := plan.Costs.Total.Float64()
	po.record(run.ID, events.PlanExtractedEvent, events.PlanExtracted{
		Production: plan.TotalProduction(),
		Shortage:   plan.TotalShortage(),
		FillRate:   plan.FillRate(),
		TotalCost:  plan.Costs.Total.StringFixed(2),
	})
	log.Info("plan extracted", "objective", plan.Objective, "cost_total", total, "fill_rate", plan.FillRate())

	// Step 4: allocate batches
	if opts.Allocation != AllocateNone {
		report, err := po.allocate(ctx, plan, opts.Allocation)
		if err != nil {
			po.observeRun("error")
			return nil, err
		}
		run.Batches = report.Batches
		po.record(run.ID, events.AllocationCompletedEvent, events.AllocationCompleted{
			Strategy: report.Strategy,
			Batches:  len(report.Batches),
			Events:   report.Events,
		})
	}

	// Step 5: validate; a rejected run keeps neither plan nor batches
	if err := po.validator.Validate(plan, in.Network); err != nil {
		var violation *validation.ValidationError
		if !errors.As(err, &violation) {
			po.observeRun("error")
			return nil, fmt.Errorf("failed to validate plan: %w", err)
		}
		run.Status = StatusRejected
		run.Batches = nil
		run.Violations = violation.Messages()
		po.record(run.ID, events.ValidationFailedEvent, events.ValidationFailed{Violations: run.Violations})
		if po.metrics != nil {
			for _, v := range violation.Violations {
				po.metrics.ObserveViolation(string(v.Rule))
			}
		}
		if _, saveErr := po.finish(ctx, run, started); saveErr != nil {
			return run, errors.Join(err, saveErr)
		}
		return run, err
	}

	run.Plan = plan
	if po.metrics != nil {
		po.metrics.ObserveFillRate(plan.FillRate())
	}
	return po.finish(ctx, run, started)
}

func (po *PlanningOrchestrator) allocate(ctx context.Context, plan *dto.PlanResult, mode AllocationMode) (*allocation.Report, error) {
	var strategy allocation.Strategy = allocation.NewFEFO()
	if mode == AllocateLP {
		strategy = allocation.NewLPAllocator(po.solver)
	}
	report, err := allocation.NewAllocator(strategy, po.logger).Allocate(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate batches: %w", err)
	}
	if err := report.VerifyAgainst(plan); err != nil {
		return nil, fmt.Errorf("failed to reconcile batches with plan: %w", err)
	}
	return report, nil
}

func (po *PlanningOrchestrator) finish(ctx context.Context, run *dto.PlanRun, started time.Time) (*dto.PlanRun, error) {
	run.Duration = po.now().Sub(started)
	po.observeRun(run.Status)
	if po.repo != nil {
		if err := po.repo.Save(ctx, run); err != nil {
			return run, fmt.Errorf("failed to save plan run %s: %w", run.ID, err)
		}
	}
	po.logger.Info("planning run finished", "run", run.ID, "status", run.Status, "duration", run.Duration)
	return run, nil
}

func (po *PlanningOrchestrator) record(runID, eventType string, data any) {
	if po.events == nil {
		return
	}
	if _, err := po.events.Append(runID, eventType, data); err != nil {
		po.logger.Warn("failed to record event", "type", eventType, "error", err)
	}
}

func (po *PlanningOrchestrator) observeRun(status string) {
	if po.metrics != nil {
		po.metrics.ObserveRun(status)
	}
}
