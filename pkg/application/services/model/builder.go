package model

import (
	"fmt"
	"log/slog"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/domain/services"
	"github.com/vsinha/perishplan/pkg/solver"
)

// CoefficientRangeLimit is the max/min constraint coefficient ratio above
// which a build logs a conditioning warning
const CoefficientRangeLimit = 1e6

// Builder turns planning input into a MILP
type Builder struct {
	logger   *slog.Logger
	expander *services.RouteExpander
}

// NewBuilder creates a model builder; a nil logger uses slog.Default()
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger:   logger,
		expander: services.NewRouteExpander(),
	}
}

// Build validates the input and emits the full model. Configuration problems
// are returned as a *ConfigError before any constraint is created.
func (b *Builder) Build(in Input, cfg Config) (*Model, error) {
	m, err := b.index(in, cfg)
	if err != nil {
		return nil, err
	}
	m.Problem = solver.NewProblem(fmt.Sprintf("plan %s..%s", m.Horizon.Start().Format(entities.DateLayout), m.Horizon.End().Format(entities.DateLayout)))
	m.addVariables()

	steps := []struct {
		name string
		add  func() error
	}{
		{"flow decomposition", m.addDecomposition},
		{"demand", m.addDemand},
		{"state balance", m.addBalance},
		{"shelf life", m.addShelfLife},
		{"capacity", m.addCapacity},
		{"labor", m.addLabor},
		{"changeover", m.addChangeovers},
	}
	for _, step := range steps {
		if err := step.add(); err != nil {
			return nil, fmt.Errorf("failed to add %s constraints: %w", step.name, err)
		}
	}
	m.addObjective()

	stats := m.Problem.Stats()
	b.logger.Info("model built",
		"days", m.Days(),
		"nodes", len(m.nodes),
		"products", len(m.products),
		"routes", len(m.routes),
		"variables", stats.Variables,
		"integers", stats.Integers,
		"constraints", stats.Constraints,
		"folded", stats.Folded)
	if ratio := stats.CoefficientRatio(); ratio > CoefficientRangeLimit {
		b.logger.Warn("wide constraint coefficient range",
			"min", stats.MinCoef,
			"max", stats.MaxCoef,
			"ratio", ratio)
	}
	return m, nil
}
