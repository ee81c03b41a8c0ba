package solver

import (
	"context"
	"math"
	"time"
)

// Status is the termination status of a solve
type Status int

const (
	// StatusOptimal means the incumbent is optimal within the gap tolerance
	StatusOptimal Status = iota
	// StatusFeasible means a limit was reached with an incumbent that is not
	// proven optimal
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	// StatusNoSolution means a limit was reached before any incumbent was found
	StatusNoSolution
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "no_solution"
	}
}

// HasSolution reports whether variable values are available
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Options bounds a solve
type Options struct {
	TimeLimit    time.Duration
	GapTolerance float64
	MaxNodes     int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		TimeLimit:    30 * time.Second,
		GapTolerance: 1e-4,
		MaxNodes:     100000,
	}
}

// Solver solves a minimization problem
type Solver interface {
	Solve(ctx context.Context, p *Problem, opts Options) (*Solution, error)
}

// Reading is a single value read back from a solution. OK is false when the
// solver produced no value for the variable.
type Reading struct {
	Value float64
	OK    bool
}

// Solution is the result of a solve
type Solution struct {
	Status     Status
	Objective  float64
	BestBound  float64
	Gap        float64
	Nodes      int
	Iterations int
	Elapsed    time.Duration
	values     []float64
}

// NewSolution creates a solution from raw values. NaN entries are unreadable.
func NewSolution(status Status, objective float64, values []float64) *Solution {
	return &Solution{Status: status, Objective: objective, BestBound: objective, values: values}
}

// Value reads the value of v
func (s *Solution) Value(v VarID) Reading {
	if s == nil || !v.Exists() || int(v) >= len(s.values) {
		return Reading{}
	}
	x := s.values[v]
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Reading{}
	}
	return Reading{Value: x, OK: true}
}

// NumValues returns how many values the solution carries
func (s *Solution) NumValues() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}
