//go:build !nohighs

package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/lanl/highs"
)

// feasiblePrimal is HiGHS's kHighsSolutionStatusFeasible
const feasiblePrimal = 2

// HiGHS solves problems with the HiGHS MILP solver through cgo
type HiGHS struct {
	logger *slog.Logger
}

// NewHiGHS creates a HiGHS-backed solver; a nil logger uses slog.Default()
func NewHiGHS(logger *slog.Logger) *HiGHS {
	if logger == nil {
		logger = slog.Default()
	}
	return &HiGHS{logger: logger}
}

// NewDefault returns the solver used when a caller configures none
func NewDefault(logger *slog.Logger) Solver {
	return NewHiGHS(logger)
}

// Solve minimizes p. HiGHS runs to completion once started, so ctx is only
// checked up front and its deadline caps the time limit.
func (s *HiGHS) Solve(ctx context.Context, p *Problem, opts Options) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem %s: %w", p.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	n := p.NumVariables()
	if n == 0 {
		sol := NewSolution(StatusOptimal, p.objective.Constant, nil)
		sol.Elapsed = time.Since(start)
		return sol, nil
	}

	m, integers, err := loadHiGHS(p)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s into HiGHS: %w", p.Name, err)
	}
	if err := configure(ctx, m, opts); err != nil {
		return nil, fmt.Errorf("failed to configure HiGHS: %w", err)
	}

	raw, err := m.Solve()
	var call highs.CallStatus
	if errors.As(err, &call) && call.IsWarning() {
		// the binding drops the incumbent when HiGHS stops on a limit
		s.logger.Warn("HiGHS stopped on a limit", "problem", p.Name, "elapsed", time.Since(start))
		return &Solution{Status: StatusNoSolution, Elapsed: time.Since(start)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("HiGHS failed on %s: %w", p.Name, err)
	}

	sol := &Solution{Elapsed: time.Since(start)}
	switch raw.Status {
	case highs.Optimal:
		sol.Status = StatusOptimal
	case highs.Infeasible, highs.UnboundedOrInfeasible:
		sol.Status = StatusInfeasible
	case highs.Unbounded:
		sol.Status = StatusUnbounded
	default:
		if ps, err := raw.GetIntInfo("primal_solution_status"); err == nil && ps == feasiblePrimal {
			sol.Status = StatusFeasible
		} else {
			sol.Status = StatusNoSolution
		}
	}
	if iters, err := raw.GetIntInfo("simplex_iteration_count"); err == nil {
		sol.Iterations = iters
	}

	if sol.Status.HasSolution() {
		sol.values = roundIntegers(p, raw.ColumnPrimal[:n])
		sol.Objective = evaluate(p.objective, sol.values)
		sol.BestBound = sol.Objective
		if integers {
			if nodes, err := raw.GetInt64Info("mip_node_count"); err == nil {
				sol.Nodes = int(nodes)
			}
			if bound, err := raw.GetFloat64Info("mip_dual_bound"); err == nil && !math.IsInf(bound, 0) {
				sol.BestBound = bound
				sol.Gap = relativeGap(sol.Objective, bound)
			}
		}
	}

	s.logger.Info("solve finished",
		"problem", p.Name,
		"backend", "highs",
		"status", sol.Status.String(),
		"highs_status", raw.Status.String(),
		"objective", sol.Objective,
		"nodes", sol.Nodes,
		"elapsed", sol.Elapsed)
	return sol, nil
}

// loadHiGHS copies p into a HiGHS model as compressed sparse rows and reports
// whether any column is integral
func loadHiGHS(p *Problem) (*highs.RawModel, bool, error) {
	m := highs.NewRawModel()
	if err := m.SetBoolOption("output_flag", false); err != nil {
		return nil, false, err
	}

	n := p.NumVariables()
	lower := make([]float64, n)
	upper := make([]float64, n)
	types := make([]highs.VariableType, n)
	integers := false
	for j, v := range p.vars {
		lower[j], upper[j] = v.Lower, v.Upper
		if v.Kind != Continuous {
			types[j] = highs.IntegerType
			integers = true
		}
	}
	if err := m.AddColumnBounds(lower, upper); err != nil {
		return nil, false, err
	}

	costs := make([]float64, n)
	for _, t := range p.objective.Terms {
		costs[t.Var] += t.Coef
	}
	if err := m.SetColumnCosts(costs); err != nil {
		return nil, false, err
	}
	if p.objective.Constant != 0 {
		if err := m.SetOffset(p.objective.Constant); err != nil {
			return nil, false, err
		}
	}
	if integers {
		if err := m.SetIntegrality(types); err != nil {
			return nil, false, err
		}
	}

	rowLower, rowUpper, starts, index, value := sparseRows(p.constraints)
	if len(starts) == 0 {
		// HiGHS reads back row values even for a bound-only model
		rowLower, rowUpper = []float64{math.Inf(-1)}, []float64{math.Inf(1)}
		starts, index, value = []int{0}, []int{0}, []float64{1}
	}
	if err := m.AddCompSparseRows(rowLower, starts, index, value, rowUpper); err != nil {
		return nil, false, err
	}
	return m, integers, nil
}

// sparseRows turns folded constraints into row bounds and CSR arrays. Folded
// constraints carry their constant on the right-hand side.
func sparseRows(constraints []Constraint) (lower, upper []float64, starts, index []int, value []float64) {
	for _, c := range constraints {
		lo, hi := math.Inf(-1), math.Inf(1)
		switch c.Sense {
		case LessEqual:
			hi = c.RHS
		case GreaterEqual:
			lo = c.RHS
		default:
			lo, hi = c.RHS, c.RHS
		}
		lower = append(lower, lo)
		upper = append(upper, hi)
		starts = append(starts, len(index))
		for _, t := range c.Expr.Terms {
			index = append(index, int(t.Var))
			value = append(value, t.Coef)
		}
	}
	return lower, upper, starts, index, value
}

func configure(ctx context.Context, m *highs.RawModel, opts Options) error {
	limit := opts.TimeLimit
	if deadline, ok := ctx.Deadline(); ok {
		left := max(time.Until(deadline), time.Millisecond)
		if limit <= 0 || left < limit {
			limit = left
		}
	}
	if limit > 0 {
		if err := m.SetFloat64Option("time_limit", limit.Seconds()); err != nil {
			return err
		}
	}
	if opts.GapTolerance > 0 {
		if err := m.SetFloat64Option("mip_rel_gap", opts.GapTolerance); err != nil {
			return err
		}
	}
	if opts.MaxNodes > 0 {
		if err := m.SetIntOption("mip_max_nodes", opts.MaxNodes); err != nil {
			return err
		}
	}
	return nil
}
