package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

const integralityTolerance = 1e-6

// BranchAndBound is a depth-first MILP solver over LP relaxations
type BranchAndBound struct {
	logger *slog.Logger
}

// NewBranchAndBound creates a solver; a nil logger uses slog.Default()
func NewBranchAndBound(logger *slog.Logger) *BranchAndBound {
	if logger == nil {
		logger = slog.Default()
	}
	return &BranchAndBound{logger: logger}
}

type bbNode struct {
	lower []float64
	upper []float64
	bound float64
}

// Solve minimizes p. Limits in opts end the search early: with an incumbent
// the status is StatusFeasible, without one StatusNoSolution.
func (s *BranchAndBound) Solve(ctx context.Context, p *Problem, opts Options) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem %s: %w", p.Name, err)
	}
	start := time.Now()
	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
	}

	n := p.NumVariables()
	root := bbNode{lower: make([]float64, n), upper: make([]float64, n), bound: math.Inf(-1)}
	for j, v := range p.vars {
		root.lower[j], root.upper[j] = v.Lower, v.Upper
		if v.Kind != Continuous {
			root.lower[j] = math.Ceil(v.Lower - integralityTolerance)
			root.upper[j] = math.Floor(v.Upper + integralityTolerance)
		}
	}

	var (
		stack      = []bbNode{root}
		incumbent  []float64
		best       = math.Inf(1)
		nodes      int
		iterations int
		limited    bool
	)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if (!deadline.IsZero() && time.Now().After(deadline)) || (opts.MaxNodes > 0 && nodes >= opts.MaxNodes) {
			limited = true
			break
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if incumbent != nil && node.bound >= best-pruneMargin(best, opts.GapTolerance) {
			continue
		}

		res, err := solveLP(p, node.lower, node.upper, deadline)
		nodes++
		iterations += res.iterations
		if errors.Is(err, errDeadline) {
			stack = append(stack, node)
			limited = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", nodes, err)
		}

		switch res.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			if nodes == 1 {
				return &Solution{Status: StatusUnbounded, Nodes: nodes, Iterations: iterations, Elapsed: time.Since(start)}, nil
			}
			continue
		}
		if incumbent != nil && res.objective >= best-pruneMargin(best, opts.GapTolerance) {
			continue
		}

		j := mostFractional(p, res.x)
		if j < 0 {
			incumbent = roundIntegers(p, res.x)
			best = evaluate(p.objective, incumbent)
			s.logger.Debug("new incumbent", "problem", p.Name, "objective", best, "node", nodes)
			continue
		}

		v := res.x[j]
		down := bbNode{lower: node.lower, upper: cloneWith(node.upper, j, math.Floor(v)), bound: res.objective}
		up := bbNode{lower: cloneWith(node.lower, j, math.Ceil(v)), upper: node.upper, bound: res.objective}
		if v-math.Floor(v) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	sol := &Solution{Nodes: nodes, Iterations: iterations, Elapsed: time.Since(start)}
	switch {
	case incumbent == nil && limited:
		sol.Status = StatusNoSolution
	case incumbent == nil:
		sol.Status = StatusInfeasible
	default:
		sol.values = incumbent
		sol.Objective = best
		sol.BestBound = best
		sol.Status = StatusOptimal
		if limited {
			for _, open := range stack {
				sol.BestBound = math.Min(sol.BestBound, open.bound)
			}
			sol.Gap = relativeGap(best, sol.BestBound)
			if sol.Gap > opts.GapTolerance {
				sol.Status = StatusFeasible
			}
		}
	}

	s.logger.Info("solve finished",
		"problem", p.Name,
		"status", sol.Status.String(),
		"objective", sol.Objective,
		"nodes", nodes,
		"iterations", iterations,
		"elapsed", sol.Elapsed)
	return sol, nil
}

func pruneMargin(best, gapTolerance float64) float64 {
	return math.Max(1e-9, gapTolerance*math.Max(1, math.Abs(best)))
}

func relativeGap(objective, bound float64) float64 {
	if math.IsInf(bound, -1) {
		return math.Inf(1)
	}
	return math.Max(0, objective-bound) / math.Max(1, math.Abs(objective))
}

// mostFractional returns the integer variable furthest from integrality, or -1
func mostFractional(p *Problem, x []float64) int {
	pick, worst := -1, integralityTolerance
	for j, v := range p.vars {
		if v.Kind == Continuous {
			continue
		}
		frac := math.Abs(x[j] - math.Round(x[j]))
		if frac > worst {
			pick, worst = j, frac
		}
	}
	return pick
}

func roundIntegers(p *Problem, x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for j, v := range p.vars {
		if v.Kind != Continuous {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func cloneWith(src []float64, j int, value float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	out[j] = value
	return out
}
