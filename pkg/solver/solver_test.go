package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, p *Problem, opts Options) *Solution {
	t.Helper()
	sol, err := NewBranchAndBound(nil).Solve(context.Background(), p, opts)
	require.NoError(t, err)
	return sol
}

func row(p *Problem, name string, sense Sense, rhs float64, terms ...Term) {
	if err := p.Add(Emit(Constraint{Name: name, Expr: Expr{Terms: terms}, Sense: sense, RHS: rhs})); err != nil {
		panic(err)
	}
}

func TestSolveLinearProgram(t *testing.T) {
	p := NewProblem("lp")
	x := p.AddVariable("x", Continuous, 0, math.Inf(1))
	y := p.AddVariable("y", Continuous, 0, math.Inf(1))
	row(p, "c1", LessEqual, 4, Term{x, 1}, Term{y, 2})
	row(p, "c2", LessEqual, 6, Term{x, 3}, Term{y, 1})
	p.AddObjective(x, -1)
	p.AddObjective(y, -1)

	sol := solve(t, p, DefaultOptions())

	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, -2.8, sol.Objective, 1e-7)
	assert.InDelta(t, 1.6, sol.Value(x).Value, 1e-7)
	assert.InDelta(t, 1.2, sol.Value(y).Value, 1e-7)
}

func TestSolveEqualityAndGreaterEqual(t *testing.T) {
	p := NewProblem("mixed")
	x := p.AddVariable("x", Continuous, 0, math.Inf(1))
	y := p.AddVariable("y", Continuous, 0, math.Inf(1))
	row(p, "cover", GreaterEqual, 2, Term{x, 1}, Term{y, 1})
	row(p, "same", Equal, 0, Term{x, 1}, Term{y, -1})
	p.AddObjective(x, 1)
	p.AddObjective(y, 1)

	sol := solve(t, p, DefaultOptions())

	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.Objective, 1e-7)
	assert.InDelta(t, 1, sol.Value(x).Value, 1e-7)
}

func TestSolveRedundantEqualities(t *testing.T) {
	p := NewProblem("redundant")
	x := p.AddVariable("x", Continuous, 0, math.Inf(1))
	y := p.AddVariable("y", Continuous, 0, math.Inf(1))
	row(p, "a", Equal, 2, Term{x, 1}, Term{y, 1})
	row(p, "b", Equal, 4, Term{x, 2}, Term{y, 2})
	p.AddObjective(x, 1)

	sol := solve(t, p, DefaultOptions())

	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 0, sol.Value(x).Value, 1e-7)
	assert.InDelta(t, 2, sol.Value(y).Value, 1e-7)
}

func TestSolveShiftedBounds(t *testing.T) {
	p := NewProblem("bounds")
	x := p.AddVariable("x", Continuous, 2, 5)
	y := p.AddVariable("y", Continuous, 1, 4)
	p.AddObjective(x, 1)
	p.AddObjective(y, -1)

	sol := solve(t, p, DefaultOptions())

	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.Value(x).Value, 1e-9)
	assert.InDelta(t, 4, sol.Value(y).Value, 1e-9)
	assert.InDelta(t, -2, sol.Objective, 1e-9)
}

func TestSolveInfeasible(t *testing.T) {
	p := NewProblem("infeasible")
	x := p.AddVariable("x", Continuous, 0, 1)
	row(p, "floor", GreaterEqual, 2, Term{x, 1})
	p.AddObjective(x, 1)

	sol := solve(t, p, DefaultOptions())

	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.False(t, sol.Value(x).OK)
}

func TestSolveUnbounded(t *testing.T) {
	p := NewProblem("unbounded")
	x := p.AddVariable("x", Continuous, 0, math.Inf(1))
	p.AddObjective(x, -1)

	sol := solve(t, p, DefaultOptions())

	assert.Equal(t, StatusUnbounded, sol.Status)
}

func knapsack() (*Problem, []VarID) {
	p := NewProblem("knapsack")
	values := []float64{8, 11, 6, 4}
	weights := []float64{5, 7, 4, 3}
	ids := make([]VarID, len(values))
	var weight []Term
	for i := range values {
		ids[i] = p.AddVariable("item", Binary, 0, 1)
		p.AddObjective(ids[i], -values[i])
		weight = append(weight, Term{ids[i], weights[i]})
	}
	row(p, "capacity", LessEqual, 14, weight...)
	return p, ids
}

func TestSolveKnapsack(t *testing.T) {
	p, ids := knapsack()

	sol := solve(t, p, DefaultOptions())

	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, -21, sol.Objective, 1e-9)
	got := make([]float64, len(ids))
	for i, id := range ids {
		got[i] = sol.Value(id).Value
	}
	assert.Equal(t, []float64{0, 1, 1, 1}, got)
	assert.Greater(t, sol.Nodes, 1)
}

func TestSolveIntegerRounding(t *testing.T) {
	p := NewProblem("integer")
	x := p.AddVariable("x", Integer, 0, math.Inf(1))
	y := p.AddVariable("y", Integer, 0, math.Inf(1))
	row(p, "half", LessEqual, 3, Term{x, 2}, Term{y, 2})
	p.AddObjective(x, -1)
	p.AddObjective(y, -1)

	sol := solve(t, p, DefaultOptions())

	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, -1, sol.Objective, 1e-9)
}

func TestSolveNodeLimitWithoutIncumbent(t *testing.T) {
	p, _ := knapsack()

	sol := solve(t, p, Options{MaxNodes: 1})

	assert.Equal(t, StatusNoSolution, sol.Status)
	assert.False(t, sol.Status.HasSolution())
}

func TestSolveCancelledContext(t *testing.T) {
	p, _ := knapsack()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBranchAndBound(nil).Solve(ctx, p, DefaultOptions())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolutionValueUnreadable(t *testing.T) {
	sol := NewSolution(StatusOptimal, 0, []float64{1, math.NaN()})
	assert.True(t, sol.Value(0).OK)
	assert.False(t, sol.Value(1).OK)
	assert.False(t, sol.Value(NoVar).OK)
	assert.False(t, sol.Value(5).OK)
}
