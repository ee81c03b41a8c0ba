package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldMergesTermsAndMovesConstant(t *testing.T) {
	c := Constraint{
		Name:  "merge",
		Expr:  Expr{Terms: []Term{{Var: 2, Coef: 1}, {Var: 0, Coef: 3}, {Var: 2, Coef: 2}, {Var: 1, Coef: 0}}, Constant: 4},
		Sense: LessEqual,
		RHS:   10,
	}

	folded, outcome := Fold(c)

	require.Equal(t, Keep, outcome)
	assert.Equal(t, []Term{{Var: 0, Coef: 3}, {Var: 2, Coef: 3}}, folded.Expr.Terms)
	assert.Equal(t, 6.0, folded.RHS)
	assert.Zero(t, folded.Expr.Constant)
}

func TestFoldCancellingTerms(t *testing.T) {
	c := Constraint{
		Expr:  Expr{Terms: []Term{{Var: 1, Coef: 1}, {Var: 1, Coef: -1}}},
		Sense: LessEqual,
	}
	_, outcome := Fold(c)
	assert.Equal(t, Redundant, outcome)
}

func TestFoldConstantRelations(t *testing.T) {
	tests := []struct {
		name     string
		constant float64
		sense    Sense
		rhs      float64
		want     FoldOutcome
	}{
		{"le holds", 0, LessEqual, 0, Redundant},
		{"le violated", 5, LessEqual, 0, Contradiction},
		{"ge holds", 5, GreaterEqual, 0, Redundant},
		{"ge violated", 0, GreaterEqual, 1, Contradiction},
		{"eq holds", 3, Equal, 3, Redundant},
		{"eq violated", 3, Equal, 2, Contradiction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome := Fold(Constraint{Expr: Expr{Constant: tt.constant}, Sense: tt.sense, RHS: tt.rhs})
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestProblemAdd(t *testing.T) {
	p := NewProblem("add")
	x := p.AddVariable("x", Continuous, 0, 10)

	var e Expr
	e.Add(x, 1)
	e.Add(NoVar, 7)
	require.NoError(t, p.Add(Emit(Constraint{Name: "keep", Expr: e, Sense: LessEqual, RHS: 4})))
	require.NoError(t, p.Add(Emit(Constraint{Name: "empty", Sense: LessEqual})))
	require.NoError(t, p.Add(NoConstraint))

	err := p.Add(Emit(Constraint{Name: "bad", Expr: Expr{Constant: 1}, Sense: Equal}))
	require.ErrorIs(t, err, ErrContradiction)

	stats := p.Stats()
	assert.Equal(t, 1, stats.Constraints)
	assert.Equal(t, 1, stats.Folded)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, p.Constraints()[0].Expr.Terms, 1)
}

func TestStatsCoefficientRatio(t *testing.T) {
	p := NewProblem("ratio")
	x := p.AddVariable("x", Continuous, 0, 1)
	y := p.AddVariable("y", Integer, 0, 1)
	var e Expr
	e.Add(x, 0.5)
	e.Add(y, 500)
	require.NoError(t, p.Add(Emit(Constraint{Expr: e, Sense: LessEqual, RHS: 1})))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Integers)
	assert.InDelta(t, 1000, stats.CoefficientRatio(), 1e-9)
}

func TestBinaryBoundsClamped(t *testing.T) {
	p := NewProblem("binary")
	b := p.AddVariable("b", Binary, -3, 7)
	v := p.Variable(b)
	assert.Equal(t, 0.0, v.Lower)
	assert.Equal(t, 1.0, v.Upper)
}

func TestValidateRejectsUnknownVariable(t *testing.T) {
	p := NewProblem("invalid")
	p.AddVariable("x", Continuous, 0, 1)
	p.AddObjective(VarID(3), 1)
	assert.Error(t, p.Validate())
}
