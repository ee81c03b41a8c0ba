// Package solver holds the linear model types shared by the planning model and
// the batch allocator, the constant-folding pass that drops trivial rows, and
// two backends: HiGHS through cgo, the default, and a branch-and-bound MILP
// solver built on a dense two-phase simplex for builds without libhighs.
package solver

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// VarKind is the domain of a decision variable
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// String method for VarKind enum
func (k VarKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "continuous"
	}
}

// VarID indexes a variable inside its Problem
type VarID int

// NoVar marks an index slot that has no variable
const NoVar VarID = -1

// Exists reports whether the id refers to a variable
func (v VarID) Exists() bool { return v >= 0 }

// Variable is a decision variable definition
type Variable struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64 // math.Inf(1) when unbounded
}

// Term is coef × variable
type Term struct {
	Var  VarID
	Coef float64
}

// Expr is a linear expression Σ coef × var + Constant
type Expr struct {
	Terms    []Term
	Constant float64
}

// Add appends coef × v; missing variables and zero coefficients are ignored
func (e *Expr) Add(v VarID, coef float64) {
	if !v.Exists() || coef == 0 {
		return
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddConstant adds a constant to the expression
func (e *Expr) AddConstant(c float64) {
	e.Constant += c
}

// AddExpr appends scale × other
func (e *Expr) AddExpr(other Expr, scale float64) {
	for _, t := range other.Terms {
		e.Add(t.Var, t.Coef*scale)
	}
	e.Constant += other.Constant * scale
}

// IsEmpty reports whether the expression has no variable terms
func (e Expr) IsEmpty() bool {
	return len(e.Terms) == 0
}

// Sense is the relation of a constraint
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "<="
	}
}

// Constraint is Expr (sense) RHS
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Candidate is the output of constraint generation: either a constraint or
// the NoConstraint sentinel
type Candidate struct {
	constraint Constraint
	present    bool
}

// NoConstraint is the sentinel returned when generation has nothing to emit
var NoConstraint = Candidate{}

// Emit wraps a generated constraint
func Emit(c Constraint) Candidate {
	return Candidate{constraint: c, present: true}
}

// Constraint returns the wrapped constraint, if any
func (c Candidate) Constraint() (Constraint, bool) {
	return c.constraint, c.present
}

// ErrContradiction is returned when a constraint folds to a false constant relation
var ErrContradiction = errors.New("constraint folds to a contradiction")

// Stats summarizes the size of a problem
type Stats struct {
	Variables   int
	Integers    int
	Constraints int
	Folded      int
	Skipped     int
	MinCoef     float64
	MaxCoef     float64
}

// CoefficientRatio is max|coef| / min|coef| over all constraint rows
func (s Stats) CoefficientRatio() float64 {
	if s.MinCoef == 0 {
		return 1
	}
	return s.MaxCoef / s.MinCoef
}

// Problem is a minimization MILP
type Problem struct {
	Name        string
	vars        []Variable
	constraints []Constraint
	objective   Expr
	folded      int
	skipped     int
}

// NewProblem creates an empty problem
func NewProblem(name string) *Problem {
	return &Problem{Name: name}
}

// AddVariable adds a variable and returns its id. Binary variables are
// clamped to [0, 1].
func (p *Problem) AddVariable(name string, kind VarKind, lower, upper float64) VarID {
	if kind == Binary {
		lower = math.Max(lower, 0)
		upper = math.Min(upper, 1)
	}
	p.vars = append(p.vars, Variable{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return VarID(len(p.vars) - 1)
}

// Add folds a generated candidate and keeps it unless it is trivially true.
// A NoConstraint candidate is counted as skipped.
func (p *Problem) Add(candidate Candidate) error {
	c, ok := candidate.Constraint()
	if !ok {
		p.skipped++
		return nil
	}
	folded, outcome := Fold(c)
	switch outcome {
	case Redundant:
		p.folded++
		return nil
	case Contradiction:
		return fmt.Errorf("%w: %s (0 %s %g)", ErrContradiction, c.Name, c.Sense, folded.RHS)
	}
	p.constraints = append(p.constraints, folded)
	return nil
}

// AddObjective adds coef × v to the objective
func (p *Problem) AddObjective(v VarID, coef float64) {
	p.objective.Add(v, coef)
}

// Objective returns the objective expression
func (p *Problem) Objective() Expr { return p.objective }

// Variable returns the definition of v
func (p *Problem) Variable(v VarID) Variable { return p.vars[v] }

// Variables returns all variable definitions
func (p *Problem) Variables() []Variable { return p.vars }

// Constraints returns the kept constraints
func (p *Problem) Constraints() []Constraint { return p.constraints }

// NumVariables returns the variable count
func (p *Problem) NumVariables() int { return len(p.vars) }

// Stats returns size and coefficient-range statistics
func (p *Problem) Stats() Stats {
	s := Stats{
		Variables:   len(p.vars),
		Constraints: len(p.constraints),
		Folded:      p.folded,
		Skipped:     p.skipped,
	}
	for _, v := range p.vars {
		if v.Kind != Continuous {
			s.Integers++
		}
	}
	for _, c := range p.constraints {
		for _, t := range c.Expr.Terms {
			a := math.Abs(t.Coef)
			if s.MinCoef == 0 || a < s.MinCoef {
				s.MinCoef = a
			}
			if a > s.MaxCoef {
				s.MaxCoef = a
			}
		}
	}
	return s
}

// Validate checks variable references and bounds
func (p *Problem) Validate() error {
	for i, v := range p.vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %s: NaN bound", v.Name)
		}
		if math.IsInf(v.Lower, -1) {
			return fmt.Errorf("variable %s: free variables are not supported", v.Name)
		}
		if v.Upper < v.Lower {
			return fmt.Errorf("variable %d (%s): upper bound %g below lower bound %g", i, v.Name, v.Upper, v.Lower)
		}
	}
	check := func(where string, e Expr) error {
		for _, t := range e.Terms {
			if int(t.Var) < 0 || int(t.Var) >= len(p.vars) {
				return fmt.Errorf("%s: term references unknown variable %d", where, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%s: non-finite coefficient on %s", where, p.vars[t.Var].Name)
			}
		}
		return nil
	}
	for _, c := range p.constraints {
		if err := check("constraint "+c.Name, c.Expr); err != nil {
			return err
		}
	}
	return check("objective", p.objective)
}

// FoldOutcome classifies a folded constraint
type FoldOutcome int

const (
	Keep FoldOutcome = iota
	Redundant
	Contradiction
)

const foldTolerance = 1e-12

// Fold merges duplicate terms, drops zero coefficients and moves the constant
// to the right-hand side. A constraint left without terms is evaluated: a
// true relation is Redundant, a false one is a Contradiction.
func Fold(c Constraint) (Constraint, FoldOutcome) {
	merged := make(map[VarID]float64, len(c.Expr.Terms))
	for _, t := range c.Expr.Terms {
		merged[t.Var] += t.Coef
	}
	terms := make([]Term, 0, len(merged))
	for v, coef := range merged {
		if math.Abs(coef) > foldTolerance {
			terms = append(terms, Term{Var: v, Coef: coef})
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Var < terms[j].Var })

	out := Constraint{
		Name:  c.Name,
		Expr:  Expr{Terms: terms},
		Sense: c.Sense,
		RHS:   c.RHS - c.Expr.Constant,
	}
	if len(terms) > 0 {
		return out, Keep
	}

	var holds bool
	switch c.Sense {
	case LessEqual:
		holds = 0 <= out.RHS+foldTolerance
	case GreaterEqual:
		holds = 0 >= out.RHS-foldTolerance
	default:
		holds = math.Abs(out.RHS) <= foldTolerance
	}
	if holds {
		return out, Redundant
	}
	return out, Contradiction
}
