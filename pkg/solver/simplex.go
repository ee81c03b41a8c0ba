package solver

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrIterationLimit is returned when the simplex fails to converge
	ErrIterationLimit = errors.New("simplex iteration limit reached")

	errDeadline = errors.New("solver deadline reached")
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

type lpResult struct {
	status     lpStatus
	x          []float64
	objective  float64
	iterations int
}

const (
	pivotTolerance = 1e-9
	costTolerance  = 1e-9
	ratioTolerance = 1e-12
	blandAfter     = 50
)

// tableau is a dense simplex tableau. Column layout is structural variables,
// then slack/surplus columns, then artificial columns; a[i][cols] is the rhs.
type tableau struct {
	m, cols    int
	artStart   int
	a          [][]float64
	obj        []float64
	basis      []int
	iterations int
	maxIter    int
	deadline   time.Time
}

type lpRow struct {
	coefs []float64
	sense Sense
	rhs   float64
}

// solveLP solves the LP relaxation of p with the given variable bounds. Each
// variable is shifted to y = x - lower so every column is non-negative, and
// finite upper bounds become explicit rows.
func solveLP(p *Problem, lower, upper []float64, deadline time.Time) (lpResult, error) {
	n := len(p.vars)
	cost := make([]float64, n)
	for _, t := range p.objective.Terms {
		cost[t.Var] += t.Coef
	}

	rows := make([]lpRow, 0, len(p.constraints)+n)
	for _, c := range p.constraints {
		coefs := make([]float64, n)
		rhs := c.RHS
		for _, t := range c.Expr.Terms {
			coefs[t.Var] += t.Coef
			rhs -= t.Coef * lower[t.Var]
		}
		rows = append(rows, lpRow{coefs: coefs, sense: c.Sense, rhs: rhs})
	}
	for j := 0; j < n; j++ {
		if upper[j] < lower[j]-1e-9 {
			return lpResult{status: lpInfeasible}, nil
		}
		if math.IsInf(upper[j], 1) {
			continue
		}
		coefs := make([]float64, n)
		coefs[j] = 1
		rows = append(rows, lpRow{coefs: coefs, sense: LessEqual, rhs: math.Max(upper[j]-lower[j], 0)})
	}

	t := newTableau(n, rows, deadline)

	if t.artStart < t.cols {
		phase1 := make([]float64, t.cols)
		for j := t.artStart; j < t.cols; j++ {
			phase1[j] = 1
		}
		t.price(phase1)
		if _, err := t.run(t.cols); err != nil {
			return lpResult{iterations: t.iterations}, err
		}
		infeasibility := -t.obj[t.cols]
		if infeasibility > 1e-7*math.Max(1, t.maxRHS()) {
			return lpResult{status: lpInfeasible, iterations: t.iterations}, nil
		}
		t.evictArtificials()
	}

	phase2 := make([]float64, t.cols)
	copy(phase2, cost)
	t.price(phase2)
	status, err := t.run(t.artStart)
	if err != nil {
		return lpResult{iterations: t.iterations}, err
	}
	if status == lpUnbounded {
		return lpResult{status: lpUnbounded, iterations: t.iterations}, nil
	}

	x := make([]float64, n)
	copy(x, lower)
	for i, b := range t.basis {
		if b < n {
			x[b] = lower[b] + math.Max(t.a[i][t.cols], 0)
		}
	}
	for j := range x {
		if x[j] > upper[j] {
			x[j] = upper[j]
		}
	}
	return lpResult{
		status:     lpOptimal,
		x:          x,
		objective:  evaluate(p.objective, x),
		iterations: t.iterations,
	}, nil
}

func newTableau(n int, rows []lpRow, deadline time.Time) *tableau {
	slacks, arts := 0, 0
	for i := range rows {
		if rows[i].rhs < 0 {
			for j := range rows[i].coefs {
				rows[i].coefs[j] = -rows[i].coefs[j]
			}
			rows[i].rhs = -rows[i].rhs
			switch rows[i].sense {
			case LessEqual:
				rows[i].sense = GreaterEqual
			case GreaterEqual:
				rows[i].sense = LessEqual
			}
		}
		switch rows[i].sense {
		case LessEqual:
			slacks++
		case GreaterEqual:
			slacks++
			arts++
		default:
			arts++
		}
	}

	m := len(rows)
	cols := n + slacks + arts
	t := &tableau{
		m:        m,
		cols:     cols,
		artStart: n + slacks,
		a:        make([][]float64, m),
		obj:      make([]float64, cols+1),
		basis:    make([]int, m),
		maxIter:  50*(m+cols) + 1000,
		deadline: deadline,
	}
	slack, art := n, n+slacks
	for i, r := range rows {
		row := make([]float64, cols+1)
		copy(row, r.coefs)
		row[cols] = r.rhs
		switch r.sense {
		case LessEqual:
			row[slack] = 1
			t.basis[i] = slack
			slack++
		case GreaterEqual:
			row[slack] = -1
			row[art] = 1
			t.basis[i] = art
			slack++
			art++
		default:
			row[art] = 1
			t.basis[i] = art
			art++
		}
		t.a[i] = row
	}
	return t
}

// price rebuilds the reduced-cost row for the given cost vector
func (t *tableau) price(cost []float64) {
	for j := 0; j < t.cols; j++ {
		t.obj[j] = cost[j]
	}
	t.obj[t.cols] = 0
	for i := 0; i < t.m; i++ {
		cb := cost[t.basis[i]]
		if cb == 0 {
			continue
		}
		row := t.a[i]
		for j := 0; j <= t.cols; j++ {
			if row[j] != 0 {
				t.obj[j] -= cb * row[j]
			}
		}
	}
}

// run pivots until optimal or unbounded; only columns below limit may enter
func (t *tableau) run(limit int) (lpStatus, error) {
	bland := false
	degenerate := 0
	for {
		if t.iterations > t.maxIter {
			return lpOptimal, ErrIterationLimit
		}
		if !t.deadline.IsZero() && t.iterations%64 == 0 && time.Now().After(t.deadline) {
			return lpOptimal, errDeadline
		}

		s := -1
		best := -costTolerance
		for j := 0; j < limit; j++ {
			if d := t.obj[j]; d < best {
				s = j
				if bland {
					break
				}
				best = d
			}
		}
		if s < 0 {
			return lpOptimal, nil
		}

		r := -1
		minRatio := 0.0
		for i := 0; i < t.m; i++ {
			aij := t.a[i][s]
			if aij <= pivotTolerance {
				continue
			}
			ratio := t.a[i][t.cols] / aij
			switch {
			case r < 0, ratio < minRatio-ratioTolerance:
				r, minRatio = i, ratio
			case math.Abs(ratio-minRatio) <= ratioTolerance && t.basis[i] < t.basis[r]:
				r = i
			}
		}
		if r < 0 {
			return lpUnbounded, nil
		}

		if minRatio <= ratioTolerance {
			degenerate++
			if degenerate > blandAfter {
				bland = true
			}
		} else {
			degenerate = 0
		}
		t.pivot(r, s)
		t.iterations++
	}
}

func (t *tableau) pivot(r, s int) {
	pr := t.a[r]
	pv := pr[s]
	nz := make([]int, 0, 16)
	for j := 0; j <= t.cols; j++ {
		if pr[j] != 0 {
			pr[j] /= pv
			nz = append(nz, j)
		}
	}
	pr[s] = 1

	eliminate := func(row []float64) {
		f := row[s]
		if f == 0 {
			return
		}
		for _, j := range nz {
			row[j] -= f * pr[j]
		}
		row[s] = 0
	}
	for i := 0; i < t.m; i++ {
		if i == r {
			continue
		}
		eliminate(t.a[i])
		if rhs := t.a[i][t.cols]; rhs < 0 && rhs > -1e-9 {
			t.a[i][t.cols] = 0
		}
	}
	eliminate(t.obj)
	t.basis[r] = s
}

// evictArtificials pivots zero-valued artificials out of the basis after
// phase 1. Rows with no usable pivot are redundant and keep their artificial
// basic at zero.
func (t *tableau) evictArtificials() {
	for i := 0; i < t.m; i++ {
		if t.basis[i] < t.artStart {
			continue
		}
		best, col := 1e-7, -1
		for j := 0; j < t.artStart; j++ {
			if a := math.Abs(t.a[i][j]); a > best {
				best, col = a, j
			}
		}
		if col >= 0 {
			t.pivot(i, col)
		}
	}
}

func (t *tableau) maxRHS() float64 {
	m := 0.0
	for i := 0; i < t.m; i++ {
		m = math.Max(m, math.Abs(t.a[i][t.cols]))
	}
	return m
}

func evaluate(e Expr, x []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		v += t.Coef * x[t.Var]
	}
	return v
}
