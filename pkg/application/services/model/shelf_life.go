package model

import (
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

// windowRow bounds new outflows by new inflows over the shelf-life window
// [max(0, t-L+1), t] of (node, product, state). Initial stock never counts
// as an inflow, so stock older than the window cannot leave through the
// new-flow components.
func (m *Model) windowRow(n, pi int, s entities.ProductState, d int) solver.Candidate {
	v := &m.vars
	si := s.Index()
	if !v.inv[n][pi][si][d].Exists() {
		return solver.NoConstraint
	}

	lo := d - m.Config.ShelfLife.Days(s) + 1
	if lo < 0 {
		lo = 0
	}

	var inflow, outflow solver.Expr
	for w := lo; w <= d; w++ {
		if entities.ProductionState(m.nodes[n]) == s {
			inflow.Add(v.prod[n][pi][w], 1)
		}
		switch s {
		case entities.Ambient:
			outflow.Add(v.freeze[n][pi][w], 1)
		case entities.Frozen:
			inflow.Add(v.freeze[n][pi][w], 1)
			outflow.Add(v.thaw[n][pi][w], 1)
		case entities.Thawed:
			inflow.Add(v.thaw[n][pi][w], 1)
		}
		for _, r := range m.inbound[n] {
			info := m.routes[r]
			if info.arrState != s {
				continue
			}
			if dep := w - info.offset; dep >= 0 {
				inflow.Add(v.ship[r][pi][dep].Total, 1)
			}
		}
		for _, r := range m.outbound[n] {
			if m.routes[r].depState == s {
				outflow.Add(v.ship[r][pi][w].New, 1)
			}
		}
		outflow.Add(v.cons[n][pi][si][w].New, 1)
		outflow.Add(v.disposeNew[n][pi][si][w], 1)
	}

	if outflow.IsEmpty() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.AddExpr(outflow, 1)
	e.AddExpr(inflow, -1)
	return solver.Emit(solver.Constraint{
		Name:  m.name("window", m.nodes[n].ID, m.products[pi].ID, s, d),
		Expr:  e,
		Sense: solver.LessEqual,
	})
}

// initialUsageRow caps the cumulative use of one initial-stock entry: every
// from-init flow up to its last usable day plus its disposal cannot exceed
// the quantity on hand
func (m *Model) initialUsageRow(n, pi int, s entities.ProductState) solver.Candidate {
	v := &m.vars
	si := s.Index()
	stock := m.initial[n][pi][si]
	if stock.quantity <= 0 {
		return solver.NoConstraint
	}

	var e solver.Expr
	last := stock.lastDay
	if last > m.Days()-1 {
		last = m.Days() - 1
	}
	for d := 0; d <= last; d++ {
		for _, r := range m.outbound[n] {
			if m.routes[r].depState == s {
				e.Add(v.ship[r][pi][d].Init, 1)
			}
		}
		e.Add(v.cons[n][pi][si][d].Init, 1)
	}
	for d := 0; d < m.Days(); d++ {
		e.Add(v.disposeInit[n][pi][si][d], 1)
	}
	if e.IsEmpty() {
		return solver.NoConstraint
	}
	return solver.Emit(solver.Constraint{
		Name:  m.name("initial_usage", m.nodes[n].ID, m.products[pi].ID, s),
		Expr:  e,
		Sense: solver.LessEqual,
		RHS:   stock.quantity,
	})
}

func (m *Model) addShelfLife() error {
	for n := range m.nodes {
		for pi := range m.products {
			for _, s := range entities.AllStates {
				if err := m.Problem.Add(m.initialUsageRow(n, pi, s)); err != nil {
					return err
				}
				for d := 0; d < m.Days(); d++ {
					if err := m.Problem.Add(m.windowRow(n, pi, s, d)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
