package model

import (
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

// balanceRow is the per-state stock recurrence for (node, product, state, day):
//
//	inv[t] - inv[t-1] - production - transition_in - arrivals
//	       + departures + transition_out + consumption + disposal = 0
//
// inv[-1] is the initial quantity and lands on the right-hand side.
func (m *Model) balanceRow(n, pi int, s entities.ProductState, d int) solver.Candidate {
	v := &m.vars
	si := s.Index()
	inv := v.inv[n][pi][si]
	if !inv[d].Exists() {
		return solver.NoConstraint
	}

	var e solver.Expr
	e.Add(inv[d], 1)
	if d > 0 {
		e.Add(inv[d-1], -1)
	} else {
		e.AddConstant(-m.initial[n][pi][si].quantity)
	}

	if entities.ProductionState(m.nodes[n]) == s {
		e.Add(v.prod[n][pi][d], -1)
	}
	switch s {
	case entities.Ambient:
		e.Add(v.freeze[n][pi][d], 1)
	case entities.Frozen:
		e.Add(v.freeze[n][pi][d], -1)
		e.Add(v.thaw[n][pi][d], 1)
	case entities.Thawed:
		e.Add(v.thaw[n][pi][d], -1)
	}

	for _, r := range m.inbound[n] {
		info := m.routes[r]
		if info.arrState != s {
			continue
		}
		if dep := d - info.offset; dep >= 0 {
			e.Add(v.ship[r][pi][dep].Total, -1)
		}
	}
	for _, r := range m.outbound[n] {
		if m.routes[r].depState == s {
			e.Add(v.ship[r][pi][d].Total, 1)
		}
	}

	e.Add(v.cons[n][pi][si][d].Total, 1)
	e.Add(v.disposeInit[n][pi][si][d], 1)
	e.Add(v.disposeNew[n][pi][si][d], 1)

	return solver.Emit(solver.Constraint{
		Name:  m.name("balance", m.nodes[n].ID, m.products[pi].ID, s, d),
		Expr:  e,
		Sense: solver.Equal,
	})
}

func (m *Model) addBalance() error {
	for n := range m.nodes {
		for pi := range m.products {
			for _, s := range entities.AllStates {
				for d := 0; d < m.Days(); d++ {
					if err := m.Problem.Add(m.balanceRow(n, pi, s, d)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
