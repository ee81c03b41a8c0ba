package model

import (
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

var consumableStates = []entities.ProductState{entities.Ambient, entities.Thawed}

// decomposition ties a flow's parts together: total - new - init = 0.
// Flows without a from-init part share one variable for total and new.
func decomposition(name string, f FlowVars) solver.Candidate {
	if !f.Exists() || !f.Decomposed() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.Add(f.Total, 1)
	e.Add(f.New, -1)
	e.Add(f.Init, -1)
	return solver.Emit(solver.Constraint{Name: name, Expr: e, Sense: solver.Equal})
}

func (m *Model) addDecomposition() error {
	v := &m.vars
	for r := range m.routes {
		for pi := range m.products {
			for d := 0; d < m.Days(); d++ {
				if err := m.Problem.Add(decomposition(m.name("ship_split", m.routes[r].route.ID, d), v.ship[r][pi][d])); err != nil {
					return err
				}
			}
		}
	}
	for n := range m.nodes {
		for pi := range m.products {
			for si := range v.cons[n][pi] {
				for d := 0; d < m.Days(); d++ {
					if err := m.Problem.Add(decomposition(m.name("cons_split", n, pi, si, d), v.cons[n][pi][si][d])); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// demandRow requires consumption plus shortage to equal demand
func (m *Model) demandRow(n, pi, d int) solver.Candidate {
	q := m.demand[n][pi][d]
	if q <= 0 {
		return solver.NoConstraint
	}
	var e solver.Expr
	for _, s := range consumableStates {
		e.Add(m.vars.cons[n][pi][s.Index()][d].Total, 1)
	}
	e.Add(m.vars.shortage[n][pi][d], 1)
	return solver.Emit(solver.Constraint{Name: m.name("demand", n, pi, d), Expr: e, Sense: solver.Equal, RHS: q})
}

func (m *Model) addDemand() error {
	for n := range m.nodes {
		for pi := range m.products {
			for d := 0; d < m.Days(); d++ {
				if err := m.Problem.Add(m.demandRow(n, pi, d)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
