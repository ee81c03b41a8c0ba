package model

import (
	"github.com/vsinha/perishplan/pkg/solver"
)

// changeoverRows links production to the produced/start indicators of one
// product-day
func (m *Model) changeoverRows(n, pi, d int) []solver.Candidate {
	produced := m.vars.produced[n][pi][d]
	if !produced.Exists() {
		return nil
	}
	id := m.nodes[n].ID

	var link, start solver.Expr
	link.Add(m.vars.prod[n][pi][d], 1)
	link.Add(produced, -m.dailyCap[n][d])

	start.Add(m.vars.start[n][pi][d], 1)
	start.Add(produced, -1)
	if d > 0 {
		start.Add(m.vars.produced[n][pi][d-1], 1)
	}

	return []solver.Candidate{
		solver.Emit(solver.Constraint{Name: m.name("produced_link", id, pi, d), Expr: link, Sense: solver.LessEqual}),
		solver.Emit(solver.Constraint{Name: m.name("start", id, pi, d), Expr: start, Sense: solver.GreaterEqual}),
	}
}

// changeoverDayRows aggregates the product indicators of one node-day
func (m *Model) changeoverDayRows(n, d int) []solver.Candidate {
	total := m.vars.startsTotal[n][d]
	if !total.Exists() {
		return nil
	}
	id := m.nodes[n].ID
	anyProd := m.vars.anyProd[n][d]

	var starts, upper, lower solver.Expr
	starts.Add(total, 1)
	upper.Add(anyProd, -float64(len(m.products)))
	lower.Add(anyProd, 1)
	for pi := range m.products {
		starts.Add(m.vars.start[n][pi][d], -1)
		upper.Add(m.vars.produced[n][pi][d], 1)
		lower.Add(m.vars.produced[n][pi][d], -1)
	}

	return []solver.Candidate{
		solver.Emit(solver.Constraint{Name: m.name("starts_total", id, d), Expr: starts, Sense: solver.Equal}),
		solver.Emit(solver.Constraint{Name: m.name("any_upper", id, d), Expr: upper, Sense: solver.LessEqual}),
		solver.Emit(solver.Constraint{Name: m.name("any_lower", id, d), Expr: lower, Sense: solver.LessEqual}),
	}
}

func (m *Model) addChangeovers() error {
	if !m.Config.TrackChangeovers {
		return nil
	}
	for n := range m.nodes {
		for d := 0; d < m.Days(); d++ {
			rows := m.changeoverDayRows(n, d)
			for pi := range m.products {
				rows = append(rows, m.changeoverRows(n, pi, d)...)
			}
			for _, row := range rows {
				if err := m.Problem.Add(row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
