package model

import (
	"github.com/vsinha/perishplan/pkg/solver"
)

// laborLinkRow: rate × hours - Σ production - rate × changeoverHours × starts = 0
func (m *Model) laborLinkRow(n, d int) solver.Candidate {
	hours := m.vars.hours[n][d]
	if !hours.Exists() {
		return solver.NoConstraint
	}
	rate := m.nodes[n].ProductionRate
	var e solver.Expr
	e.Add(hours, rate)
	for pi := range m.products {
		e.Add(m.vars.prod[n][pi][d], -1)
	}
	e.Add(m.vars.startsTotal[n][d], -rate*m.Costs.ChangeoverHours)
	return solver.Emit(solver.Constraint{Name: m.name("labor_link", m.nodes[n].ID, d), Expr: e, Sense: solver.Equal})
}

// overtimeRow on fixed days: overtime - hours >= -fixedHours
func (m *Model) overtimeRow(n, d int) solver.Candidate {
	overtime := m.vars.overtime[n][d]
	if !overtime.Exists() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.Add(overtime, 1)
	e.Add(m.vars.hours[n][d], -1)
	return solver.Emit(solver.Constraint{
		Name:  m.name("overtime", m.nodes[n].ID, d),
		Expr:  e,
		Sense: solver.GreaterEqual,
		RHS:   -m.labor[d].FixedHours,
	})
}

// nonFixedRows on days without a fixed shift: paid covers hours worked and
// the minimum call-in whenever anything runs
func (m *Model) nonFixedRows(n, d int) []solver.Candidate {
	paid := m.vars.paid[n][d]
	if !paid.Exists() {
		return nil
	}
	hours := m.vars.hours[n][d]
	anyProd := m.vars.anyProd[n][d]
	day := m.labor[d]
	id := m.nodes[n].ID

	var covers, floor, gate solver.Expr
	covers.Add(paid, 1)
	covers.Add(hours, -1)
	floor.Add(paid, 1)
	floor.Add(anyProd, -day.MinimumHours)
	gate.Add(hours, 1)
	gate.Add(anyProd, -day.AvailableHours())

	return []solver.Candidate{
		solver.Emit(solver.Constraint{Name: m.name("paid_hours", id, d), Expr: covers, Sense: solver.GreaterEqual}),
		solver.Emit(solver.Constraint{Name: m.name("paid_minimum", id, d), Expr: floor, Sense: solver.GreaterEqual}),
		solver.Emit(solver.Constraint{Name: m.name("hours_gate", id, d), Expr: gate, Sense: solver.LessEqual}),
	}
}

func (m *Model) addLabor() error {
	if !m.hasLabor {
		return nil
	}
	for n := range m.nodes {
		for d := 0; d < m.Days(); d++ {
			rows := append([]solver.Candidate{m.laborLinkRow(n, d), m.overtimeRow(n, d)}, m.nonFixedRows(n, d)...)
			for _, row := range rows {
				if err := m.Problem.Add(row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
