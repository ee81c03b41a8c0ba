package model

import (
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

func (m *Model) storageRow(n, d int) solver.Candidate {
	capacity := m.nodes[n].StorageCapacity
	if capacity <= 0 {
		return solver.NoConstraint
	}
	var e solver.Expr
	for pi := range m.products {
		for si := range m.vars.inv[n][pi] {
			e.Add(m.vars.inv[n][pi][si][d], 1)
		}
	}
	return solver.Emit(solver.Constraint{
		Name:  m.name("storage", m.nodes[n].ID, d),
		Expr:  e,
		Sense: solver.LessEqual,
		RHS:   capacity,
	})
}

// productionCapacityRow caps total daily output when no labor calendar is
// supplied; with a calendar the hours link does this
func (m *Model) productionCapacityRow(n, d int) solver.Candidate {
	if m.hasLabor || !m.nodes[n].Capabilities.CanProduce {
		return solver.NoConstraint
	}
	var e solver.Expr
	for pi := range m.products {
		e.Add(m.vars.prod[n][pi][d], 1)
	}
	return solver.Emit(solver.Constraint{
		Name:  m.name("production_capacity", m.nodes[n].ID, d),
		Expr:  e,
		Sense: solver.LessEqual,
		RHS:   m.dailyCap[n][d],
	})
}

// mixRow quantizes production to whole mixes
func (m *Model) mixRow(n, pi, d int) solver.Candidate {
	mixes := m.vars.mixes[n][pi][d]
	if !mixes.Exists() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.Add(m.vars.prod[n][pi][d], 1)
	e.Add(mixes, -float64(m.products[pi].MixSize))
	return solver.Emit(solver.Constraint{Name: m.name("mix", n, pi, d), Expr: e, Sense: solver.Equal})
}

// palletRow: unitsPerPallet × pallets - inventory in the group >= 0
func (m *Model) palletRow(n, pi int, g entities.StateGroup, d int) solver.Candidate {
	pallets := m.vars.pallets[n][pi][g][d]
	if !pallets.Exists() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.Add(pallets, float64(m.products[pi].UnitsPerPallet))
	for _, s := range entities.AllStates {
		if s.Group() == g {
			e.Add(m.vars.inv[n][pi][s.Index()][d], -1)
		}
	}
	return solver.Emit(solver.Constraint{Name: m.name("pallets", n, pi, g, d), Expr: e, Sense: solver.GreaterEqual})
}

// palletEntryRow: entry[t] >= pallets[t] - pallets[t-1]; day 0 compares
// against the pallets needed for the initial stock
func (m *Model) palletEntryRow(n, pi int, g entities.StateGroup, d int) solver.Candidate {
	entry := m.vars.entries[n][pi][g][d]
	if !entry.Exists() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.Add(entry, 1)
	e.Add(m.vars.pallets[n][pi][g][d], -1)
	if d > 0 {
		e.Add(m.vars.pallets[n][pi][g][d-1], 1)
	} else {
		initial := 0.0
		for _, s := range entities.AllStates {
			if s.Group() == g {
				initial += m.initial[n][pi][s.Index()].quantity
			}
		}
		e.AddConstant(ceilDiv(initial, m.products[pi].UnitsPerPallet))
	}
	return solver.Emit(solver.Constraint{Name: m.name("pallet_entry", n, pi, g, d), Expr: e, Sense: solver.GreaterEqual})
}

// truckLinkRow: a truck-gated shipment equals the loads of the trucks
// running that day
func (m *Model) truckLinkRow(r, pi, d int) solver.Candidate {
	info := m.routes[r]
	ship := m.vars.ship[r][pi][d]
	if !info.gated || !ship.Exists() {
		return solver.NoConstraint
	}
	var e solver.Expr
	e.Add(ship.Total, 1)
	for _, k := range info.trucks {
		e.Add(m.vars.loads[k][r][pi][d], -1)
	}
	return solver.Emit(solver.Constraint{Name: m.name("truck_link", info.route.ID, pi, d), Expr: e, Sense: solver.Equal})
}

// truckCapacityRow limits the pallets on one truck run. Pallets of product p
// are load/upp_p; the row is multiplied by the largest units-per-pallet so
// every coefficient is at least 1.
func (m *Model) truckCapacityRow(k, d int) solver.Candidate {
	truck := m.trucks[k]
	if truck.PalletCapacity <= 0 {
		return solver.NoConstraint
	}
	var e solver.Expr
	for r := range m.routes {
		for pi, product := range m.products {
			e.Add(m.vars.loads[k][r][pi][d], float64(m.maxUPP)/float64(product.UnitsPerPallet))
		}
	}
	if e.IsEmpty() {
		return solver.NoConstraint
	}
	return solver.Emit(solver.Constraint{
		Name:  m.name("truck_capacity", truck.ID, d),
		Expr:  e,
		Sense: solver.LessEqual,
		RHS:   float64(truck.PalletCapacity * m.maxUPP),
	})
}

func (m *Model) addCapacity() error {
	add := m.Problem.Add
	days := m.Days()
	for n := range m.nodes {
		for d := 0; d < days; d++ {
			if err := add(m.storageRow(n, d)); err != nil {
				return err
			}
			if err := add(m.productionCapacityRow(n, d)); err != nil {
				return err
			}
		}
		for pi := range m.products {
			for d := 0; d < days; d++ {
				if err := add(m.mixRow(n, pi, d)); err != nil {
					return err
				}
				for g := 0; g < entities.NumStateGroups; g++ {
					if err := add(m.palletRow(n, pi, entities.StateGroup(g), d)); err != nil {
						return err
					}
					if err := add(m.palletEntryRow(n, pi, entities.StateGroup(g), d)); err != nil {
						return err
					}
				}
			}
		}
	}
	for r := range m.routes {
		for pi := range m.products {
			for d := 0; d < days; d++ {
				if err := add(m.truckLinkRow(r, pi, d)); err != nil {
					return err
				}
			}
		}
	}
	for k := range m.trucks {
		for d := 0; d < days; d++ {
			if err := add(m.truckCapacityRow(k, d)); err != nil {
				return err
			}
		}
	}
	return nil
}
