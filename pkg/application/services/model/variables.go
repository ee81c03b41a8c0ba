package model

import (
	"fmt"
	"math"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

// variables indexes every decision variable by dense offsets. Missing
// entries hold solver.NoVar.
type variables struct {
	prod        [][][]solver.VarID   // [node][product][day]
	mixes       [][][]solver.VarID   // [node][product][day]
	inv         [][][][]solver.VarID // [node][product][state][day]
	ship        [][][]FlowVars       // [route][product][day] by departure day
	cons        [][][][]FlowVars     // [node][product][state][day]
	shortage    [][][]solver.VarID   // [node][product][day]
	freeze      [][][]solver.VarID   // [node][product][day]
	thaw        [][][]solver.VarID   // [node][product][day]
	disposeInit [][][][]solver.VarID // [node][product][state][day]
	disposeNew  [][][][]solver.VarID // [node][product][state][day]
	pallets     [][][][]solver.VarID // [node][product][group][day]
	entries     [][][][]solver.VarID // [node][product][group][day]
	loads       [][][][]solver.VarID // [truck][route][product][day]
	hours       [][]solver.VarID     // [node][day]
	overtime    [][]solver.VarID
	paid        [][]solver.VarID
	anyProd     [][]solver.VarID
	produced    [][][]solver.VarID // [node][product][day]
	start       [][][]solver.VarID
	startsTotal [][]solver.VarID // [node][day]
}

func (m *Model) name(kind string, parts ...any) string {
	return fmt.Sprintf("%s%v", kind, parts)
}

func (m *Model) addVariables() {
	nn, np, nr, nt := len(m.nodes), len(m.products), len(m.routes), len(m.trucks)
	days := m.Days()
	ns := entities.NumStates
	inf := math.Inf(1)
	p := m.Problem
	v := &m.vars

	v.prod = grid3(nn, np, days, solver.NoVar)
	v.mixes = grid3(nn, np, days, solver.NoVar)
	v.inv = grid4(nn, np, ns, days, solver.NoVar)
	v.ship = grid3(nr, np, days, noFlow)
	v.cons = grid4(nn, np, ns, days, noFlow)
	v.shortage = grid3(nn, np, days, solver.NoVar)
	v.freeze = grid3(nn, np, days, solver.NoVar)
	v.thaw = grid3(nn, np, days, solver.NoVar)
	v.disposeInit = grid4(nn, np, ns, days, solver.NoVar)
	v.disposeNew = grid4(nn, np, ns, days, solver.NoVar)
	v.pallets = grid4(nn, np, entities.NumStateGroups, days, solver.NoVar)
	v.entries = grid4(nn, np, entities.NumStateGroups, days, solver.NoVar)
	v.loads = grid4(nt, nr, np, days, solver.NoVar)
	v.hours = grid2(nn, days, solver.NoVar)
	v.overtime = grid2(nn, days, solver.NoVar)
	v.paid = grid2(nn, days, solver.NoVar)
	v.anyProd = grid2(nn, days, solver.NoVar)
	v.produced = grid3(nn, np, days, solver.NoVar)
	v.start = grid3(nn, np, days, solver.NoVar)
	v.startsTotal = grid2(nn, days, solver.NoVar)

	for n, node := range m.nodes {
		for pi, product := range m.products {
			for d := 0; d < days; d++ {
				date := m.Horizon.Date(d).Format(entities.DateLayout)

				if node.Capabilities.CanProduce {
					capacity := m.dailyCap[n][d]
					v.prod[n][pi][d] = p.AddVariable(m.name("prod", node.ID, product.ID, date), solver.Continuous, 0, capacity)
					if product.Lotted() {
						maxMixes := math.Floor(capacity / float64(product.MixSize))
						v.mixes[n][pi][d] = p.AddVariable(m.name("mixes", node.ID, product.ID, date), solver.Integer, 0, maxMixes)
					}
				}

				for _, s := range entities.AllStates {
					if !m.stateOK(n, s) {
						continue
					}
					si := s.Index()
					v.inv[n][pi][si][d] = p.AddVariable(m.name("inv", node.ID, product.ID, s, date), solver.Continuous, 0, inf)

					stock := m.initial[n][pi][si]
					if stock.quantity > 0 && d > stock.lastDay {
						v.disposeInit[n][pi][si][d] = p.AddVariable(m.name("dispose_init", node.ID, product.ID, s, date), solver.Continuous, 0, inf)
					}
					if m.Config.AllowNewStockDisposal {
						v.disposeNew[n][pi][si][d] = p.AddVariable(m.name("dispose_new", node.ID, product.ID, s, date), solver.Continuous, 0, inf)
					}
					if s.Consumable() && m.demand[n][pi][d] > 0 {
						v.cons[n][pi][si][d] = m.addFlow(m.name("cons", node.ID, product.ID, s, date), stock, d)
					}
				}

				if m.demand[n][pi][d] > 0 && m.Config.AllowShortages {
					v.shortage[n][pi][d] = p.AddVariable(m.name("shortage", node.ID, product.ID, date), solver.Continuous, 0, inf)
				}
				if node.Capabilities.CanFreeze() {
					v.freeze[n][pi][d] = p.AddVariable(m.name("freeze", node.ID, product.ID, date), solver.Continuous, 0, inf)
				}
				if node.Capabilities.CanThaw() {
					v.thaw[n][pi][d] = p.AddVariable(m.name("thaw", node.ID, product.ID, date), solver.Continuous, 0, inf)
				}

				if m.Config.PalletTracking {
					for g := 0; g < entities.NumStateGroups; g++ {
						if !m.groupStored(n, entities.StateGroup(g)) {
							continue
						}
						v.pallets[n][pi][g][d] = p.AddVariable(m.name("pallets", node.ID, product.ID, entities.StateGroup(g), date), solver.Integer, 0, inf)
						if m.Config.PalletEntryFees {
							v.entries[n][pi][g][d] = p.AddVariable(m.name("pallet_entry", node.ID, product.ID, entities.StateGroup(g), date), solver.Integer, 0, inf)
						}
					}
				}

				if node.Capabilities.CanProduce && m.Config.TrackChangeovers {
					v.produced[n][pi][d] = p.AddVariable(m.name("produced", node.ID, product.ID, date), solver.Binary, 0, 1)
					v.start[n][pi][d] = p.AddVariable(m.name("start", node.ID, product.ID, date), solver.Binary, 0, 1)
				}
			}
		}

		if !node.Capabilities.CanProduce {
			continue
		}
		for d := 0; d < days; d++ {
			date := m.Horizon.Date(d).Format(entities.DateLayout)
			nonFixed := false
			if m.hasLabor {
				day := m.labor[d]
				v.hours[n][d] = p.AddVariable(m.name("hours", node.ID, date), solver.Continuous, 0, day.AvailableHours())
				if day.IsFixedDay() {
					v.overtime[n][d] = p.AddVariable(m.name("overtime", node.ID, date), solver.Continuous, 0, math.Max(day.AvailableHours()-day.FixedHours, 0))
				} else {
					nonFixed = true
					v.paid[n][d] = p.AddVariable(m.name("paid", node.ID, date), solver.Continuous, 0, inf)
				}
			}
			if m.Config.TrackChangeovers {
				v.startsTotal[n][d] = p.AddVariable(m.name("starts", node.ID, date), solver.Continuous, 0, float64(len(m.products)))
			}
			if nonFixed || m.Config.TrackChangeovers {
				v.anyProd[n][d] = p.AddVariable(m.name("any", node.ID, date), solver.Binary, 0, 1)
			}
		}
	}

	for r, info := range m.routes {
		originStock := m.initial[info.origin]
		for pi, product := range m.products {
			for d := 0; d < days; d++ {
				if !info.operates[d] {
					continue
				}
				date := m.Horizon.Date(d).Format(entities.DateLayout)
				stock := originStock[pi][info.depState.Index()]
				v.ship[r][pi][d] = m.addFlow(m.name("ship", info.route.ID, product.ID, date), stock, d)
			}
		}
	}

	for k, truck := range m.trucks {
		for d := 0; d < days; d++ {
			if !truck.OperatesOn(m.Horizon.Date(d)) {
				continue
			}
			date := m.Horizon.Date(d).Format(entities.DateLayout)
			for r, info := range m.routes {
				if !truck.Serves(info.route.Origin, info.route.Destination) {
					continue
				}
				for pi, product := range m.products {
					if !v.ship[r][pi][d].Exists() {
						continue
					}
					v.loads[k][r][pi][d] = p.AddVariable(m.name("load", truck.ID, info.route.ID, product.ID, date), solver.Continuous, 0, inf)
				}
			}
		}
	}
}

// addFlow creates a flow; the from-init component exists only while the
// source's initial stock is within its last usable day. Flows are bounded by
// the demand and cumulative-usage rows, not by variable bounds.
func (m *Model) addFlow(name string, stock initialStock, day int) FlowVars {
	p := m.Problem
	inf := math.Inf(1)
	total := p.AddVariable(name+"total", solver.Continuous, 0, inf)
	if stock.quantity <= 0 || day > stock.lastDay {
		return FlowVars{Total: total, New: total, Init: solver.NoVar}
	}
	return FlowVars{
		Total: total,
		New:   p.AddVariable(name+"new", solver.Continuous, 0, inf),
		Init:  p.AddVariable(name+"init", solver.Continuous, 0, inf),
	}
}

func (m *Model) groupStored(n int, g entities.StateGroup) bool {
	for _, s := range entities.AllStates {
		if s.Group() == g && m.stateOK(n, s) {
			return true
		}
	}
	return false
}
