package model

import (
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

// CostCategory labels an objective term for the cost breakdown
type CostCategory int

const (
	CostProduction CostCategory = iota
	CostLabor
	CostTransport
	CostHolding
	CostPalletEntry
	CostShortage
	CostDisposal
	CostChangeover
	CostWaste
	CostPenalty
)

type costTerm struct {
	v        solver.VarID
	coef     float64
	category CostCategory
}

func (m *Model) charge(v solver.VarID, coef float64, category CostCategory) {
	if !v.Exists() || coef == 0 {
		return
	}
	m.costs = append(m.costs, costTerm{v: v, coef: coef, category: category})
	m.Problem.AddObjective(v, coef)
}

func (m *Model) addObjective() {
	v := &m.vars
	c := m.Costs
	days := m.Days()
	last := days - 1
	waste := c.WasteCostPerUnit()

	for n := range m.nodes {
		for pi, product := range m.products {
			upp := float64(product.UnitsPerPallet)
			for d := 0; d < days; d++ {
				m.charge(v.prod[n][pi][d], c.ProductionCostPerUnit, CostProduction)
				m.charge(v.shortage[n][pi][d], c.ShortagePenaltyPerUnit, CostShortage)
				m.charge(v.produced[n][pi][d], c.ProducedIndicatorPenalty, CostPenalty)

				for _, s := range entities.AllStates {
					si := s.Index()
					m.charge(v.disposeInit[n][pi][si][d], c.DisposalPenaltyPerUnit, CostDisposal)
					m.charge(v.disposeNew[n][pi][si][d], c.DisposalPenaltyPerUnit, CostDisposal)
					if !m.Config.PalletTracking {
						m.charge(v.inv[n][pi][si][d], c.StorageCostPerPalletDay(s.Group())/upp, CostHolding)
					}
				}
				for g := 0; g < entities.NumStateGroups; g++ {
					group := entities.StateGroup(g)
					m.charge(v.pallets[n][pi][g][d], c.StorageCostPerPalletDay(group), CostHolding)
					m.charge(v.entries[n][pi][g][d], c.StorageEntryCostPerPallet(group), CostPalletEntry)
				}
			}
			for si := 0; si < entities.NumStates; si++ {
				m.charge(v.inv[n][pi][si][last], waste, CostWaste)
			}
		}

		for d := 0; d < days; d++ {
			if m.hasLabor {
				m.charge(v.overtime[n][d], m.labor[d].OvertimeRate, CostLabor)
				m.charge(v.paid[n][d], m.labor[d].NonFixedRate, CostLabor)
			}
			m.charge(v.startsTotal[n][d], c.ChangeoverCostPerStart+c.YieldLossCostPerStart(), CostChangeover)
		}
	}

	for r, info := range m.routes {
		for pi := range m.products {
			for d := 0; d < days; d++ {
				ship := v.ship[r][pi][d]
				m.charge(ship.Total, info.route.CostPerUnit, CostTransport)
				if d+info.offset > last {
					m.charge(ship.Total, waste, CostWaste)
				}
			}
		}
	}
}
