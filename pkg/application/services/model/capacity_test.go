package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	planningtest "github.com/vsinha/perishplan/pkg/infrastructure/testing"
)

func costOf(t *testing.T, d decimal.Decimal) float64 {
	t.Helper()
	f, _ := d.Float64()
	return f
}

// 25 units at 10 per pallet occupy 3 pallets, not 2.5
func TestPlan_PalletCountRoundsUp(t *testing.T) {
	in := Input{
		Network: entities.Network{
			Nodes:    []entities.Node{planningtest.Store("M")},
			Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
		},
		Costs:   planningtest.StandardCosts(),
		Initial: planningtest.Initial(planningtest.Day(0), entities.InventoryEntry{Node: "M", Product: "P1", Quantity: 25}),
	}

	tests := []struct {
		name     string
		pallets  bool
		holding  float64
		integers bool
	}{
		{name: "whole pallets", pallets: true, holding: 3 * 0.1 * 2, integers: true},
		{name: "fractional units", pallets: false, holding: 25 * 0.01 * 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config(2)
			cfg.PalletTracking = tt.pallets
			cfg.PalletEntryFees = tt.pallets

			m := build(t, in, cfg)
			assert.Equal(t, tt.integers, m.Problem.Stats().Integers > 0)

			plan := solveAndExtract(t, m)

			assert.InDelta(t, 25, inventoryOn(plan, "M", entities.Ambient, 1), 1e-6)
			assert.InDelta(t, tt.holding, costOf(t, plan.Costs.Holding), 1e-6)
			assert.Zero(t, costOf(t, plan.Costs.PalletEntry), "stock on hand at the snapshot pays no entry fee")
			assert.InDelta(t, 37.5, costOf(t, plan.Costs.Waste), 1e-6)
			assert.InDelta(t, 37.5+tt.holding, plan.Objective, 1e-6)
		})
	}
}

// Ten a day against 25 due on day 2: 5 then 15 on the shelf, so one pallet
// enters on day 0 and one more on day 1.
func TestPlan_PalletEntryFees(t *testing.T) {
	caps := planningtest.PlantCaps
	caps.ReceivesDemand = true
	in := Input{
		Network: entities.Network{
			Nodes:    []entities.Node{planningtest.Plant("MFG", caps, 10, 10)},
			Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
		},
		Costs:  planningtest.StandardCosts(),
		Demand: []entities.DemandEntry{planningtest.Demand("MFG", "P1", planningtest.Day(2), 25)},
	}

	for _, fees := range []bool{false, true} {
		cfg := config(3)
		cfg.PalletTracking = true
		cfg.PalletEntryFees = fees

		plan := solveAndExtract(t, build(t, in, cfg))

		assert.Zero(t, demandOn(plan, "MFG", 2).Shortage)
		assert.InDelta(t, 25, plan.TotalProduction(), 1e-6)
		assert.InDelta(t, 0.3, costOf(t, plan.Costs.Holding), 1e-6)
		if fees {
			assert.InDelta(t, 1.0, costOf(t, plan.Costs.PalletEntry), 1e-6)
			assert.InDelta(t, 26.3, plan.Objective, 1e-6)
		} else {
			assert.Zero(t, costOf(t, plan.Costs.PalletEntry))
			assert.InDelta(t, 25.3, plan.Objective, 1e-6)
		}
	}
}

func TestPlan_StorageCapacityLimitsBuildAhead(t *testing.T) {
	caps := planningtest.PlantCaps
	caps.ReceivesDemand = true

	tests := []struct {
		name     string
		capacity float64
		shortage float64
	}{
		{name: "unlimited", capacity: 0, shortage: 0},
		{name: "50 units", capacity: 50, shortage: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plant := planningtest.Plant("MFG", caps, 10, 40)
			plant.StorageCapacity = tt.capacity
			in := Input{
				Network: entities.Network{
					Nodes:    []entities.Node{plant},
					Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
				},
				Costs:  planningtest.StandardCosts(),
				Demand: []entities.DemandEntry{planningtest.Demand("MFG", "P1", planningtest.Day(3), 120)},
			}

			plan := solveAndExtract(t, build(t, in, config(4)))

			assert.InDelta(t, tt.shortage, demandOn(plan, "MFG", 3).Shortage, 1e-6)
			if tt.capacity > 0 {
				for _, rec := range plan.Inventory {
					assert.LessOrEqual(t, rec.Quantity, tt.capacity+1e-6, "%s on %s", rec.State, rec.Date.Format(entities.DateLayout))
				}
			}
		})
	}
}

// A 100 unit mix against 30 units of demand and room for 50: the surplus 20
// can only go if fresh stock may be written off.
func TestPlan_NewStockDisposalClearsSurplus(t *testing.T) {
	caps := planningtest.PlantCaps
	caps.ReceivesDemand = true
	plant := planningtest.Plant("M", caps, 10, 1000)
	plant.StorageCapacity = 50
	costs := planningtest.StandardCosts()
	costs.ShortagePenaltyPerUnit = 200
	costs.DisposalPenaltyPerUnit = 250
	in := Input{
		Network: entities.Network{
			Nodes:    []entities.Node{plant},
			Products: []entities.Product{planningtest.MustProduct("P1", 100, 10)},
		},
		Costs:  costs,
		Demand: []entities.DemandEntry{planningtest.Demand("M", "P1", planningtest.Day(1), 30)},
	}

	t.Run("disallowed", func(t *testing.T) {
		plan := solveAndExtract(t, build(t, in, config(2)))

		assert.Empty(t, plan.Disposals)
		assert.Zero(t, plan.TotalProduction())
		assert.InDelta(t, 30, demandOn(plan, "M", 1).Shortage, 1e-6)
	})

	t.Run("allowed", func(t *testing.T) {
		cfg := config(2)
		cfg.AllowNewStockDisposal = true
		m := build(t, in, cfg)
		_, ok := m.NewStockDisposal("M", "P1", entities.Ambient, planningtest.Day(1))
		require.True(t, ok)

		plan := solveAndExtract(t, m)

		require.Len(t, plan.Disposals, 1)
		disposal := plan.Disposals[0]
		assert.False(t, disposal.Initial)
		assert.Equal(t, planningtest.Day(1), disposal.Date)
		assert.Equal(t, entities.Ambient, disposal.State)
		assert.InDelta(t, 20, disposal.Quantity, 1e-6)
		assert.Zero(t, demandOn(plan, "M", 1).Shortage)
		assert.InDelta(t, 5000, costOf(t, plan.Costs.Disposal), 1e-6)
		assert.InDelta(t, 5175.5, plan.Objective, 1e-6)
	})
}
