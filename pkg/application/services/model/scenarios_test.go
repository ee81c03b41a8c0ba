package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	planningtest "github.com/vsinha/perishplan/pkg/infrastructure/testing"
	"github.com/vsinha/perishplan/pkg/solver"
)

func TestPlan_ProductionFlowsThroughLane(t *testing.T) {
	in := singleLaneInput(1)
	in.Demand = []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(3), 200)}

	plan := solveAndExtract(t, build(t, in, config(5)))

	require.Len(t, plan.Production, 1)
	assert.Equal(t, planningtest.Day(2), plan.Production[0].Date)
	assert.InDelta(t, 200, plan.Production[0].Quantity, 1e-6)

	require.Len(t, plan.Shipments, 1)
	assert.Equal(t, planningtest.Day(2), plan.Shipments[0].DepartureDate)
	assert.Equal(t, planningtest.Day(3), plan.Shipments[0].DeliveryDate)
	assert.Equal(t, []string{"MFG-DC"}, plan.Shipments[0].Routes)

	d := demandOn(plan, "DC", 3)
	assert.InDelta(t, 200, d.FromAmbient, 1e-6)
	assert.Zero(t, d.Shortage)

	assert.True(t, plan.Costs.Production.Equal(decimal.NewFromInt(200)))
	assert.True(t, plan.Costs.Transport.Equal(decimal.NewFromInt(100)))
	assert.InDelta(t, 300, plan.Objective, 1e-6)
}

func TestPlan_SameDayDropOff(t *testing.T) {
	in := singleLaneInput(0.5)
	in.Demand = []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(0), 50)}

	plan := solveAndExtract(t, build(t, in, config(2)))

	require.Len(t, plan.Shipments, 1)
	assert.Equal(t, plan.Shipments[0].DepartureDate, plan.Shipments[0].DeliveryDate)
	assert.Zero(t, demandOn(plan, "DC", 0).Shortage)
}

// Stock on hand at a demand node with no replenishment: usable through its
// last usable day, a shortage afterwards.
func TestPlan_ExpiredInitialStockCannotServeDemand(t *testing.T) {
	in := Input{
		Network: entities.Network{
			Nodes:    []entities.Node{planningtest.Store("M")},
			Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
		},
		Costs: planningtest.StandardCosts(),
		Demand: []entities.DemandEntry{
			planningtest.Demand("M", "P1", planningtest.Day(17), 100),
			planningtest.Demand("M", "P1", planningtest.Day(18), 100),
		},
		Initial: planningtest.Initial(planningtest.Day(0), entities.InventoryEntry{Node: "M", Product: "P1", Quantity: 500}),
	}

	plan := solveAndExtract(t, build(t, in, config(21)))

	lastUsable := demandOn(plan, "M", 17)
	assert.InDelta(t, 100, lastUsable.FromAmbient, 1e-6)
	assert.InDelta(t, 100, lastUsable.FromInitial, 1e-6)
	assert.Zero(t, lastUsable.Shortage)

	expired := demandOn(plan, "M", 18)
	assert.Zero(t, expired.FromAmbient)
	assert.InDelta(t, 100, expired.Shortage, 1e-6)
	assert.True(t, plan.Costs.Shortage.Equal(decimal.NewFromInt(1000)))
}

func TestPlan_UnservableDemandIsAllShortage(t *testing.T) {
	costs := planningtest.StandardCosts()
	costs.ShortagePenaltyPerUnit = 12.5
	in := Input{
		Network: entities.Network{
			Nodes:    []entities.Node{planningtest.Store("DC")},
			Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
		},
		Costs:  costs,
		Demand: []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(1), 1000)},
	}

	plan := solveAndExtract(t, build(t, in, config(3)))

	d := demandOn(plan, "DC", 1)
	assert.Equal(t, 1000.0, d.Shortage)
	assert.Zero(t, d.Fulfilled())
	assert.Equal(t, "12500", plan.Costs.Shortage.String())
	assert.True(t, plan.Costs.Total.Equal(plan.Costs.Shortage))
	assert.Equal(t, 0.0, plan.FillRate())
}

func TestPlan_ShelfLifeWindowLimitsOldProduction(t *testing.T) {
	caps := planningtest.PlantCaps
	caps.ReceivesDemand = true
	network := entities.Network{
		Nodes:    []entities.Node{planningtest.Plant("MFG", caps, 10, 100)},
		Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
	}
	in := Input{
		Network: network,
		Costs:   planningtest.StandardCosts(),
		Demand:  []entities.DemandEntry{planningtest.Demand("MFG", "P1", planningtest.Day(5), 400)},
	}

	short := config(6)
	short.ShelfLife.Ambient = 3
	plan := solveAndExtract(t, build(t, in, short))
	assert.InDelta(t, 100, demandOn(plan, "MFG", 5).Shortage, 1e-6)
	for _, p := range plan.Production {
		assert.False(t, p.Date.Before(planningtest.Day(3)), "production outside the window cannot serve demand")
	}

	plan = solveAndExtract(t, build(t, in, config(6)))
	assert.Zero(t, demandOn(plan, "MFG", 5).Shortage)
}

func TestPlan_FrozenShipmentArrivesThawed(t *testing.T) {
	in := Input{
		Network: entities.Network{
			Nodes: []entities.Node{
				planningtest.Plant("MFG", planningtest.PlantWithFreezerCaps, 100, 1000),
				planningtest.Store("DC"),
			},
			Routes:   []entities.Route{planningtest.FrozenRoute("MFG-DC", "MFG", "DC", 1, 0.5)},
			Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
		},
		Costs:  planningtest.StandardCosts(),
		Demand: []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(2), 100)},
	}

	plan := solveAndExtract(t, build(t, in, config(4)))

	d := demandOn(plan, "DC", 2)
	assert.InDelta(t, 100, d.FromThawed, 1e-6)
	assert.Zero(t, d.FromAmbient)
	require.Len(t, plan.Shipments, 1)
	assert.Equal(t, entities.Thawed, plan.Shipments[0].ArrivalState)
	require.Len(t, plan.Transitions, 1)
	assert.Equal(t, entities.Ambient, plan.Transitions[0].From)
	assert.Equal(t, entities.Frozen, plan.Transitions[0].To)
	assert.InDelta(t, 150, plan.Objective, 1e-6)
}

func TestPlan_TruckCapacityLimitsShipments(t *testing.T) {
	in := singleLaneInput(1)
	in.Network.Trucks = []entities.TruckSchedule{{ID: "T1", Origin: "MFG", Destination: "DC", PalletCapacity: 1}}
	in.Demand = []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(2), 30)}

	plan := solveAndExtract(t, build(t, in, config(3)))

	assert.InDelta(t, 10, demandOn(plan, "DC", 2).Shortage, 1e-6)
	for _, s := range plan.Shipments {
		assert.LessOrEqual(t, s.Quantity, 10+1e-6)
	}
}

func TestPlan_LaborCosts(t *testing.T) {
	caps := planningtest.PlantCaps
	caps.ReceivesDemand = true
	network := entities.Network{
		Nodes:    []entities.Node{planningtest.Plant("MFG", caps, 100, 0)},
		Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
	}

	t.Run("non-fixed day pays the minimum", func(t *testing.T) {
		labor, err := entities.NewLaborCalendar([]entities.LaborDay{{
			Date: planningtest.Day(0), MaxHours: 10, MinimumHours: 4, NonFixedRate: 40,
		}})
		require.NoError(t, err)
		in := Input{
			Network: network,
			Costs:   planningtest.StandardCosts(),
			Labor:   labor,
			Demand:  []entities.DemandEntry{planningtest.Demand("MFG", "P1", planningtest.Day(0), 100)},
		}

		plan := solveAndExtract(t, build(t, in, config(1)))

		require.Len(t, plan.Labor, 1)
		rec := plan.Labor[0]
		assert.False(t, rec.FixedDay)
		assert.InDelta(t, 1, rec.Hours, 1e-6)
		assert.InDelta(t, 4, rec.PaidHours, 1e-6)
		assert.Equal(t, "160", rec.Cost.String())
		assert.InDelta(t, 260, plan.Objective, 1e-6)
	})

	t.Run("fixed day charges overtime only", func(t *testing.T) {
		labor, err := entities.NewLaborCalendar([]entities.LaborDay{{
			Date: planningtest.Day(0), FixedHours: 8, MaxHours: 14, OvertimeRate: 30,
		}})
		require.NoError(t, err)
		in := Input{
			Network: network,
			Costs:   planningtest.StandardCosts(),
			Labor:   labor,
			Demand:  []entities.DemandEntry{planningtest.Demand("MFG", "P1", planningtest.Day(0), 1000)},
		}

		plan := solveAndExtract(t, build(t, in, config(1)))

		require.Len(t, plan.Labor, 1)
		assert.InDelta(t, 10, plan.Labor[0].Hours, 1e-6)
		assert.InDelta(t, 2, plan.Labor[0].Overtime, 1e-6)
		assert.True(t, plan.Costs.Labor.Equal(decimal.NewFromInt(60)))
	})
}

func TestPlan_ChangeoverStarts(t *testing.T) {
	caps := planningtest.PlantCaps
	caps.ReceivesDemand = true
	costs := planningtest.StandardCosts()
	costs.ChangeoverCostPerStart = 5
	costs.ProducedIndicatorPenalty = 0.01
	in := Input{
		Network: entities.Network{
			Nodes: []entities.Node{planningtest.Plant("MFG", caps, 100, 1000)},
			Products: []entities.Product{
				planningtest.MustProduct("P1", 0, 10),
				planningtest.MustProduct("P2", 0, 10),
			},
		},
		Costs: costs,
		Demand: []entities.DemandEntry{
			planningtest.Demand("MFG", "P1", planningtest.Day(0), 50),
			planningtest.Demand("MFG", "P2", planningtest.Day(1), 50),
		},
	}
	cfg := config(2)
	cfg.TrackChangeovers = true

	plan := solveAndExtract(t, build(t, in, cfg))

	starts := 0
	for _, c := range plan.Changeovers {
		starts += c.Starts
	}
	assert.Equal(t, 2, starts)
	assert.True(t, plan.Costs.Changeover.Equal(decimal.NewFromInt(10)))
	assert.InDelta(t, 100, plan.TotalProduction(), 1e-6)
}

func TestPlan_MixSizeQuantizesProduction(t *testing.T) {
	in := singleLaneInput(1)
	in.Network.Products = []entities.Product{planningtest.MustProduct("P1", 40, 10)}
	in.Demand = []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(2), 100)}

	plan := solveAndExtract(t, build(t, in, config(3)))

	for _, p := range plan.Production {
		assert.InDelta(t, 0, math.Mod(p.Quantity, 40), 1e-6)
		assert.Equal(t, int(p.Quantity/40), p.Mixes)
	}
	assert.Zero(t, demandOn(plan, "DC", 2).Shortage)
}

func TestExtract_UnreadableValues(t *testing.T) {
	in := singleLaneInput(1)
	in.Demand = []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(1), 10)}
	m := build(t, in, config(2))

	values := make([]float64, m.Problem.NumVariables())
	for i := range values {
		values[i] = math.NaN()
	}
	_, err := NewExtractor(quiet).Extract(m, solver.NewSolution(solver.StatusOptimal, 0, values))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadableValues))
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Positive(t, extractErr.Count)
	assert.LessOrEqual(t, len(extractErr.Samples), maxSamples)
}

func TestExtract_NoSolution(t *testing.T) {
	m := build(t, singleLaneInput(1), config(2))

	_, err := NewExtractor(quiet).Extract(m, solver.NewSolution(solver.StatusInfeasible, 0, nil))

	assert.True(t, errors.Is(err, ErrNoSolution))
}

func TestSolve_InfeasibleWithoutShortages(t *testing.T) {
	in := Input{
		Network: entities.Network{
			Nodes:    []entities.Node{planningtest.Store("DC")},
			Products: []entities.Product{planningtest.MustProduct("P1", 0, 10)},
		},
		Costs:  planningtest.StandardCosts(),
		Demand: []entities.DemandEntry{planningtest.Demand("DC", "P1", planningtest.Day(1), 10)},
	}
	cfg := config(2)
	cfg.AllowShortages = false

	m := build(t, in, cfg)
	sol, err := solver.NewBranchAndBound(quiet).Solve(context.Background(), m.Problem, solver.DefaultOptions())

	require.NoError(t, err)
	assert.Equal(t, solver.StatusInfeasible, sol.Status)
}
