package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/application/services/model"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	planningtest "github.com/vsinha/perishplan/pkg/infrastructure/testing"
	"github.com/vsinha/perishplan/pkg/solver"
)

func mustBatch(t *testing.T, id string, state entities.ProductState, produced int, qty float64) *entities.Batch {
	t.Helper()
	b, err := entities.NewBatch(id, "P1", "DC", planningtest.Day(produced), state, qty)
	require.NoError(t, err)
	return b
}

// A batch frozen for 60 days has used half its frozen life; one held ambient
// for 10 days has used 10/17 of its ambient life and is the staler of the two.
func TestLPAllocator_PrefersLowerWeightedAge(t *testing.T) {
	frozen := mustBatch(t, "FROZEN", entities.Frozen, 0, 100)
	frozen.Transition(entities.Thawed, planningtest.Day(60))
	ambient := mustBatch(t, "AMBIENT", entities.Ambient, 50, 100)

	req := Request{
		ID:        "ship-1",
		Node:      "DC",
		Product:   "P1",
		States:    []entities.ProductState{entities.Ambient, entities.Thawed},
		Quantity:  100,
		Date:      planningtest.Day(60),
		AsOf:      planningtest.Day(60),
		ShelfLife: entities.DefaultShelfLife(),
	}

	allocator := NewLPAllocator(solver.NewBranchAndBound(quiet))
	assignments, err := allocator.Allocate(context.Background(), []*entities.Batch{ambient, frozen}, []Request{req})

	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "FROZEN", assignments[0].BatchID)
	assert.InDelta(t, 100, assignments[0].Quantity, 1e-6)
}

func TestLPAllocator_SharesBatchesAcrossRequests(t *testing.T) {
	old := mustBatch(t, "OLD", entities.Ambient, 0, 60)
	fresh := mustBatch(t, "FRESH", entities.Ambient, 8, 60)
	shelf := entities.DefaultShelfLife()
	requests := []Request{
		{ID: "a", Node: "DC", Product: "P1", States: []entities.ProductState{entities.Ambient}, Quantity: 50, AsOf: planningtest.Day(10), ShelfLife: shelf},
		{ID: "b", Node: "DC", Product: "P1", States: []entities.ProductState{entities.Ambient}, Quantity: 50, AsOf: planningtest.Day(10), ShelfLife: shelf},
	}

	assignments, err := NewLPAllocator(solver.NewBranchAndBound(quiet)).Allocate(context.Background(), []*entities.Batch{old, fresh}, requests)
	require.NoError(t, err)

	perBatch := map[string]float64{}
	perRequest := map[string]float64{}
	for _, as := range assignments {
		perBatch[as.BatchID] += as.Quantity
		perRequest[as.Request] += as.Quantity
	}
	assert.InDelta(t, 50, perRequest["a"], 1e-6)
	assert.InDelta(t, 50, perRequest["b"], 1e-6)
	assert.InDelta(t, 60, perBatch["FRESH"], 1e-6)
	assert.InDelta(t, 40, perBatch["OLD"], 1e-6)
}

func TestLPAllocator_InsufficientSupply(t *testing.T) {
	b := mustBatch(t, "ONLY", entities.Ambient, 0, 10)
	req := Request{ID: "r", Node: "DC", Product: "P1", States: []entities.ProductState{entities.Ambient}, Quantity: 25, ShelfLife: entities.DefaultShelfLife()}

	_, err := NewLPAllocator(solver.NewBranchAndBound(quiet)).Allocate(context.Background(), []*entities.Batch{b}, []Request{req})

	assert.True(t, errors.Is(err, ErrInsufficientSupply))
}

func TestAllocator_RoundTripsSolvedPlans(t *testing.T) {
	in := model.Input{
		Network: planningtest.HubNetwork(),
		Costs:   planningtest.StandardCosts(),
		Demand: []entities.DemandEntry{
			planningtest.Demand("STORE-A", "P1", planningtest.Day(2), 120),
			planningtest.Demand("STORE-B", "P1", planningtest.Day(3), 80),
			planningtest.Demand("STORE-B", "P1", planningtest.Day(5), 40),
		},
		Initial: planningtest.Initial(planningtest.Day(0),
			entities.InventoryEntry{Node: "HUB", Product: "P1", Quantity: 50},
			entities.InventoryEntry{Node: "STORE-A", Product: "P1", Quantity: 30},
		),
	}
	m, err := model.NewBuilder(quiet).Build(in, model.DefaultConfig(planningtest.Day(0), planningtest.Day(5)))
	require.NoError(t, err)
	sol, err := solver.NewBranchAndBound(quiet).Solve(context.Background(), m.Problem, solver.DefaultOptions())
	require.NoError(t, err)
	plan, err := model.NewExtractor(quiet).Extract(m, sol)
	require.NoError(t, err)

	strategies := []Strategy{NewFEFO(), NewLPAllocator(solver.NewBranchAndBound(quiet))}
	for _, strategy := range strategies {
		t.Run(strategy.Name(), func(t *testing.T) {
			report, err := NewAllocator(strategy, quiet).Allocate(context.Background(), plan)
			require.NoError(t, err)
			assert.NoError(t, report.VerifyAgainst(plan))
			for _, b := range report.Batches {
				assert.LessOrEqual(t, b.Quantity, b.InitialQuantity)
			}
		})
	}
}
