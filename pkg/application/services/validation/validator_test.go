package validation

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	planningtest "github.com/vsinha/perishplan/pkg/infrastructure/testing"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// validPlan ships through the hub to both stores
func validPlan() *dto.PlanResult {
	day := planningtest.Day
	plan := &dto.PlanResult{
		Objective: 150,
		StartDate: day(0),
		EndDate:   day(3),
		Production: []dto.ProductionRecord{
			{Node: "MFG", Product: "P1", Date: day(0), State: entities.Ambient, Quantity: 100},
		},
		Shipments: []dto.ShipmentRecord{
			{Origin: "MFG", Destination: "HUB", Product: "P1", DepartureDate: day(0), DeliveryDate: day(1), Quantity: 100},
			{Origin: "HUB", Destination: "STORE-B", Product: "P1", DepartureDate: day(1), DeliveryDate: day(2), Quantity: 100},
		},
		Demand: []dto.DemandRecord{
			{Node: "STORE-B", Product: "P1", Date: day(2), Demand: 120, FromAmbient: 100, Shortage: 20},
		},
		Labor: []dto.LaborRecord{
			{Node: "MFG", Date: day(0), FixedDay: true, Hours: 1},
		},
	}
	plan.Costs.Production = decimal.NewFromInt(100)
	plan.Costs.Transport = decimal.NewFromInt(50)
	plan.Costs.Total = plan.Costs.Sum()
	return plan
}

func TestValidator_AcceptsValidPlan(t *testing.T) {
	err := NewValidator(quiet).Validate(validPlan(), planningtest.HubNetwork())
	assert.NoError(t, err)
}

func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(plan *dto.PlanResult, network *entities.Network)
		rule   Rule
	}{
		{
			name: "labor without production",
			mutate: func(plan *dto.PlanResult, _ *entities.Network) {
				plan.Labor = append(plan.Labor, dto.LaborRecord{Node: "MFG", Date: planningtest.Day(1), FixedDay: true, Hours: 2})
			},
			rule: RuleLaborWithoutProduction,
		},
		{
			name: "shipment on a day the truck does not run",
			mutate: func(_ *dto.PlanResult, network *entities.Network) {
				// Day(0) is a Monday
				network.Trucks = []entities.TruckSchedule{{
					ID: "T1", Origin: "MFG", Destination: "HUB", PalletCapacity: 10,
					DaysOfWeek: []time.Weekday{time.Tuesday},
				}}
			},
			rule: RuleTruckNotOperating,
		},
		{
			name: "hub bypassed",
			mutate: func(plan *dto.PlanResult, _ *entities.Network) {
				plan.Shipments = plan.Shipments[:1]
			},
			rule: RuleMandatoryNodeBypassed,
		},
		{
			name: "non-fixed labor under the minimum",
			mutate: func(plan *dto.PlanResult, _ *entities.Network) {
				plan.Labor[0] = dto.LaborRecord{Node: "MFG", Date: planningtest.Day(0), Hours: 1, PaidHours: 1, Minimum: 4}
			},
			rule: RuleLaborBelowMinimum,
		},
		{
			name: "demand not balanced",
			mutate: func(plan *dto.PlanResult, _ *entities.Network) {
				plan.Demand[0].Shortage = 0
			},
			rule: RuleDemandUnbalanced,
		},
		{
			name: "breakdown off the objective",
			mutate: func(plan *dto.PlanResult, _ *entities.Network) {
				plan.Objective = 151
			},
			rule: RuleCostMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			network := planningtest.HubNetwork()
			tt.mutate(plan, &network)

			err := NewValidator(quiet).Validate(plan, network)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBusinessRuleViolation))
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.Len(t, validationErr.Violations, 1)
			assert.Equal(t, tt.rule, validationErr.Violations[0].Rule)
		})
	}
}

func TestValidator_NonFixedLaborAtZeroOrFloorIsFine(t *testing.T) {
	plan := validPlan()
	plan.Labor = []dto.LaborRecord{
		{Node: "MFG", Date: planningtest.Day(0), Hours: 1, PaidHours: 4, Minimum: 4},
		{Node: "MFG", Date: planningtest.Day(1), Minimum: 4},
	}

	assert.NoError(t, NewValidator(quiet).Validate(plan, planningtest.HubNetwork()))
}

func TestValidator_HubNotRequiredWhenStoreHasDirectLane(t *testing.T) {
	day := planningtest.Day
	plan := validPlan()
	plan.Shipments = []dto.ShipmentRecord{
		{Origin: "MFG", Destination: "STORE-A", Product: "P1", DepartureDate: day(0), DeliveryDate: day(1), Quantity: 100},
	}
	plan.Demand = []dto.DemandRecord{
		{Node: "STORE-A", Product: "P1", Date: day(1), Demand: 100, FromAmbient: 100},
	}

	assert.NoError(t, NewValidator(quiet).Validate(plan, planningtest.HubNetwork()))
}

func TestRouteGraph_Reachable(t *testing.T) {
	network := planningtest.HubNetwork()
	g := newRouteGraph(network.Routes)
	sources := map[entities.NodeID]bool{"MFG": true}

	assert.True(t, g.reachable(sources, "STORE-B", ""))
	assert.False(t, g.reachable(sources, "STORE-B", "HUB"))
	assert.True(t, g.reachable(sources, "STORE-A", "HUB"))
}
