package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostStructureRequiresDisposalAboveShortage(t *testing.T) {
	costs := CostStructure{ShortagePenaltyPerUnit: 10, DisposalPenaltyPerUnit: 10}
	err := costs.Validate()
	assert.True(t, errors.Is(err, ErrDisposalNotAboveShortage))

	costs.DisposalPenaltyPerUnit = 5
	assert.ErrorIs(t, costs.Validate(), ErrDisposalNotAboveShortage)

	costs.DisposalPenaltyPerUnit = 15
	assert.NoError(t, costs.Validate())
}

func TestCostStructureRejectsNegatives(t *testing.T) {
	costs := CostStructure{ShortagePenaltyPerUnit: 1, DisposalPenaltyPerUnit: 2, ProductionCostPerUnit: -1}
	assert.Error(t, costs.Validate())
}

func TestDerivedCosts(t *testing.T) {
	costs := CostStructure{ProductionCostPerUnit: 2, WasteCostMultiplier: 1.5, ChangeoverYieldLossUnits: 30}
	assert.InDelta(t, 3, costs.WasteCostPerUnit(), 1e-12)
	assert.InDelta(t, 60, costs.YieldLossCostPerStart(), 1e-12)
}
