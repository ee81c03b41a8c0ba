package entities

import (
	"errors"
	"fmt"
)

// ErrDisposalNotAboveShortage is returned when disposing stock would be no
// more expensive than leaving demand unmet
var ErrDisposalNotAboveShortage = errors.New("disposal penalty must be strictly greater than shortage penalty")

// CostStructure holds every cost coefficient of the planning objective
type CostStructure struct {
	ProductionCostPerUnit float64

	StorageCostPerPalletDayFrozen  float64
	StorageCostPerPalletDayAmbient float64
	// Entry fees are charged once per pallet moved into storage
	StorageEntryCostPerPalletFrozen  float64
	StorageEntryCostPerPalletAmbient float64

	ShortagePenaltyPerUnit float64
	DisposalPenaltyPerUnit float64
	// WasteCostMultiplier scales production cost for stock left at horizon end
	WasteCostMultiplier float64

	ChangeoverCostPerStart   float64
	ChangeoverYieldLossUnits float64
	ChangeoverHours          float64
	// ProducedIndicatorPenalty is charged per product-day flagged as produced
	ProducedIndicatorPenalty float64
}

// Validate checks coefficient signs and the disposal/shortage ordering
func (c CostStructure) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"production cost", c.ProductionCostPerUnit},
		{"frozen storage cost", c.StorageCostPerPalletDayFrozen},
		{"ambient storage cost", c.StorageCostPerPalletDayAmbient},
		{"frozen entry cost", c.StorageEntryCostPerPalletFrozen},
		{"ambient entry cost", c.StorageEntryCostPerPalletAmbient},
		{"shortage penalty", c.ShortagePenaltyPerUnit},
		{"disposal penalty", c.DisposalPenaltyPerUnit},
		{"waste multiplier", c.WasteCostMultiplier},
		{"changeover cost", c.ChangeoverCostPerStart},
		{"changeover yield loss", c.ChangeoverYieldLossUnits},
		{"changeover hours", c.ChangeoverHours},
		{"produced indicator penalty", c.ProducedIndicatorPenalty},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%s cannot be negative, got %g", f.name, f.value)
		}
	}
	if c.DisposalPenaltyPerUnit <= c.ShortagePenaltyPerUnit {
		return fmt.Errorf("%w: disposal %g, shortage %g", ErrDisposalNotAboveShortage,
			c.DisposalPenaltyPerUnit, c.ShortagePenaltyPerUnit)
	}
	return nil
}

// StorageCostPerPalletDay returns the holding cost of a pallet in group g
func (c CostStructure) StorageCostPerPalletDay(g StateGroup) float64 {
	if g == FrozenGroup {
		return c.StorageCostPerPalletDayFrozen
	}
	return c.StorageCostPerPalletDayAmbient
}

// StorageEntryCostPerPallet returns the one-time entry fee for group g
func (c CostStructure) StorageEntryCostPerPallet(g StateGroup) float64 {
	if g == FrozenGroup {
		return c.StorageEntryCostPerPalletFrozen
	}
	return c.StorageEntryCostPerPalletAmbient
}

// WasteCostPerUnit is the end-of-horizon cost of an unused unit
func (c CostStructure) WasteCostPerUnit() float64 {
	return c.WasteCostMultiplier * c.ProductionCostPerUnit
}

// YieldLossCostPerStart is the value of product lost to one changeover
func (c CostStructure) YieldLossCostPerStart() float64 {
	return c.ChangeoverYieldLossUnits * c.ProductionCostPerUnit
}
