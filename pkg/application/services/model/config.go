package model

import (
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// Config holds the horizon and feature flags of one model build
type Config struct {
	StartDate time.Time
	EndDate   time.Time
	ShelfLife entities.ShelfLife

	// AllowShortages adds shortage variables; without it demand must be met
	AllowShortages bool
	// PalletTracking charges holding cost on whole pallets (integer)
	PalletTracking bool
	// PalletEntryFees charges a one-time fee per pallet entering storage;
	// requires PalletTracking
	PalletEntryFees bool
	// TrackChangeovers adds product start binaries and changeover costs
	TrackChangeovers bool
	// AllowNewStockDisposal lets the model write off freshly made stock
	AllowNewStockDisposal bool
}

// DefaultConfig returns a configuration for the given horizon
func DefaultConfig(start, end time.Time) Config {
	return Config{
		StartDate:      start,
		EndDate:        end,
		ShelfLife:      entities.DefaultShelfLife(),
		AllowShortages: true,
	}
}

// Input is everything the model is built from
type Input struct {
	Network entities.Network
	Demand  []entities.DemandEntry
	// Labor is optional; without a calendar labor is unconstrained and daily
	// capacity falls back to each node's MaxDailyProduction
	Labor   *entities.LaborCalendar
	Costs   entities.CostStructure
	Initial *entities.InitialInventory
}
