package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/vsinha/perishplan/pkg/application/services/model"
	"github.com/vsinha/perishplan/pkg/application/services/orchestration"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/perishplan/pkg/solver"
)

// Build converts the scenario into model input and run options, loading any
// referenced CSV tables
func (s *Scenario) Build() (model.Input, orchestration.RunOptions, error) {
	opts, err := s.RunOptions()
	if err != nil {
		return model.Input{}, orchestration.RunOptions{}, err
	}
	in, err := s.Input(opts.Model.StartDate)
	if err != nil {
		return model.Input{}, orchestration.RunOptions{}, err
	}
	return in, opts, nil
}

// RunOptions converts the horizon, model flags, solver limits and allocation
// mode
func (s *Scenario) RunOptions() (orchestration.RunOptions, error) {
	start, err := parseDate("horizon.start", s.Horizon.Start)
	if err != nil {
		return orchestration.RunOptions{}, err
	}
	end, err := parseDate("horizon.end", s.Horizon.End)
	if err != nil {
		return orchestration.RunOptions{}, err
	}

	cfg := model.DefaultConfig(start, end)
	if s.Model.AllowShortages != nil {
		cfg.AllowShortages = *s.Model.AllowShortages
	}
	cfg.PalletTracking = s.Model.PalletTracking
	cfg.PalletEntryFees = s.Model.PalletEntryFees
	cfg.TrackChangeovers = s.Model.TrackChangeovers
	cfg.AllowNewStockDisposal = s.Model.AllowNewStockDisposal
	if s.ShelfLife != nil {
		cfg.ShelfLife = entities.ShelfLife{
			Ambient: s.ShelfLife.Ambient,
			Frozen:  s.ShelfLife.Frozen,
			Thawed:  s.ShelfLife.Thawed,
		}
	}

	limits := solver.DefaultOptions()
	if s.Solver.TimeLimit < 0 || s.Solver.GapTolerance < 0 || s.Solver.MaxNodes < 0 {
		return orchestration.RunOptions{}, fmt.Errorf("%w: solver limits cannot be negative", ErrInvalidScenario)
	}
	if s.Solver.TimeLimit > 0 {
		limits.TimeLimit = s.Solver.TimeLimit
	}
	if s.Solver.GapTolerance > 0 {
		limits.GapTolerance = s.Solver.GapTolerance
	}
	if s.Solver.MaxNodes > 0 {
		limits.MaxNodes = s.Solver.MaxNodes
	}

	mode, err := orchestration.ParseAllocationMode(s.Allocation)
	if err != nil {
		return orchestration.RunOptions{}, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	return orchestration.RunOptions{
		Name:       s.Name,
		Model:      cfg,
		Solver:     limits,
		Allocation: mode,
	}, nil
}

// Input converts the network and tables. start is the default inventory
// snapshot date.
func (s *Scenario) Input(start time.Time) (model.Input, error) {
	var issues []string
	addf := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	network := s.network(addf)
	costs := s.costs()
	if err := costs.Validate(); err != nil {
		addf("costs: %v", err)
	}

	loader := csv.NewLoader()
	demand, err := s.demand(loader)
	if err != nil {
		addf("demand: %v", err)
	}
	labor, err := s.labor(loader)
	if err != nil {
		addf("labor: %v", err)
	}
	initial, err := s.inventory(loader, start)
	if err != nil {
		addf("inventory: %v", err)
	}

	if len(issues) > 0 {
		return model.Input{}, fmt.Errorf("%w: %s", ErrInvalidScenario, strings.Join(issues, "; "))
	}
	return model.Input{
		Network: network,
		Demand:  demand,
		Labor:   labor,
		Costs:   costs,
		Initial: initial,
	}, nil
}

func (s *Scenario) network(addf func(string, ...any)) entities.Network {
	var network entities.Network

	for _, nc := range s.Network.Nodes {
		caps := entities.NodeCapabilities{
			CanProduce:     nc.Produces,
			StoresAmbient:  nc.Ambient,
			StoresFrozen:   nc.Frozen,
			ReceivesDemand: nc.Demand,
		}
		node, err := entities.NewNode(entities.NodeID(nc.ID), nc.Name, caps, nc.ProductionRate, nc.StorageCapacity)
		if err != nil {
			addf("%v", err)
			continue
		}
		if nc.MaxDailyProduction < 0 {
			addf("node %s: max daily production cannot be negative", nc.ID)
			continue
		}
		node.MaxDailyProduction = nc.MaxDailyProduction
		network.Nodes = append(network.Nodes, *node)
	}

	for _, rc := range s.Network.Routes {
		mode, err := entities.ParseTransportMode(rc.Mode)
		if err != nil {
			addf("route %s: %v", rc.ID, err)
			continue
		}
		route, err := entities.NewRoute(rc.ID, entities.NodeID(rc.Origin), entities.NodeID(rc.Destination),
			rc.TransitDays, mode, rc.CostPerUnit)
		if err != nil {
			addf("%v", err)
			continue
		}
		network.Routes = append(network.Routes, *route)
	}

	for _, tc := range s.Network.Trucks {
		truck := entities.TruckSchedule{
			ID:             tc.ID,
			Origin:         entities.NodeID(tc.Origin),
			Destination:    entities.NodeID(tc.Destination),
			PalletCapacity: tc.PalletCapacity,
		}
		for _, stop := range tc.Stops {
			truck.IntermediateStops = append(truck.IntermediateStops, entities.NodeID(stop))
		}
		for _, day := range tc.Days {
			wd, err := entities.ParseWeekday(day)
			if err != nil {
				addf("truck %s: %v", tc.ID, err)
				continue
			}
			truck.DaysOfWeek = append(truck.DaysOfWeek, wd)
		}
		network.Trucks = append(network.Trucks, truck)
	}

	for _, pc := range s.Network.Products {
		product, err := entities.NewProduct(entities.ProductID(pc.ID), pc.Name, pc.MixSize, pc.UnitsPerPallet)
		if err != nil {
			addf("%v", err)
			continue
		}
		network.Products = append(network.Products, *product)
	}
	return network
}

func (s *Scenario) costs() entities.CostStructure {
	c := s.Costs
	return entities.CostStructure{
		ProductionCostPerUnit:            c.ProductionPerUnit,
		StorageCostPerPalletDayFrozen:    c.StorageFrozenPerPallet,
		StorageCostPerPalletDayAmbient:   c.StorageAmbientPerPallet,
		StorageEntryCostPerPalletFrozen:  c.EntryFrozenPerPallet,
		StorageEntryCostPerPalletAmbient: c.EntryAmbientPerPallet,
		ShortagePenaltyPerUnit:           c.ShortagePerUnit,
		DisposalPenaltyPerUnit:           c.DisposalPerUnit,
		WasteCostMultiplier:              c.WasteMultiplier,
		ChangeoverCostPerStart:           c.ChangeoverPerStart,
		ChangeoverYieldLossUnits:         c.ChangeoverYieldLossUnits,
		ChangeoverHours:                  c.ChangeoverHours,
		ProducedIndicatorPenalty:         c.ProducedIndicatorPenalty,
	}
}

func (s *Scenario) demand(loader *csv.Loader) ([]entities.DemandEntry, error) {
	var out []entities.DemandEntry
	if s.Demand.File != "" {
		loaded, err := loader.LoadDemand(s.resolve(s.Demand.File))
		if err != nil {
			return nil, err
		}
		out = append(out, loaded...)
	}
	for i, dc := range s.Demand.Entries {
		date, err := parseDate(fmt.Sprintf("entry %d date", i), dc.Date)
		if err != nil {
			return nil, err
		}
		if dc.Quantity < 0 {
			return nil, fmt.Errorf("entry %d: quantity cannot be negative, got %g", i, dc.Quantity)
		}
		out = append(out, entities.DemandEntry{
			Node:     entities.NodeID(dc.Node),
			Product:  entities.ProductID(dc.Product),
			Date:     date,
			Quantity: dc.Quantity,
		})
	}
	return out, nil
}

// labor returns nil when no days are configured, leaving labor unconstrained
func (s *Scenario) labor(loader *csv.Loader) (*entities.LaborCalendar, error) {
	var days []entities.LaborDay
	if s.Labor.File != "" {
		loaded, err := loader.LoadLabor(s.resolve(s.Labor.File))
		if err != nil {
			return nil, err
		}
		days = append(days, loaded...)
	}
	for i, lc := range s.Labor.Days {
		date, err := parseDate(fmt.Sprintf("day %d date", i), lc.Date)
		if err != nil {
			return nil, err
		}
		days = append(days, entities.LaborDay{
			Date:         date,
			FixedHours:   lc.FixedHours,
			MaxHours:     lc.MaxHours,
			RegularRate:  lc.RegularRate,
			OvertimeRate: lc.OvertimeRate,
			NonFixedRate: lc.NonFixedRate,
			MinimumHours: lc.MinimumHours,
		})
	}
	if len(days) == 0 {
		return nil, nil
	}
	return entities.NewLaborCalendar(days)
}

func (s *Scenario) inventory(loader *csv.Loader, start time.Time) (*entities.InitialInventory, error) {
	var entries []entities.InventoryEntry
	if s.Inventory.File != "" {
		loaded, err := loader.LoadInventory(s.resolve(s.Inventory.File))
		if err != nil {
			return nil, err
		}
		entries = append(entries, loaded...)
	}
	for _, ic := range s.Inventory.Entries {
		state, err := entities.ParseProductState(ic.State)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entities.InventoryEntry{
			Node:     entities.NodeID(ic.Node),
			Product:  entities.ProductID(ic.Product),
			State:    state,
			Quantity: ic.Quantity,
		})
	}
	if len(entries) == 0 {
		return nil, nil
	}

	snapshot := start
	if s.Inventory.Snapshot != "" {
		var err error
		if snapshot, err = parseDate("snapshot", s.Inventory.Snapshot); err != nil {
			return nil, err
		}
	}
	return entities.NewInitialInventory(snapshot, entries)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidScenario, field)
	}
	date, err := time.Parse(entities.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: invalid date %q (expected YYYY-MM-DD)", ErrInvalidScenario, field, value)
	}
	return date, nil
}
