package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/perishplan"
)

func main() {
	ctx := context.Background()
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	// A bakery ships fresh to a hub that can freeze, and the hub serves two
	// stores: one over an ambient lane, one over a frozen lane
	network := entities.Network{
		Nodes: []entities.Node{
			{ID: "BAKERY", Capabilities: entities.NodeCapabilities{CanProduce: true, StoresAmbient: true}, MaxDailyProduction: 600},
			{ID: "HUB", Capabilities: entities.NodeCapabilities{StoresAmbient: true, StoresFrozen: true}},
			{ID: "CITY", Capabilities: entities.NodeCapabilities{StoresAmbient: true, ReceivesDemand: true}},
			{ID: "COAST", Capabilities: entities.NodeCapabilities{StoresAmbient: true, ReceivesDemand: true}},
		},
		Routes: []entities.Route{
			{ID: "BAKERY-HUB", Origin: "BAKERY", Destination: "HUB", TransitDays: 1, CostPerUnit: 0.2},
			{ID: "HUB-CITY", Origin: "HUB", Destination: "CITY", TransitDays: 0.5, CostPerUnit: 0.1},
			{ID: "HUB-COAST", Origin: "HUB", Destination: "COAST", TransitDays: 2, Mode: entities.ModeFrozen, CostPerUnit: 0.4},
		},
		Products: []entities.Product{{ID: "SOURDOUGH", MixSize: 50, UnitsPerPallet: 100}},
	}

	var demand []entities.DemandEntry
	for d := 2; d < 14; d++ {
		date := entities.AddDays(start, d)
		if date.Weekday() == time.Sunday {
			continue
		}
		demand = append(demand,
			entities.DemandEntry{Node: "CITY", Product: "SOURDOUGH", Date: date, Quantity: 180},
			entities.DemandEntry{Node: "COAST", Product: "SOURDOUGH", Date: date, Quantity: 90},
		)
	}

	in := perishplan.Input{
		Network: network,
		Demand:  demand,
		Costs: entities.CostStructure{
			ProductionCostPerUnit:          1,
			StorageCostPerPalletDayAmbient: 0.5,
			StorageCostPerPalletDayFrozen:  0.8,
			ShortagePenaltyPerUnit:         10,
			DisposalPenaltyPerUnit:         15,
			WasteCostMultiplier:            1.5,
		},
	}

	planner := perishplan.NewPlanner()
	defer planner.Close()

	opts := perishplan.DefaultOptions(start, entities.AddDays(start, 13))
	opts.Name = "bakery-example"

	run, err := planner.Plan(ctx, in, opts)
	if err != nil {
		log.Fatalf("planning failed: %v", err)
	}

	fmt.Printf("Run %s: %s in %v\n", run.ID, run.Status, run.Duration)
	if run.Plan == nil {
		return
	}
	plan := run.Plan
	fmt.Printf("Produced %.0f units, fill rate %.1f%%, total cost %s\n",
		plan.TotalProduction(), plan.FillRate()*100, plan.Costs.Total.StringFixed(2))
	for _, p := range plan.Production {
		fmt.Printf("  %s  %-8s %6.0f units (%d mixes)\n", p.Date.Format(entities.DateLayout), p.Node, p.Quantity, p.Mixes)
	}
	fmt.Printf("Batches tracked: %d\n", len(run.Batches))
}
