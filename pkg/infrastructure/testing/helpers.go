package testing

import (
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// Start is the first planning day used by the standard scenarios
var Start = MustDate("2025-01-06")

// MustDate parses a YYYY-MM-DD date and panics on error
func MustDate(value string) time.Time {
	t, err := time.Parse(entities.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return t
}

// Day returns the date n days after Start
func Day(n int) time.Time {
	return entities.AddDays(Start, n)
}

var (
	// PlantCaps is an ambient manufacturing site
	PlantCaps = entities.NodeCapabilities{CanProduce: true, StoresAmbient: true}
	// PlantWithFreezerCaps is a manufacturing site with frozen storage
	PlantWithFreezerCaps = entities.NodeCapabilities{CanProduce: true, StoresAmbient: true, StoresFrozen: true}
	// StoreCaps is an ambient demand location
	StoreCaps = entities.NodeCapabilities{StoresAmbient: true, ReceivesDemand: true}
	// HubCaps is a cross-dock that holds both ambient and frozen stock
	HubCaps = entities.NodeCapabilities{StoresAmbient: true, StoresFrozen: true}
	// FreezerCaps is a frozen-only warehouse
	FreezerCaps = entities.NodeCapabilities{StoresFrozen: true}
)

// mustNode is a helper for tests - panics on validation error
func mustNode(id entities.NodeID, caps entities.NodeCapabilities, rate, capacity float64) entities.Node {
	node, err := entities.NewNode(id, string(id), caps, rate, capacity)
	if err != nil {
		panic(err)
	}
	return *node
}

// mustRoute is a helper for tests - panics on validation error
func mustRoute(id string, origin, dest entities.NodeID, transit float64, mode entities.TransportMode, cost float64) entities.Route {
	route, err := entities.NewRoute(id, origin, dest, transit, mode, cost)
	if err != nil {
		panic(err)
	}
	return *route
}

// MustProduct creates a product and panics on validation error
func MustProduct(id entities.ProductID, mixSize, unitsPerPallet int) entities.Product {
	p, err := entities.NewProduct(id, string(id), mixSize, unitsPerPallet)
	if err != nil {
		panic(err)
	}
	return *p
}

// Plant returns a production node with a daily output cap
func Plant(id entities.NodeID, caps entities.NodeCapabilities, rate, maxDaily float64) entities.Node {
	node := mustNode(id, caps, rate, 0)
	node.MaxDailyProduction = maxDaily
	return node
}

// Store returns an ambient demand node
func Store(id entities.NodeID) entities.Node {
	return mustNode(id, StoreCaps, 0, 0)
}

// Node returns a node with the given capabilities
func Node(id entities.NodeID, caps entities.NodeCapabilities) entities.Node {
	return mustNode(id, caps, 0, 0)
}

// AmbientRoute returns an ambient lane
func AmbientRoute(id string, origin, dest entities.NodeID, transit, cost float64) entities.Route {
	return mustRoute(id, origin, dest, transit, entities.ModeAmbient, cost)
}

// FrozenRoute returns a frozen lane
func FrozenRoute(id string, origin, dest entities.NodeID, transit, cost float64) entities.Route {
	return mustRoute(id, origin, dest, transit, entities.ModeFrozen, cost)
}

// SingleLaneNetwork is one ambient plant shipping one product to one store
func SingleLaneNetwork(transitDays float64) entities.Network {
	return entities.Network{
		Nodes: []entities.Node{
			Plant("MFG", PlantCaps, 100, 1000),
			Store("DC"),
		},
		Routes:   []entities.Route{AmbientRoute("MFG-DC", "MFG", "DC", transitDays, 0.5)},
		Products: []entities.Product{MustProduct("P1", 0, 10)},
	}
}

// HubNetwork routes a plant through a hub to two stores; the hub is the only
// way to reach STORE-B
func HubNetwork() entities.Network {
	return entities.Network{
		Nodes: []entities.Node{
			Plant("MFG", PlantCaps, 100, 1000),
			Node("HUB", HubCaps),
			Store("STORE-A"),
			Store("STORE-B"),
		},
		Routes: []entities.Route{
			AmbientRoute("MFG-HUB", "MFG", "HUB", 1, 0.2),
			AmbientRoute("MFG-A", "MFG", "STORE-A", 1, 0.6),
			AmbientRoute("HUB-A", "HUB", "STORE-A", 1, 0.2),
			AmbientRoute("HUB-B", "HUB", "STORE-B", 1, 0.2),
		},
		Products: []entities.Product{MustProduct("P1", 0, 10)},
	}
}

// StandardCosts returns a cost structure with disposal above shortage
func StandardCosts() entities.CostStructure {
	return entities.CostStructure{
		ProductionCostPerUnit:            1,
		StorageCostPerPalletDayAmbient:   0.1,
		StorageCostPerPalletDayFrozen:    0.2,
		StorageEntryCostPerPalletAmbient: 0.5,
		StorageEntryCostPerPalletFrozen:  0.5,
		ShortagePenaltyPerUnit:           10,
		DisposalPenaltyPerUnit:           15,
		WasteCostMultiplier:              1.5,
	}
}

// Demand returns a demand entry
func Demand(node entities.NodeID, product entities.ProductID, date time.Time, qty float64) entities.DemandEntry {
	return entities.DemandEntry{Node: node, Product: product, Date: date, Quantity: qty}
}

// Initial returns an initial inventory snapshot and panics on validation error
func Initial(snapshot time.Time, entries ...entities.InventoryEntry) *entities.InitialInventory {
	inv, err := entities.NewInitialInventory(snapshot, entries)
	if err != nil {
		panic(err)
	}
	return inv
}

// LaborWeek returns a calendar from start for n days: weekdays carry a fixed
// shift, weekends are non-fixed with a minimum call-in
func LaborWeek(start time.Time, n int, fixedHours, minimumHours float64) *entities.LaborCalendar {
	days := make([]entities.LaborDay, 0, n)
	for i := 0; i < n; i++ {
		date := entities.AddDays(start, i)
		day := entities.LaborDay{
			Date:         date,
			MaxHours:     14,
			RegularRate:  20,
			OvertimeRate: 30,
			NonFixedRate: 40,
		}
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			day.FixedHours = fixedHours
		} else {
			day.MinimumHours = minimumHours
		}
		days = append(days, day)
	}
	cal, err := entities.NewLaborCalendar(days)
	if err != nil {
		panic(err)
	}
	return cal
}
