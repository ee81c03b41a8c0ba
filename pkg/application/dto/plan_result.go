package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// PlanResult contains the complete output of a planning solve
type PlanResult struct {
	Status       string             `json:"status"`
	Objective    float64            `json:"objective"`
	Gap          float64            `json:"gap"`
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	SnapshotDate time.Time          `json:"snapshot_date"`
	ShelfLife    entities.ShelfLife `json:"shelf_life"`

	Initial        []InventoryRecord  `json:"initial"`
	Production     []ProductionRecord `json:"production"`
	Inventory      []InventoryRecord  `json:"inventory"`
	Shipments      []ShipmentRecord   `json:"shipments"`
	InTransitAtEnd []ShipmentRecord   `json:"in_transit_at_end"`
	Demand         []DemandRecord     `json:"demand"`
	Transitions    []TransitionRecord `json:"transitions"`
	Disposals      []DisposalRecord   `json:"disposals"`
	Labor          []LaborRecord      `json:"labor"`
	Changeovers    []ChangeoverRecord `json:"changeovers"`
	Costs          CostBreakdown      `json:"costs"`
}

// ProductionRecord is output produced at a node on a date
type ProductionRecord struct {
	Node     entities.NodeID       `json:"node"`
	Product  entities.ProductID    `json:"product"`
	Date     time.Time             `json:"date"`
	State    entities.ProductState `json:"state"`
	Quantity float64               `json:"quantity"`
	Mixes    int                   `json:"mixes,omitempty"`
}

// InventoryRecord is end-of-day stock in one state
type InventoryRecord struct {
	Node     entities.NodeID       `json:"node"`
	Product  entities.ProductID    `json:"product"`
	State    entities.ProductState `json:"state"`
	Date     time.Time             `json:"date"`
	Quantity float64               `json:"quantity"`
}

// ShipmentRecord aggregates shipments sharing origin, destination, product,
// mode, departure and delivery date
type ShipmentRecord struct {
	Origin        entities.NodeID        `json:"origin"`
	Destination   entities.NodeID        `json:"destination"`
	Product       entities.ProductID     `json:"product"`
	Mode          entities.TransportMode `json:"mode"`
	DepartureDate time.Time              `json:"departure_date"`
	DeliveryDate  time.Time              `json:"delivery_date"`
	// ArrivalState is the state the shipment lands in at the destination
	ArrivalState entities.ProductState `json:"arrival_state"`
	Quantity     float64               `json:"quantity"`
	FromInitial  float64               `json:"from_initial"`
	Routes       []string              `json:"routes"`
}

// DepartureState is the origin state the shipment draws from
func (s ShipmentRecord) DepartureState() entities.ProductState {
	return entities.DepartureState(s.Mode)
}

// DemandRecord is how demand at a node on a date was met
type DemandRecord struct {
	Node        entities.NodeID    `json:"node"`
	Product     entities.ProductID `json:"product"`
	Date        time.Time          `json:"date"`
	Demand      float64            `json:"demand"`
	FromAmbient float64            `json:"from_ambient"`
	FromThawed  float64            `json:"from_thawed"`
	FromInitial float64            `json:"from_initial"`
	Shortage    float64            `json:"shortage"`
}

// Fulfilled is the quantity served from stock
func (d DemandRecord) Fulfilled() float64 {
	return d.FromAmbient + d.FromThawed
}

// TransitionRecord is a freeze or thaw at a node
type TransitionRecord struct {
	Node     entities.NodeID       `json:"node"`
	Product  entities.ProductID    `json:"product"`
	Date     time.Time             `json:"date"`
	From     entities.ProductState `json:"from"`
	To       entities.ProductState `json:"to"`
	Quantity float64               `json:"quantity"`
}

// DisposalRecord is stock written off at a node
type DisposalRecord struct {
	Node     entities.NodeID       `json:"node"`
	Product  entities.ProductID    `json:"product"`
	State    entities.ProductState `json:"state"`
	Date     time.Time             `json:"date"`
	Quantity float64               `json:"quantity"`
	// Initial marks disposal of expired pre-existing stock
	Initial bool `json:"initial"`
}

// LaborRecord is labor usage at a production node on a date
type LaborRecord struct {
	Node      entities.NodeID `json:"node"`
	Date      time.Time       `json:"date"`
	FixedDay  bool            `json:"fixed_day"`
	Hours     float64         `json:"hours"`
	Overtime  float64         `json:"overtime"`
	PaidHours float64         `json:"paid_hours"`
	Minimum   float64         `json:"minimum_hours"`
	Cost      decimal.Decimal `json:"cost"`
}

// ChangeoverRecord lists products started at a node on a date
type ChangeoverRecord struct {
	Node     entities.NodeID      `json:"node"`
	Date     time.Time            `json:"date"`
	Starts   int                  `json:"starts"`
	Products []entities.ProductID `json:"products"`
}

// CostBreakdown splits the objective into categories
type CostBreakdown struct {
	Production  decimal.Decimal `json:"production"`
	Labor       decimal.Decimal `json:"labor"`
	Transport   decimal.Decimal `json:"transport"`
	Holding     decimal.Decimal `json:"holding"`
	PalletEntry decimal.Decimal `json:"pallet_entry"`
	Shortage    decimal.Decimal `json:"shortage"`
	Disposal    decimal.Decimal `json:"disposal"`
	Changeover  decimal.Decimal `json:"changeover"`
	Waste       decimal.Decimal `json:"waste"`
	Penalty     decimal.Decimal `json:"penalty"`
	Total       decimal.Decimal `json:"total"`
}

// Sum adds up every component except Total
func (c CostBreakdown) Sum() decimal.Decimal {
	return decimal.Sum(c.Production, c.Labor, c.Transport, c.Holding, c.PalletEntry,
		c.Shortage, c.Disposal, c.Changeover, c.Waste, c.Penalty)
}

// TotalProduction returns the sum of all production
func (r *PlanResult) TotalProduction() float64 {
	total := 0.0
	for _, p := range r.Production {
		total += p.Quantity
	}
	return total
}

// TotalDemand returns the sum of all demand in the horizon
func (r *PlanResult) TotalDemand() float64 {
	total := 0.0
	for _, d := range r.Demand {
		total += d.Demand
	}
	return total
}

// TotalShortage returns the sum of unmet demand
func (r *PlanResult) TotalShortage() float64 {
	total := 0.0
	for _, d := range r.Demand {
		total += d.Shortage
	}
	return total
}

// FillRate is the share of demand served, 1 when there is no demand
func (r *PlanResult) FillRate() float64 {
	demand := r.TotalDemand()
	if demand == 0 {
		return 1
	}
	return 1 - r.TotalShortage()/demand
}
