package model

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

// Extractor reads a solved model back into plan records
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor; a nil logger uses slog.Default()
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

const maxSamples = 5

type reader struct {
	m       *Model
	sol     *solver.Solution
	logger  *slog.Logger
	bad     int
	samples []string
	seen    map[solver.VarID]bool
}

// read returns the cleaned value of v; missing variables read as zero and
// unreadable ones are counted
func (r *reader) read(v solver.VarID) float64 {
	if !v.Exists() {
		return 0
	}
	reading := r.sol.Value(v)
	if !reading.OK {
		if r.seen[v] {
			return 0
		}
		r.seen[v] = true
		r.bad++
		name := r.m.Problem.Variable(v).Name
		if len(r.samples) < maxSamples {
			r.samples = append(r.samples, name)
		}
		r.logger.Warn("unreadable solution value", "variable", name)
		return 0
	}
	return clean(reading.Value)
}

// clean rounds to 6 decimals and drops solver noise around zero
func clean(x float64) float64 {
	x = math.Round(x*1e6) / 1e6
	if math.Abs(x) < entities.QuantityTolerance {
		return 0
	}
	return x
}

type shipmentKey struct {
	origin, destination entities.NodeID
	product             entities.ProductID
	mode                entities.TransportMode
	departure, delivery time.Time
}

// Extract builds the plan result. Every unreadable value is logged; any
// unreadable value fails the extraction with an *ExtractionError.
func (x *Extractor) Extract(m *Model, sol *solver.Solution) (*dto.PlanResult, error) {
	if sol == nil || !sol.Status.HasSolution() {
		status := "nil"
		if sol != nil {
			status = sol.Status.String()
		}
		return nil, fmt.Errorf("%w: status %s", ErrNoSolution, status)
	}

	r := &reader{m: m, sol: sol, logger: x.logger, seen: make(map[solver.VarID]bool)}
	v := &m.vars
	days := m.Days()
	result := &dto.PlanResult{
		Status:       sol.Status.String(),
		Objective:    sol.Objective,
		Gap:          sol.Gap,
		StartDate:    m.Horizon.Start(),
		EndDate:      m.Horizon.End(),
		SnapshotDate: m.Snapshot,
		ShelfLife:    m.Config.ShelfLife,
	}

	for n, node := range m.nodes {
		for pi, product := range m.products {
			for _, s := range entities.AllStates {
				if q := m.initial[n][pi][s.Index()].quantity; q > 0 {
					result.Initial = append(result.Initial, dto.InventoryRecord{
						Node: node.ID, Product: product.ID, State: s, Date: m.Snapshot, Quantity: q,
					})
				}
			}

			for d := 0; d < days; d++ {
				date := m.Horizon.Date(d)

				if q := r.read(v.prod[n][pi][d]); q > 0 {
					result.Production = append(result.Production, dto.ProductionRecord{
						Node:     node.ID,
						Product:  product.ID,
						Date:     date,
						State:    entities.ProductionState(node),
						Quantity: q,
						Mixes:    int(math.Round(r.read(v.mixes[n][pi][d]))),
					})
				}

				for _, s := range entities.AllStates {
					si := s.Index()
					if q := r.read(v.inv[n][pi][si][d]); q > 0 {
						result.Inventory = append(result.Inventory, dto.InventoryRecord{
							Node: node.ID, Product: product.ID, State: s, Date: date, Quantity: q,
						})
					}
					if q := r.read(v.disposeInit[n][pi][si][d]); q > 0 {
						result.Disposals = append(result.Disposals, dto.DisposalRecord{
							Node: node.ID, Product: product.ID, State: s, Date: date, Quantity: q, Initial: true,
						})
					}
					if q := r.read(v.disposeNew[n][pi][si][d]); q > 0 {
						result.Disposals = append(result.Disposals, dto.DisposalRecord{
							Node: node.ID, Product: product.ID, State: s, Date: date, Quantity: q,
						})
					}
				}

				if q := r.read(v.freeze[n][pi][d]); q > 0 {
					result.Transitions = append(result.Transitions, dto.TransitionRecord{
						Node: node.ID, Product: product.ID, Date: date, From: entities.Ambient, To: entities.Frozen, Quantity: q,
					})
				}
				if q := r.read(v.thaw[n][pi][d]); q > 0 {
					result.Transitions = append(result.Transitions, dto.TransitionRecord{
						Node: node.ID, Product: product.ID, Date: date, From: entities.Frozen, To: entities.Thawed, Quantity: q,
					})
				}

				if demand := m.demand[n][pi][d]; demand > 0 {
					rec := dto.DemandRecord{Node: node.ID, Product: product.ID, Date: date, Demand: demand}
					ambient := v.cons[n][pi][entities.Ambient.Index()][d]
					thawed := v.cons[n][pi][entities.Thawed.Index()][d]
					rec.FromAmbient = r.read(ambient.Total)
					rec.FromThawed = r.read(thawed.Total)
					rec.FromInitial = r.read(ambient.Init) + r.read(thawed.Init)
					rec.Shortage = r.read(v.shortage[n][pi][d])
					result.Demand = append(result.Demand, rec)
				}
			}
		}

		for d := 0; d < days; d++ {
			date := m.Horizon.Date(d)
			if m.hasLabor && v.hours[n][d].Exists() {
				day := m.labor[d]
				rec := dto.LaborRecord{
					Node:      node.ID,
					Date:      date,
					FixedDay:  day.IsFixedDay(),
					Hours:     r.read(v.hours[n][d]),
					Overtime:  r.read(v.overtime[n][d]),
					PaidHours: r.read(v.paid[n][d]),
					Minimum:   day.MinimumHours,
				}
				rec.Cost = money(rec.Overtime, day.OvertimeRate).Add(money(rec.PaidHours, day.NonFixedRate))
				if rec.Hours > 0 || rec.PaidHours > 0 {
					result.Labor = append(result.Labor, rec)
				}
			}
			if starts := r.read(v.startsTotal[n][d]); starts > 0.5 {
				rec := dto.ChangeoverRecord{Node: node.ID, Date: date, Starts: int(math.Round(starts))}
				for pi, product := range m.products {
					if r.read(v.start[n][pi][d]) > 0.5 {
						rec.Products = append(rec.Products, product.ID)
					}
				}
				result.Changeovers = append(result.Changeovers, rec)
			}
		}
	}

	shipments := make(map[shipmentKey]*dto.ShipmentRecord)
	var keys []shipmentKey
	for ri, info := range m.routes {
		for pi, product := range m.products {
			for d := 0; d < days; d++ {
				flow := v.ship[ri][pi][d]
				q := r.read(flow.Total)
				if q <= 0 {
					continue
				}
				key := shipmentKey{
					origin:      info.route.Origin,
					destination: info.route.Destination,
					product:     product.ID,
					mode:        info.route.Mode,
					departure:   m.Horizon.Date(d),
					delivery:    m.Horizon.Date(d + info.offset),
				}
				rec, ok := shipments[key]
				if !ok {
					rec = &dto.ShipmentRecord{
						Origin:        key.origin,
						Destination:   key.destination,
						Product:       key.product,
						Mode:          key.mode,
						DepartureDate: key.departure,
						DeliveryDate:  key.delivery,
						ArrivalState:  info.arrState,
					}
					shipments[key] = rec
					keys = append(keys, key)
				}
				rec.Quantity += q
				rec.FromInitial += r.read(flow.Init)
				rec.Routes = append(rec.Routes, info.route.ID)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case !a.departure.Equal(b.departure):
			return a.departure.Before(b.departure)
		case a.origin != b.origin:
			return a.origin < b.origin
		case a.destination != b.destination:
			return a.destination < b.destination
		case a.product != b.product:
			return a.product < b.product
		case a.mode != b.mode:
			return a.mode < b.mode
		default:
			return a.delivery.Before(b.delivery)
		}
	})
	for _, key := range keys {
		rec := *shipments[key]
		if rec.DeliveryDate.After(m.Horizon.End()) {
			result.InTransitAtEnd = append(result.InTransitAtEnd, rec)
			continue
		}
		result.Shipments = append(result.Shipments, rec)
	}

	result.Costs = x.breakdown(m, r)

	if r.bad > 0 {
		x.logger.Error("solution extraction failed", "unreadable", r.bad)
		return nil, &ExtractionError{Count: r.bad, Samples: r.samples}
	}
	return result, nil
}

// breakdown prices every objective term. Quantities are rounded to 6
// decimals before multiplying so exact plans produce exact totals.
func (x *Extractor) breakdown(m *Model, r *reader) dto.CostBreakdown {
	var c dto.CostBreakdown
	for _, term := range m.costs {
		amount := money(r.read(term.v), term.coef)
		switch term.category {
		case CostProduction:
			c.Production = c.Production.Add(amount)
		case CostLabor:
			c.Labor = c.Labor.Add(amount)
		case CostTransport:
			c.Transport = c.Transport.Add(amount)
		case CostHolding:
			c.Holding = c.Holding.Add(amount)
		case CostPalletEntry:
			c.PalletEntry = c.PalletEntry.Add(amount)
		case CostShortage:
			c.Shortage = c.Shortage.Add(amount)
		case CostDisposal:
			c.Disposal = c.Disposal.Add(amount)
		case CostChangeover:
			c.Changeover = c.Changeover.Add(amount)
		case CostWaste:
			c.Waste = c.Waste.Add(amount)
		case CostPenalty:
			c.Penalty = c.Penalty.Add(amount)
		}
	}
	c.Total = c.Sum()
	return c
}

func money(quantity, rate float64) decimal.Decimal {
	if quantity == 0 || rate == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(rate))
}
