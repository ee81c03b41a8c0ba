package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
)

type eventKind int

// Same-date events run in this order
const (
	eventProduction eventKind = iota
	eventArrival
	eventFreeze
	eventThaw
	eventDeparture
	eventConsumption
	eventDisposal
)

func (k eventKind) String() string {
	switch k {
	case eventProduction:
		return "production"
	case eventArrival:
		return "arrival"
	case eventFreeze:
		return "freeze"
	case eventThaw:
		return "thaw"
	case eventDeparture:
		return "departure"
	case eventConsumption:
		return "consumption"
	default:
		return "disposal"
	}
}

type event struct {
	kind        eventKind
	date        time.Time
	node        entities.NodeID
	product     entities.ProductID
	destination entities.NodeID
	route       string
	quantity    float64
	// state is the state drawn from, or produced in
	state entities.ProductState
	// target is the state after a transition or on arrival
	target   entities.ProductState
	delivery time.Time
	shipment int
	initial  bool
}

func (e event) less(o event) bool {
	switch {
	case !e.date.Equal(o.date):
		return e.date.Before(o.date)
	case e.kind != o.kind:
		return e.kind < o.kind
	case e.node != o.node:
		return e.node < o.node
	case e.product != o.product:
		return e.product < o.product
	case e.destination != o.destination:
		return e.destination < o.destination
	default:
		return e.route < o.route
	}
}

// Allocator replays a plan's flows over individual batches
type Allocator struct {
	strategy Strategy
	logger   *slog.Logger
}

// NewAllocator creates an allocator; a nil strategy uses FEFO and a nil
// logger uses slog.Default()
func NewAllocator(strategy Strategy, logger *slog.Logger) *Allocator {
	if strategy == nil {
		strategy = NewFEFO()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{strategy: strategy, logger: logger}
}

// run is the mutable state of one allocation
type run struct {
	strategy  Strategy
	shelfLife entities.ShelfLife
	batches   []*entities.Batch
	inTransit map[int][]*entities.Batch
	seq       int
}

func (r *run) nextID() string {
	r.seq++
	return fmt.Sprintf("B%05d", r.seq)
}

// Allocate seeds batches for initial stock, then replays production,
// shipments, transitions, consumption and disposal in date order
func (a *Allocator) Allocate(ctx context.Context, plan *dto.PlanResult) (*Report, error) {
	if plan == nil {
		return nil, errors.New("plan is required")
	}
	r := &run{
		strategy:  a.strategy,
		shelfLife: plan.ShelfLife,
		inTransit: make(map[int][]*entities.Batch),
	}

	if err := r.seed(plan); err != nil {
		return nil, err
	}

	events := buildEvents(plan)
	for start := 0; start < len(events); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start
		for end < len(events) && events[end].date.Equal(events[start].date) {
			end++
		}
		if err := r.day(ctx, events[start:end]); err != nil {
			return nil, err
		}
		start = end
	}

	report := &Report{Strategy: a.strategy.Name(), Batches: r.batches, Events: len(events)}
	a.logger.Info("allocation finished",
		"strategy", report.Strategy,
		"batches", len(report.Batches),
		"events", report.Events)
	return report, nil
}

// seed creates one batch per initial entry, dated half a shelf life before
// the snapshot so it never looks younger than it is
func (r *run) seed(plan *dto.PlanResult) error {
	initial := make([]dto.InventoryRecord, len(plan.Initial))
	copy(initial, plan.Initial)
	sort.SliceStable(initial, func(i, j int) bool {
		a, b := initial[i], initial[j]
		switch {
		case a.Node != b.Node:
			return a.Node < b.Node
		case a.Product != b.Product:
			return a.Product < b.Product
		default:
			return a.State < b.State
		}
	})
	for _, rec := range initial {
		produced := entities.AddDays(plan.SnapshotDate, -r.shelfLife.Days(rec.State)/2)
		b, err := entities.NewBatch(r.nextID(), rec.Product, rec.Node, produced, rec.State, rec.Quantity)
		if err != nil {
			return fmt.Errorf("failed to seed initial stock: %w", err)
		}
		b.Preexisting = true
		b.Record(plan.SnapshotDate, "initial")
		r.batches = append(r.batches, b)
	}
	return nil
}

func buildEvents(plan *dto.PlanResult) []event {
	var events []event
	for _, p := range plan.Production {
		events = append(events, event{
			kind: eventProduction, date: p.Date, node: p.Node, product: p.Product,
			state: p.State, quantity: p.Quantity,
		})
	}

	shipments := append(append([]dto.ShipmentRecord(nil), plan.Shipments...), plan.InTransitAtEnd...)
	for i, s := range shipments {
		route := strings.Join(s.Routes, ",")
		events = append(events, event{
			kind: eventDeparture, date: s.DepartureDate, node: s.Origin, product: s.Product,
			destination: s.Destination, route: route, quantity: s.Quantity,
			state: s.DepartureState(), target: s.ArrivalState, delivery: s.DeliveryDate, shipment: i,
		})
		if s.DeliveryDate.After(s.DepartureDate) && !s.DeliveryDate.After(plan.EndDate) {
			events = append(events, event{
				kind: eventArrival, date: s.DeliveryDate, node: s.Destination, product: s.Product,
				destination: s.Destination, route: route, quantity: s.Quantity,
				state: s.DepartureState(), target: s.ArrivalState, shipment: i,
			})
		}
	}

	for _, t := range plan.Transitions {
		kind := eventFreeze
		if t.To == entities.Thawed {
			kind = eventThaw
		}
		events = append(events, event{
			kind: kind, date: t.Date, node: t.Node, product: t.Product,
			state: t.From, target: t.To, quantity: t.Quantity,
		})
	}

	for _, d := range plan.Demand {
		if d.FromAmbient > 0 {
			events = append(events, event{
				kind: eventConsumption, date: d.Date, node: d.Node, product: d.Product,
				state: entities.Ambient, quantity: d.FromAmbient,
			})
		}
		if d.FromThawed > 0 {
			events = append(events, event{
				kind: eventConsumption, date: d.Date, node: d.Node, product: d.Product,
				state: entities.Thawed, quantity: d.FromThawed,
			})
		}
	}

	for _, d := range plan.Disposals {
		events = append(events, event{
			kind: eventDisposal, date: d.Date, node: d.Node, product: d.Product,
			state: d.State, quantity: d.Quantity, initial: d.Initial,
		})
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].less(events[j]) })
	return events
}

// day applies one date's events in order. An outflow short of supply is
// retried after the rest of the day, which covers same-day drop-offs feeding
// a node processed earlier; it fails once a pass makes no progress.
func (r *run) day(ctx context.Context, events []event) error {
	pending := events
	for len(pending) > 0 {
		var deferred []event
		var firstErr error
		for _, e := range pending {
			err := r.apply(ctx, e)
			var supply *InsufficientSupplyError
			switch {
			case err == nil:
			case errors.As(err, &supply):
				deferred = append(deferred, e)
				if firstErr == nil {
					firstErr = err
				}
			default:
				return err
			}
		}
		if len(deferred) == len(pending) {
			return firstErr
		}
		pending = deferred
	}
	return nil
}

func (r *run) apply(ctx context.Context, e event) error {
	switch e.kind {
	case eventProduction:
		b, err := entities.NewBatch(r.nextID(), e.product, e.node, e.date, e.state, e.quantity)
		if err != nil {
			return fmt.Errorf("failed to create production batch: %w", err)
		}
		b.Record(e.date, e.kind.String())
		r.batches = append(r.batches, b)
		return nil
	case eventArrival:
		for _, b := range r.inTransit[e.shipment] {
			r.land(b, e.node, e.target, e.date)
		}
		delete(r.inTransit, e.shipment)
		return nil
	}

	picks, err := r.pick(ctx, e)
	if err != nil {
		return err
	}
	for _, p := range picks {
		switch e.kind {
		case eventConsumption, eventDisposal:
			if err := p.Batch.Reduce(p.Quantity); err != nil {
				return err
			}
			p.Batch.Record(e.date, e.kind.String())
		case eventFreeze, eventThaw:
			b, err := r.take(p, e.date)
			if err != nil {
				return err
			}
			b.Transition(e.target, e.date)
			b.Record(e.date, e.kind.String())
		case eventDeparture:
			b, err := r.take(p, e.date)
			if err != nil {
				return err
			}
			if !e.delivery.After(e.date) {
				r.land(b, e.destination, e.target, e.date)
				continue
			}
			b.InTransit = true
			b.Location = e.destination
			b.Record(e.date, e.kind.String())
			r.inTransit[e.shipment] = append(r.inTransit[e.shipment], b)
		}
	}
	return nil
}

// pick asks the strategy for batches covering the event. Initial-stock
// disposal draws from pre-existing batches first.
func (r *run) pick(ctx context.Context, e event) ([]Pick, error) {
	req := Request{
		ID:        fmt.Sprintf("%s/%s/%s/%s", e.kind, e.node, e.product, e.date.Format(entities.DateLayout)),
		Node:      e.node,
		Product:   e.product,
		States:    []entities.ProductState{e.state},
		Quantity:  e.quantity,
		Date:      e.date,
		AsOf:      e.date,
		ShelfLife: r.shelfLife,
	}
	if e.kind == eventDeparture {
		req.AsOf = e.delivery
	}

	var candidates, preexisting []*entities.Batch
	available := 0.0
	for _, b := range r.batches {
		if !req.Eligible(b) {
			continue
		}
		candidates = append(candidates, b)
		available += b.Quantity
		if b.Preexisting {
			preexisting = append(preexisting, b)
		}
	}
	if available < req.Quantity-supplyTolerance(req.Quantity) {
		return nil, &InsufficientSupplyError{
			Event:     e.kind.String(),
			Node:      e.node,
			Product:   e.product,
			State:     e.state,
			Date:      e.date,
			Requested: e.quantity,
			Available: available,
		}
	}
	if available < req.Quantity {
		req.Quantity = available
	}

	if e.kind == eventDisposal && e.initial && total(preexisting) >= req.Quantity {
		candidates = preexisting
	}
	picks, err := r.strategy.Select(ctx, req, candidates)
	if err != nil {
		return nil, fmt.Errorf("%s strategy failed on %s: %w", r.strategy.Name(), req.ID, err)
	}
	return picks, nil
}

// take returns the batch to move for a pick, splitting off a child when the
// pick leaves a remainder behind
func (r *run) take(p Pick, date time.Time) (*entities.Batch, error) {
	if p.Quantity >= p.Batch.Quantity-entities.QuantityTolerance {
		return p.Batch, nil
	}
	child, err := p.Batch.Split(r.nextID(), p.Quantity, date)
	if err != nil {
		return nil, err
	}
	p.Batch.Record(date, "split")
	r.batches = append(r.batches, child)
	return child, nil
}

func (r *run) land(b *entities.Batch, node entities.NodeID, state entities.ProductState, date time.Time) {
	b.InTransit = false
	b.Location = node
	b.Transition(state, date)
	b.Record(date, eventArrival.String())
}

func supplyTolerance(q float64) float64 {
	return 1e-5 * max(1, q)
}

func total(batches []*entities.Batch) float64 {
	sum := 0.0
	for _, b := range batches {
		sum += b.Quantity
	}
	return sum
}
