package allocation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// Report is the batch-level detail behind a plan
type Report struct {
	Strategy string
	Batches  []*entities.Batch
	Events   int
}

// QuantityAt sums the end-of-day quantity of batches on hand at a node in
// one state. Batches in transit are not on hand anywhere.
func (r *Report) QuantityAt(node entities.NodeID, product entities.ProductID, state entities.ProductState, date time.Time) float64 {
	sum := 0.0
	for _, b := range r.Batches {
		if b.Product != product {
			continue
		}
		snap, ok := b.At(date)
		if !ok || snap.InTransit || snap.Location != node || snap.State != state {
			continue
		}
		sum += snap.Quantity
	}
	return sum
}

// Batch looks up a batch by ID
func (r *Report) Batch(id string) (*entities.Batch, bool) {
	for _, b := range r.Batches {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Remaining returns the batches still holding stock, in ID order
func (r *Report) Remaining() []*entities.Batch {
	var out []*entities.Batch
	for _, b := range r.Batches {
		if b.Quantity >= entities.QuantityTolerance {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type stockKey struct {
	node    entities.NodeID
	product entities.ProductID
	state   entities.ProductState
}

// VerifyAgainst checks that on every horizon date the batches on hand add up
// to the plan's inventory for each (node, product, state)
func (r *Report) VerifyAgainst(plan *dto.PlanResult) error {
	expected := make(map[stockKey]map[time.Time]float64)
	keys := make(map[stockKey]bool)
	for _, rec := range plan.Inventory {
		k := stockKey{rec.Node, rec.Product, rec.State}
		if expected[k] == nil {
			expected[k] = make(map[time.Time]float64)
		}
		expected[k][entities.Day(rec.Date)] += rec.Quantity
		keys[k] = true
	}
	for _, b := range r.Batches {
		for _, snap := range b.History {
			if !snap.InTransit {
				keys[stockKey{snap.Location, b.Product, snap.State}] = true
			}
		}
	}

	ordered := make([]stockKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.node != b.node:
			return a.node < b.node
		case a.product != b.product:
			return a.product < b.product
		default:
			return a.state < b.state
		}
	})

	var mismatches []string
	for date := entities.Day(plan.StartDate); !date.After(plan.EndDate); date = entities.AddDays(date, 1) {
		for _, k := range ordered {
			want := expected[k][date]
			got := r.QuantityAt(k.node, k.product, k.state, date)
			if math.Abs(got-want) > 1e-4*math.Max(1, want) {
				mismatches = append(mismatches, fmt.Sprintf("%s/%s/%s on %s: batches %g, plan %g",
					k.node, k.product, k.state, date.Format(entities.DateLayout), got, want))
			}
		}
	}
	if len(mismatches) > 0 {
		return &RoundTripError{Mismatches: mismatches}
	}
	return nil
}
