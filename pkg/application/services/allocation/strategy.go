package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// Request asks for a quantity of one product at one node, drawn from any of
// the eligible states
type Request struct {
	ID       string
	Node     entities.NodeID
	Product  entities.ProductID
	States   []entities.ProductState
	Quantity float64
	Date     time.Time
	// AsOf is the date batch age is measured at, the delivery date for shipments
	AsOf      time.Time
	ShelfLife entities.ShelfLife
}

// Eligible reports whether batch b can serve the request
func (r Request) Eligible(b *entities.Batch) bool {
	if b.InTransit || b.Location != r.Node || b.Product != r.Product || b.Quantity < entities.QuantityTolerance {
		return false
	}
	for _, s := range r.States {
		if b.State == s {
			return true
		}
	}
	return false
}

// Pick is a quantity taken from one batch
type Pick struct {
	Batch    *entities.Batch
	Quantity float64
}

// Strategy chooses which batches serve a request. Candidates are already
// filtered to eligible batches and hold at least the requested quantity.
type Strategy interface {
	Name() string
	Select(ctx context.Context, req Request, candidates []*entities.Batch) ([]Pick, error)
}

// FEFO takes the batch that entered its state earliest first
type FEFO struct{}

// NewFEFO creates the first-expired-first-out strategy
func NewFEFO() *FEFO {
	return &FEFO{}
}

// Name returns the strategy name
func (f *FEFO) Name() string {
	return "fefo"
}

// Select consumes candidates oldest-first until the request is met
func (f *FEFO) Select(_ context.Context, req Request, candidates []*entities.Batch) ([]Pick, error) {
	sorted := make([]*entities.Batch, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case !a.StateEntryDate.Equal(b.StateEntryDate):
			return a.StateEntryDate.Before(b.StateEntryDate)
		case !a.ProductionDate.Equal(b.ProductionDate):
			return a.ProductionDate.Before(b.ProductionDate)
		default:
			return a.ID < b.ID
		}
	})

	remaining := req.Quantity
	var picks []Pick
	for _, b := range sorted {
		if remaining < entities.QuantityTolerance {
			break
		}
		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		picks = append(picks, Pick{Batch: b, Quantity: take})
		remaining -= take
	}
	return picks, nil
}
