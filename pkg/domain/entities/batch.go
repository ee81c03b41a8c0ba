package entities

import (
	"fmt"
	"time"
)

// StateSpan records when a batch entered a storage state
type StateSpan struct {
	State   ProductState `json:"state"`
	Entered time.Time    `json:"entered"`
}

// BatchSnapshot is the location and quantity of a batch after an event
type BatchSnapshot struct {
	Date      time.Time    `json:"date"`
	Location  NodeID       `json:"location"`
	InTransit bool         `json:"in_transit"`
	State     ProductState `json:"state"`
	Quantity  float64      `json:"quantity"`
	Event     string       `json:"event"`
}

// Batch is a traceable quantity of one product produced on one date
type Batch struct {
	ID              string          `json:"id"`
	ParentID        string          `json:"parent_id,omitempty"`
	Product         ProductID       `json:"product"`
	Origin          NodeID          `json:"origin"`
	ProductionDate  time.Time       `json:"production_date"`
	StateEntryDate  time.Time       `json:"state_entry_date"`
	State           ProductState    `json:"state"`
	Quantity        float64         `json:"quantity"`
	InitialQuantity float64         `json:"initial_quantity"`
	Location        NodeID          `json:"location"`
	InTransit       bool            `json:"in_transit"`
	Preexisting     bool            `json:"preexisting"`
	StateHistory    []StateSpan     `json:"state_history"`
	History         []BatchSnapshot `json:"history"`
}

// NewBatch creates a batch located at origin and records its first snapshot
func NewBatch(id string, product ProductID, origin NodeID, producedOn time.Time, state ProductState, quantity float64) (*Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	if !state.Valid() {
		return nil, fmt.Errorf("batch %s: invalid state %s", id, state)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("batch %s: quantity must be positive, got %g", id, quantity)
	}
	day := Day(producedOn)
	return &Batch{
		ID:              id,
		Product:         product,
		Origin:          origin,
		ProductionDate:  day,
		StateEntryDate:  day,
		State:           state,
		Quantity:        quantity,
		InitialQuantity: quantity,
		Location:        origin,
		StateHistory:    []StateSpan{{State: state, Entered: day}},
	}, nil
}

// Record appends a snapshot of the batch's current position
func (b *Batch) Record(date time.Time, event string) {
	b.History = append(b.History, BatchSnapshot{
		Date:      Day(date),
		Location:  b.Location,
		InTransit: b.InTransit,
		State:     b.State,
		Quantity:  b.Quantity,
		Event:     event,
	})
}

// Reduce removes qty from the batch; quantities never increase
func (b *Batch) Reduce(qty float64) error {
	if qty < 0 {
		return fmt.Errorf("batch %s: cannot reduce by negative quantity %g", b.ID, qty)
	}
	if qty > b.Quantity+QuantityTolerance {
		return fmt.Errorf("batch %s: cannot reduce %g below zero (has %g)", b.ID, qty, b.Quantity)
	}
	b.Quantity -= qty
	if b.Quantity < QuantityTolerance {
		b.Quantity = 0
	}
	return nil
}

// Split carves qty out of the batch into a new child batch on the given day.
// The child keeps the production date and state history but enters its state
// on that day.
func (b *Batch) Split(childID string, qty float64, on time.Time) (*Batch, error) {
	if qty <= 0 || qty >= b.Quantity {
		return nil, fmt.Errorf("batch %s: split quantity %g must be in (0, %g)", b.ID, qty, b.Quantity)
	}
	if err := b.Reduce(qty); err != nil {
		return nil, err
	}
	history := make([]StateSpan, len(b.StateHistory))
	copy(history, b.StateHistory)
	return &Batch{
		ID:              childID,
		ParentID:        b.ID,
		Product:         b.Product,
		Origin:          b.Origin,
		ProductionDate:  b.ProductionDate,
		StateEntryDate:  Day(on),
		State:           b.State,
		Quantity:        qty,
		InitialQuantity: qty,
		Location:        b.Location,
		InTransit:       b.InTransit,
		Preexisting:     b.Preexisting,
		StateHistory:    history,
	}, nil
}

// Transition moves the batch into a new state and resets its state-entry date
func (b *Batch) Transition(state ProductState, on time.Time) {
	if state == b.State {
		return
	}
	day := Day(on)
	b.State = state
	b.StateEntryDate = day
	b.StateHistory = append(b.StateHistory, StateSpan{State: state, Entered: day})
}

// At returns the batch's last snapshot on or before date
func (b *Batch) At(date time.Time) (BatchSnapshot, bool) {
	day := Day(date)
	var found BatchSnapshot
	ok := false
	for _, snap := range b.History {
		if snap.Date.After(day) {
			break
		}
		found = snap
		ok = true
	}
	return found, ok
}

// QuantityTolerance is the smallest quantity treated as non-zero
const QuantityTolerance = 1e-6
