package allocation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

var (
	// ErrInsufficientSupply is the sentinel for outflows the batches on hand cannot cover
	ErrInsufficientSupply = errors.New("insufficient batch supply")

	// ErrRoundTrip is returned when batch totals disagree with plan inventory
	ErrRoundTrip = errors.New("batch totals do not match plan inventory")
)

// InsufficientSupplyError describes an outflow that could not be covered
type InsufficientSupplyError struct {
	Event     string
	Node      entities.NodeID
	Product   entities.ProductID
	State     entities.ProductState
	Date      time.Time
	Requested float64
	Available float64
}

func (e *InsufficientSupplyError) Error() string {
	return fmt.Sprintf("%s: %s of %s at %s (%s) on %s needs %g, have %g",
		ErrInsufficientSupply, e.Event, e.Product, e.Node, e.State,
		e.Date.Format(entities.DateLayout), e.Requested, e.Available)
}

func (e *InsufficientSupplyError) Unwrap() error {
	return ErrInsufficientSupply
}

// RoundTripError lists every (node, product, state, date) where the batches
// and the plan disagree
type RoundTripError struct {
	Mismatches []string
}

func (e *RoundTripError) Error() string {
	shown := e.Mismatches
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Sprintf("%s: %d mismatches (%s)", ErrRoundTrip, len(e.Mismatches), strings.Join(shown, "; "))
}

func (e *RoundTripError) Unwrap() error {
	return ErrRoundTrip
}
