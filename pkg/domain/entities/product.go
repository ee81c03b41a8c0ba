package entities

import "fmt"

// ProductID identifies a finished-goods SKU
type ProductID string

// Product represents a perishable SKU
type Product struct {
	ID   ProductID
	Name string
	// MixSize is units per production batch; 0 means production is continuous
	MixSize int
	// UnitsPerPallet converts units to pallets for storage and trucks
	UnitsPerPallet int
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, name string, mixSize, unitsPerPallet int) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if mixSize < 0 {
		return nil, fmt.Errorf("product %s: mix size cannot be negative, got %d", id, mixSize)
	}
	if unitsPerPallet <= 0 {
		return nil, fmt.Errorf("product %s: units per pallet must be positive, got %d", id, unitsPerPallet)
	}
	return &Product{
		ID:             id,
		Name:           name,
		MixSize:        mixSize,
		UnitsPerPallet: unitsPerPallet,
	}, nil
}

// Lotted reports whether production is quantized to whole mixes
func (p Product) Lotted() bool {
	return p.MixSize > 0
}
