package entities

import (
	"fmt"
	"time"
)

// InventoryEntry is one line of the initial inventory snapshot
type InventoryEntry struct {
	Node     NodeID
	Product  ProductID
	State    ProductState // StateUnspecified resolves to the node's natural state
	Quantity float64
}

// InitialInventory is stock on hand at SnapshotDate
type InitialInventory struct {
	SnapshotDate time.Time
	Entries      []InventoryEntry
}

// NewInitialInventory creates a validated InitialInventory
func NewInitialInventory(snapshot time.Time, entries []InventoryEntry) (*InitialInventory, error) {
	for i, e := range entries {
		if e.Node == "" || e.Product == "" {
			return nil, fmt.Errorf("inventory entry %d: node and product are required", i)
		}
		if e.Quantity < 0 {
			return nil, fmt.Errorf("inventory entry %d: quantity cannot be negative, got %g", i, e.Quantity)
		}
	}
	return &InitialInventory{
		SnapshotDate: Day(snapshot),
		Entries:      entries,
	}, nil
}

// LastUsableDate is the final day stock in state s from this snapshot may be
// shipped or consumed
func (inv InitialInventory) LastUsableDate(s ProductState, shelfLife ShelfLife) time.Time {
	return AddDays(inv.SnapshotDate, shelfLife.Days(s))
}
