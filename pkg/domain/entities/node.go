package entities

import "fmt"

// NodeID identifies a location in the supply network
type NodeID string

// NodeCapabilities is the closed set of capability flags resolved once per node
type NodeCapabilities struct {
	CanProduce     bool
	StoresAmbient  bool
	StoresFrozen   bool
	ReceivesDemand bool
}

// Supports reports whether the node can physically hold product in state s.
// Thawed product is held under ambient conditions.
func (c NodeCapabilities) Supports(s ProductState) bool {
	switch s {
	case Ambient, Thawed:
		return c.StoresAmbient
	case Frozen:
		return c.StoresFrozen
	default:
		return false
	}
}

// CanFreeze reports whether ambient stock can be frozen on site
func (c NodeCapabilities) CanFreeze() bool {
	return c.StoresAmbient && c.StoresFrozen
}

// CanThaw reports whether frozen stock can be thawed on site
func (c NodeCapabilities) CanThaw() bool {
	return c.StoresAmbient && c.StoresFrozen
}

// Node represents a manufacturing site, hub or demand location
type Node struct {
	ID           NodeID
	Name         string
	Capabilities NodeCapabilities
	// ProductionRate is units produced per labor hour
	ProductionRate float64
	// StorageCapacity is the total units the node can hold (0 = unlimited)
	StorageCapacity float64
	// MaxDailyProduction caps production when no labor calendar is supplied
	MaxDailyProduction float64
}

// NewNode creates a validated Node
func NewNode(id NodeID, name string, caps NodeCapabilities, productionRate, storageCapacity float64) (*Node, error) {
	if id == "" {
		return nil, fmt.Errorf("node id cannot be empty")
	}
	if productionRate < 0 {
		return nil, fmt.Errorf("node %s: production rate cannot be negative, got %g", id, productionRate)
	}
	if storageCapacity < 0 {
		return nil, fmt.Errorf("node %s: storage capacity cannot be negative, got %g", id, storageCapacity)
	}
	if !caps.StoresAmbient && !caps.StoresFrozen {
		return nil, fmt.Errorf("node %s: must store ambient or frozen product", id)
	}
	return &Node{
		ID:              id,
		Name:            name,
		Capabilities:    caps,
		ProductionRate:  productionRate,
		StorageCapacity: storageCapacity,
	}, nil
}

// Supports reports whether the node can hold product in state s
func (n Node) Supports(s ProductState) bool {
	return n.Capabilities.Supports(s)
}

// ProductionState returns the state newly produced units enter at this node
func ProductionState(n Node) ProductState {
	if n.Capabilities.StoresAmbient {
		return Ambient
	}
	return Frozen
}

// NaturalState returns the state stock is assumed to be in when an input
// record does not say
func NaturalState(n Node) ProductState {
	return ProductionState(n)
}
