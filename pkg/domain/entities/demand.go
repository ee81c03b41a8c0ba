package entities

import "time"

// DemandEntry is forecast demand for a product at a node on a date
type DemandEntry struct {
	Node     NodeID
	Product  ProductID
	Date     time.Time
	Quantity float64
}
