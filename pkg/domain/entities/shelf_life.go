package entities

import "fmt"

// ShelfLife holds the shelf life in days of each storage state
type ShelfLife struct {
	Ambient int
	Frozen  int
	Thawed  int
}

// DefaultShelfLife returns the standard limits for chilled bakery product
func DefaultShelfLife() ShelfLife {
	return ShelfLife{Ambient: 17, Frozen: 120, Thawed: 14}
}

// Days returns the shelf life of state s
func (l ShelfLife) Days(s ProductState) int {
	switch s {
	case Ambient:
		return l.Ambient
	case Frozen:
		return l.Frozen
	case Thawed:
		return l.Thawed
	default:
		return 0
	}
}

// Validate checks every state has a positive shelf life
func (l ShelfLife) Validate() error {
	for _, s := range AllStates {
		if l.Days(s) <= 0 {
			return fmt.Errorf("shelf life for %s must be positive, got %d", s, l.Days(s))
		}
	}
	return nil
}
