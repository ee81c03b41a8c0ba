package services

import (
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// WeightedAge normalizes a batch's age across storage states: each span
// contributes days_in_state / shelfLife(state). A batch at 1.0 has used up a
// full shelf life's worth of freshness.
func WeightedAge(history []entities.StateSpan, asOf time.Time, shelfLife entities.ShelfLife) float64 {
	age := 0.0
	for i, span := range history {
		end := entities.Day(asOf)
		if i+1 < len(history) {
			end = history[i+1].Entered
		}
		days := entities.DaysBetween(span.Entered, end)
		if days <= 0 {
			continue
		}
		limit := shelfLife.Days(span.State)
		if limit <= 0 {
			continue
		}
		age += float64(days) / float64(limit)
	}
	return age
}

// RemainingFraction is the share of shelf life left in the batch's current
// state, clamped to [0, 1]
func RemainingFraction(batch *entities.Batch, asOf time.Time, shelfLife entities.ShelfLife) float64 {
	limit := shelfLife.Days(batch.State)
	if limit <= 0 {
		return 0
	}
	used := float64(entities.DaysBetween(batch.StateEntryDate, asOf)) / float64(limit)
	switch {
	case used <= 0:
		return 1
	case used >= 1:
		return 0
	default:
		return 1 - used
	}
}
