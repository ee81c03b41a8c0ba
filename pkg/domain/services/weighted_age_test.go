package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

func date(s string) time.Time {
	t, err := time.Parse(entities.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeightedAge(t *testing.T) {
	shelf := entities.DefaultShelfLife()

	tests := []struct {
		name     string
		history  []entities.StateSpan
		asOf     time.Time
		expected float64
	}{
		{
			name:     "fresh ambient",
			history:  []entities.StateSpan{{State: entities.Ambient, Entered: date("2025-01-10")}},
			asOf:     date("2025-01-10"),
			expected: 0,
		},
		{
			name:     "ten days ambient",
			history:  []entities.StateSpan{{State: entities.Ambient, Entered: date("2025-01-01")}},
			asOf:     date("2025-01-11"),
			expected: 10.0 / 17.0,
		},
		{
			name: "frozen then thawed",
			history: []entities.StateSpan{
				{State: entities.Frozen, Entered: date("2025-01-01")},
				{State: entities.Thawed, Entered: date("2025-03-02")},
			},
			asOf:     date("2025-03-02"),
			expected: 0.5,
		},
		{
			name: "frozen then thawed seven days",
			history: []entities.StateSpan{
				{State: entities.Frozen, Entered: date("2025-01-01")},
				{State: entities.Thawed, Entered: date("2025-03-02")},
			},
			asOf:     date("2025-03-09"),
			expected: 0.5 + 7.0/14.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WeightedAge(tt.history, tt.asOf, shelf), 1e-9)
		})
	}
}

func TestRemainingFraction(t *testing.T) {
	shelf := entities.DefaultShelfLife()
	batch, err := entities.NewBatch("B1", "P", "MFG", date("2025-01-01"), entities.Thawed, 10)
	assert.NoError(t, err)

	assert.Equal(t, 1.0, RemainingFraction(batch, date("2025-01-01"), shelf))
	assert.InDelta(t, 0.5, RemainingFraction(batch, date("2025-01-08"), shelf), 1e-9)
	assert.Equal(t, 0.0, RemainingFraction(batch, date("2025-02-01"), shelf))
}
