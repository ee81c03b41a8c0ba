package entities

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Route is a shipping lane between two nodes
type Route struct {
	ID          string
	Origin      NodeID
	Destination NodeID
	// TransitDays may be fractional; a 0.5-day hop is a same-day drop-off
	TransitDays float64
	Mode        TransportMode
	CostPerUnit float64
	// Leg is set on routes generated from a multi-stop truck run
	Leg bool
}

// NewRoute creates a validated Route
func NewRoute(id string, origin, destination NodeID, transitDays float64, mode TransportMode, costPerUnit float64) (*Route, error) {
	if id == "" {
		return nil, fmt.Errorf("route id cannot be empty")
	}
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("route %s: origin and destination are required", id)
	}
	if origin == destination {
		return nil, fmt.Errorf("route %s: origin and destination must differ", id)
	}
	if transitDays < 0 {
		return nil, fmt.Errorf("route %s: transit days cannot be negative, got %g", id, transitDays)
	}
	if costPerUnit < 0 {
		return nil, fmt.Errorf("route %s: cost per unit cannot be negative, got %g", id, costPerUnit)
	}
	return &Route{
		ID:          id,
		Origin:      origin,
		Destination: destination,
		TransitDays: transitDays,
		Mode:        mode,
		CostPerUnit: costPerUnit,
	}, nil
}

// ArrivalOffset is the number of whole days between departure and arrival
func (r Route) ArrivalOffset() int {
	return int(math.Floor(r.TransitDays))
}

// TruckSchedule is a recurring truck run from an origin to a destination,
// optionally dropping off at intermediate stops
type TruckSchedule struct {
	ID                string
	Origin            NodeID
	Destination       NodeID
	IntermediateStops []NodeID
	// DaysOfWeek lists operating weekdays; empty means every day
	DaysOfWeek     []time.Weekday
	PalletCapacity int
}

// OperatesOn reports whether the truck runs on the given date
func (t TruckSchedule) OperatesOn(date time.Time) bool {
	if len(t.DaysOfWeek) == 0 {
		return true
	}
	wd := date.Weekday()
	for _, d := range t.DaysOfWeek {
		if d == wd {
			return true
		}
	}
	return false
}

// Serves reports whether the truck carries product from origin to dest
func (t TruckSchedule) Serves(origin, dest NodeID) bool {
	if origin != t.Origin {
		return false
	}
	if dest == t.Destination {
		return true
	}
	for _, stop := range t.IntermediateStops {
		if stop == dest {
			return true
		}
	}
	return false
}

// Stops returns every drop-off point in run order, destination last
func (t TruckSchedule) Stops() []NodeID {
	stops := make([]NodeID, 0, len(t.IntermediateStops)+1)
	stops = append(stops, t.IntermediateStops...)
	return append(stops, t.Destination)
}

// ParseWeekday parses a weekday name or three-letter abbreviation
func ParseWeekday(value string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(value, name) || strings.EqualFold(value, name[:3]) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", value)
}
