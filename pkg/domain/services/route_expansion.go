package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// RouteExpander derives the shipping lanes implied by multi-stop truck runs
type RouteExpander struct{}

// NewRouteExpander creates a new route expander
func NewRouteExpander() *RouteExpander {
	return &RouteExpander{}
}

// Expand returns the network's routes plus one leg per intermediate truck
// stop that has no explicit route from the truck's origin. Each leg is a clone
// of the origin->destination route retargeted at the stop. Results are sorted
// by route ID.
func (re *RouteExpander) Expand(network entities.Network) ([]entities.Route, error) {
	routes := make([]entities.Route, len(network.Routes))
	copy(routes, network.Routes)

	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		seen[r.ID] = true
	}

	for _, truck := range network.Trucks {
		if len(truck.IntermediateStops) == 0 {
			continue
		}
		base := network.RoutesBetween(truck.Origin, truck.Destination)
		if len(base) == 0 {
			return nil, fmt.Errorf("truck %s: no route from %s to %s to derive stop legs from",
				truck.ID, truck.Origin, truck.Destination)
		}
		for _, stop := range truck.IntermediateStops {
			if stop == truck.Origin {
				return nil, fmt.Errorf("truck %s: intermediate stop %s is the origin", truck.ID, stop)
			}
			if len(network.RoutesBetween(truck.Origin, stop)) > 0 {
				continue
			}
			for _, r := range base {
				leg := r
				leg.ID = fmt.Sprintf("%s/%s", r.ID, stop)
				leg.Destination = stop
				leg.Leg = true
				if seen[leg.ID] {
					continue
				}
				seen[leg.ID] = true
				routes = append(routes, leg)
			}
		}
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}
