package validation

import (
	"sort"

	"github.com/katalvlaran/lvlath/graph/algorithms"
	"github.com/katalvlaran/lvlath/graph/core"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// supplyRoot is a synthetic vertex wired to every source so one search
// covers them all. Node IDs are never empty, so this cannot collide.
const supplyRoot = ""

// routeGraph is the directed lane graph of a network
type routeGraph struct {
	routes []entities.Route
	ids    []entities.NodeID
}

func newRouteGraph(routes []entities.Route) *routeGraph {
	seen := make(map[entities.NodeID]bool)
	g := &routeGraph{routes: routes}
	for _, r := range routes {
		for _, id := range []entities.NodeID{r.Origin, r.Destination} {
			if !seen[id] {
				seen[id] = true
				g.ids = append(g.ids, id)
			}
		}
	}
	sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })
	return g
}

func (g *routeGraph) nodes() []entities.NodeID {
	return g.ids
}

// lanes builds the lane graph without removed. An empty removed keeps
// every node.
func (g *routeGraph) lanes(removed entities.NodeID) *core.Graph {
	lanes := core.NewGraph(true, false)
	for _, r := range g.routes {
		if removed != "" && (r.Origin == removed || r.Destination == removed) {
			continue
		}
		lanes.AddEdge(string(r.Origin), string(r.Destination), 0)
	}
	return lanes
}

// reachable reports whether a breadth-first search from the sources reaches
// target once removed is taken out of the graph. A source equal to target
// does not count.
func (g *routeGraph) reachable(sources map[entities.NodeID]bool, target, removed entities.NodeID) bool {
	lanes := g.lanes(removed)
	for id := range sources {
		if id == removed || id == target || id == supplyRoot {
			continue
		}
		lanes.AddEdge(supplyRoot, string(id), 0)
	}
	if !lanes.HasVertex(supplyRoot) {
		return false
	}
	res, err := algorithms.BFS(lanes, supplyRoot, nil)
	if err != nil {
		return false
	}
	return res.Visited[string(target)]
}
