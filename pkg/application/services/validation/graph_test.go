package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	planningtest "github.com/vsinha/perishplan/pkg/infrastructure/testing"
)

func TestRouteGraph_ReachableWithoutHub(t *testing.T) {
	graph := newRouteGraph(planningtest.HubNetwork().Routes)
	sources := map[entities.NodeID]bool{"MFG": true}

	assert.Equal(t, []entities.NodeID{"HUB", "MFG", "STORE-A", "STORE-B"}, graph.nodes())
	assert.True(t, graph.reachable(sources, "STORE-B", ""))
	assert.False(t, graph.reachable(sources, "STORE-B", "HUB"))
	// STORE-A keeps its direct lane
	assert.True(t, graph.reachable(sources, "STORE-A", "HUB"))
}

func TestRouteGraph_SourcesAndDetours(t *testing.T) {
	routes := []entities.Route{
		{Origin: "MFG", Destination: "HUB"},
		{Origin: "HUB", Destination: "DC"},
		{Origin: "MFG", Destination: "ALT"},
		{Origin: "ALT", Destination: "DC"},
	}
	graph := newRouteGraph(routes)

	// a second path keeps DC reachable with either hub gone
	assert.True(t, graph.reachable(map[entities.NodeID]bool{"MFG": true}, "DC", "HUB"))
	assert.True(t, graph.reachable(map[entities.NodeID]bool{"MFG": true}, "DC", "ALT"))
	assert.False(t, graph.reachable(map[entities.NodeID]bool{"MFG": true}, "DC", "MFG"))

	// the target does not supply itself
	assert.False(t, graph.reachable(map[entities.NodeID]bool{"DC": true}, "DC", ""))
	assert.False(t, graph.reachable(nil, "DC", ""))
	// stock held at the hub counts as a source
	assert.True(t, graph.reachable(map[entities.NodeID]bool{"HUB": true}, "DC", "ALT"))
}
