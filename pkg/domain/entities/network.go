package entities

// Network is the read-only description of sites, lanes, trucks and SKUs for
// one solve
type Network struct {
	Nodes    []Node
	Routes   []Route
	Trucks   []TruckSchedule
	Products []Product
}

// Node looks up a node by ID
func (n *Network) Node(id NodeID) (Node, bool) {
	for _, node := range n.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return Node{}, false
}

// Product looks up a product by ID
func (n *Network) Product(id ProductID) (Product, bool) {
	for _, p := range n.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Route looks up a route by ID
func (n *Network) Route(id string) (Route, bool) {
	for _, r := range n.Routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}

// RoutesBetween returns every route from origin to destination
func (n *Network) RoutesBetween(origin, destination NodeID) []Route {
	var routes []Route
	for _, r := range n.Routes {
		if r.Origin == origin && r.Destination == destination {
			routes = append(routes, r)
		}
	}
	return routes
}

// TrucksServing returns the trucks that carry product from origin to destination
func (n *Network) TrucksServing(origin, destination NodeID) []TruckSchedule {
	var trucks []TruckSchedule
	for _, t := range n.Trucks {
		if t.Serves(origin, destination) {
			trucks = append(trucks, t)
		}
	}
	return trucks
}
