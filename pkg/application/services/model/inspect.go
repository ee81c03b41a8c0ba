package model

import (
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

func (m *Model) npd(node entities.NodeID, product entities.ProductID, date time.Time) (int, int, int, bool) {
	n, okN := m.nodeIdx[node]
	p, okP := m.productIdx[product]
	d, okD := m.Horizon.Offset(date)
	return n, p, d, okN && okP && okD
}

// Production returns the production variable of (node, product, date)
func (m *Model) Production(node entities.NodeID, product entities.ProductID, date time.Time) (solver.VarID, bool) {
	n, p, d, ok := m.npd(node, product, date)
	if !ok {
		return solver.NoVar, false
	}
	v := m.vars.prod[n][p][d]
	return v, v.Exists()
}

// Inventory returns the end-of-day inventory variable of one state
func (m *Model) Inventory(node entities.NodeID, product entities.ProductID, s entities.ProductState, date time.Time) (solver.VarID, bool) {
	n, p, d, ok := m.npd(node, product, date)
	if !ok || !s.Valid() {
		return solver.NoVar, false
	}
	v := m.vars.inv[n][p][s.Index()][d]
	return v, v.Exists()
}

// Shipment returns the flow variables of a route departing on date
func (m *Model) Shipment(routeID string, product entities.ProductID, date time.Time) (FlowVars, bool) {
	p, okP := m.productIdx[product]
	d, okD := m.Horizon.Offset(date)
	if !okP || !okD {
		return noFlow, false
	}
	for r, info := range m.routes {
		if info.route.ID == routeID {
			f := m.vars.ship[r][p][d]
			return f, f.Exists()
		}
	}
	return noFlow, false
}

// Consumption returns the flow variables serving demand from one state
func (m *Model) Consumption(node entities.NodeID, product entities.ProductID, s entities.ProductState, date time.Time) (FlowVars, bool) {
	n, p, d, ok := m.npd(node, product, date)
	if !ok || !s.Valid() {
		return noFlow, false
	}
	f := m.vars.cons[n][p][s.Index()][d]
	return f, f.Exists()
}

// Shortage returns the shortage variable of (node, product, date)
func (m *Model) Shortage(node entities.NodeID, product entities.ProductID, date time.Time) (solver.VarID, bool) {
	n, p, d, ok := m.npd(node, product, date)
	if !ok {
		return solver.NoVar, false
	}
	v := m.vars.shortage[n][p][d]
	return v, v.Exists()
}

// InitialDisposal returns the expired-initial-stock disposal variable
func (m *Model) InitialDisposal(node entities.NodeID, product entities.ProductID, s entities.ProductState, date time.Time) (solver.VarID, bool) {
	n, p, d, ok := m.npd(node, product, date)
	if !ok || !s.Valid() {
		return solver.NoVar, false
	}
	v := m.vars.disposeInit[n][p][s.Index()][d]
	return v, v.Exists()
}

// NewStockDisposal returns the new-stock disposal variable
func (m *Model) NewStockDisposal(node entities.NodeID, product entities.ProductID, s entities.ProductState, date time.Time) (solver.VarID, bool) {
	n, p, d, ok := m.npd(node, product, date)
	if !ok || !s.Valid() {
		return solver.NoVar, false
	}
	v := m.vars.disposeNew[n][p][s.Index()][d]
	return v, v.Exists()
}

// RouteIDs returns the expanded route IDs in index order
func (m *Model) RouteIDs() []string {
	ids := make([]string, len(m.routes))
	for i, r := range m.routes {
		ids[i] = r.route.ID
	}
	return ids
}
