package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/solver"
)

// FlowVars is a decomposed flow: Total = New + Init. Init is NoVar when the
// source holds no usable initial stock that day, in which case New == Total.
type FlowVars struct {
	Total solver.VarID
	New   solver.VarID
	Init  solver.VarID
}

var noFlow = FlowVars{Total: solver.NoVar, New: solver.NoVar, Init: solver.NoVar}

// Exists reports whether the flow has variables
func (f FlowVars) Exists() bool { return f.Total.Exists() }

// Decomposed reports whether the flow has a separate from-init component
func (f FlowVars) Decomposed() bool { return f.Init.Exists() }

type routeInfo struct {
	route    entities.Route
	origin   int
	dest     int
	offset   int
	depState entities.ProductState
	arrState entities.ProductState
	gated    bool
	trucks   []int
	operates []bool
}

type initialStock struct {
	quantity float64
	// lastDay is the last usable day offset; may fall outside the horizon
	lastDay int
}

// Model is a built planning problem plus the index needed to read its solution
type Model struct {
	Problem  *solver.Problem
	Config   Config
	Horizon  entities.Horizon
	Costs    entities.CostStructure
	Snapshot time.Time

	nodes      []entities.Node
	products   []entities.Product
	routes     []routeInfo
	trucks     []entities.TruckSchedule
	nodeIdx    map[entities.NodeID]int
	productIdx map[entities.ProductID]int
	inbound    [][]int
	outbound   [][]int
	hasState   [][entities.NumStates]bool
	initial    [][][entities.NumStates]initialStock
	demand     [][][]float64
	labor      []entities.LaborDay
	hasLabor   bool
	dailyCap   [][]float64
	maxUPP     int

	vars  variables
	costs []costTerm
}

// Days returns the horizon length
func (m *Model) Days() int { return m.Horizon.Len() }

func (m *Model) stateOK(n int, s entities.ProductState) bool {
	return s.Valid() && m.hasState[n][s.Index()]
}

func (m *Model) lastUsableDay(s entities.ProductState) int {
	return m.Horizon.RawOffset(entities.AddDays(m.Snapshot, m.Config.ShelfLife.Days(s)))
}

// index validates the input and resolves it into dense arrays. Every problem
// found is collected into a single ConfigError.
func (b *Builder) index(in Input, cfg Config) (*Model, error) {
	var issues []string
	addf := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if cfg.StartDate.IsZero() || cfg.EndDate.IsZero() {
		addf("start and end dates are required")
	}
	horizon, err := entities.NewHorizon(cfg.StartDate, cfg.EndDate)
	horizonOK := err == nil && len(issues) == 0
	if err != nil {
		addf("%v", err)
	}
	if err := cfg.ShelfLife.Validate(); err != nil {
		addf("%v", err)
	}
	if err := in.Costs.Validate(); err != nil {
		addf("cost structure: %v", err)
	}
	if cfg.PalletEntryFees && !cfg.PalletTracking {
		addf("pallet entry fees require pallet tracking")
	}

	scalarIssues := len(issues)

	m := &Model{
		Config:     cfg,
		Horizon:    horizon,
		Costs:      in.Costs,
		nodeIdx:    make(map[entities.NodeID]int),
		productIdx: make(map[entities.ProductID]int),
	}

	m.nodes = append([]entities.Node(nil), in.Network.Nodes...)
	sort.Slice(m.nodes, func(i, j int) bool { return m.nodes[i].ID < m.nodes[j].ID })
	if len(m.nodes) == 0 {
		addf("network has no nodes")
	}
	for i, n := range m.nodes {
		if _, dup := m.nodeIdx[n.ID]; dup {
			addf("duplicate node %s", n.ID)
		}
		m.nodeIdx[n.ID] = i
		if !n.Capabilities.StoresAmbient && !n.Capabilities.StoresFrozen {
			addf("node %s stores neither ambient nor frozen product", n.ID)
		}
		if n.StorageCapacity < 0 {
			addf("node %s: storage capacity cannot be negative", n.ID)
		}
		if n.Capabilities.CanProduce && n.ProductionRate <= 0 && n.MaxDailyProduction <= 0 {
			addf("node %s: production node needs a production rate or max daily production", n.ID)
		}
	}

	m.products = append([]entities.Product(nil), in.Network.Products...)
	sort.Slice(m.products, func(i, j int) bool { return m.products[i].ID < m.products[j].ID })
	if len(m.products) == 0 {
		addf("network has no products")
	}
	for i, p := range m.products {
		if _, dup := m.productIdx[p.ID]; dup {
			addf("duplicate product %s", p.ID)
		}
		m.productIdx[p.ID] = i
		if p.UnitsPerPallet <= 0 {
			addf("product %s: units per pallet must be positive", p.ID)
		}
		if p.MixSize < 0 {
			addf("product %s: mix size cannot be negative", p.ID)
		}
		if p.UnitsPerPallet > m.maxUPP {
			m.maxUPP = p.UnitsPerPallet
		}
	}

	routes, err := b.expander.Expand(in.Network)
	if err != nil {
		addf("%v", err)
	}
	m.trucks = append([]entities.TruckSchedule(nil), in.Network.Trucks...)
	sort.Slice(m.trucks, func(i, j int) bool { return m.trucks[i].ID < m.trucks[j].ID })
	for _, t := range m.trucks {
		for _, id := range append([]entities.NodeID{t.Origin}, t.Stops()...) {
			if _, ok := m.nodeIdx[id]; !ok {
				addf("truck %s references unknown node %s", t.ID, id)
			}
		}
		if t.PalletCapacity < 0 {
			addf("truck %s: pallet capacity cannot be negative", t.ID)
		}
	}
	if !horizonOK || len(issues) > scalarIssues {
		return nil, &ConfigError{Issues: issues}
	}

	days := horizon.Len()
	m.inbound = make([][]int, len(m.nodes))
	m.outbound = make([][]int, len(m.nodes))
	for _, r := range routes {
		o, okO := m.nodeIdx[r.Origin]
		d, okD := m.nodeIdx[r.Destination]
		if !okO || !okD {
			addf("route %s references unknown node", r.ID)
			continue
		}
		if r.CostPerUnit < 0 || r.TransitDays < 0 {
			addf("route %s: cost and transit days cannot be negative", r.ID)
		}
		dep := entities.DepartureState(r.Mode)
		if !m.nodes[o].Supports(dep) {
			addf("route %s: origin %s cannot hold %s stock for a %s departure", r.ID, r.Origin, dep, r.Mode)
		}
		arr, ok := entities.ArrivalState(r.Mode, m.nodes[d].Capabilities)
		if !ok {
			addf("route %s: destination %s cannot receive %s shipments", r.ID, r.Destination, r.Mode)
		}
		info := routeInfo{
			route:    r,
			origin:   o,
			dest:     d,
			offset:   r.ArrivalOffset(),
			depState: dep,
			arrState: arr,
			operates: make([]bool, days),
		}
		for k, t := range m.trucks {
			if t.Serves(r.Origin, r.Destination) {
				info.trucks = append(info.trucks, k)
			}
		}
		info.gated = len(info.trucks) > 0
		for day := 0; day < days; day++ {
			info.operates[day] = !info.gated
			for _, k := range info.trucks {
				if m.trucks[k].OperatesOn(horizon.Date(day)) {
					info.operates[day] = true
					break
				}
			}
		}
		ri := len(m.routes)
		m.routes = append(m.routes, info)
		m.outbound[o] = append(m.outbound[o], ri)
		m.inbound[d] = append(m.inbound[d], ri)
	}

	m.initial = make([][][entities.NumStates]initialStock, len(m.nodes))
	for n := range m.initial {
		m.initial[n] = make([][entities.NumStates]initialStock, len(m.products))
	}
	m.Snapshot = horizon.Start()
	if in.Initial != nil {
		m.Snapshot = entities.Day(in.Initial.SnapshotDate)
		if m.Snapshot.After(horizon.Start()) {
			addf("inventory snapshot %s is after horizon start %s",
				m.Snapshot.Format(entities.DateLayout), horizon.Start().Format(entities.DateLayout))
		}
		for i, e := range in.Initial.Entries {
			n, okN := m.nodeIdx[e.Node]
			p, okP := m.productIdx[e.Product]
			if !okN || !okP {
				addf("inventory entry %d references unknown node %s or product %s", i, e.Node, e.Product)
				continue
			}
			if e.Quantity < 0 {
				addf("inventory entry %d: negative quantity", i)
				continue
			}
			s := e.State
			if s == entities.StateUnspecified {
				s = entities.NaturalState(m.nodes[n])
			}
			if !m.nodes[n].Supports(s) {
				addf("inventory entry %d: node %s cannot hold %s stock", i, e.Node, s)
				continue
			}
			m.initial[n][p][s.Index()].quantity += e.Quantity
		}
	}
	for n := range m.initial {
		for p := range m.initial[n] {
			for _, s := range entities.AllStates {
				m.initial[n][p][s.Index()].lastDay = m.lastUsableDay(s)
			}
		}
	}

	m.hasState = make([][entities.NumStates]bool, len(m.nodes))
	for n, node := range m.nodes {
		m.hasState[n][entities.Ambient.Index()] = node.Supports(entities.Ambient)
		m.hasState[n][entities.Frozen.Index()] = node.Supports(entities.Frozen)
		thawed := node.Capabilities.CanThaw()
		for _, ri := range m.inbound[n] {
			if m.routes[ri].arrState == entities.Thawed {
				thawed = true
			}
		}
		for p := range m.products {
			if m.initial[n][p][entities.Thawed.Index()].quantity > 0 {
				thawed = true
			}
		}
		m.hasState[n][entities.Thawed.Index()] = thawed && node.Supports(entities.Thawed)
	}

	m.demand = make([][][]float64, len(m.nodes))
	for n := range m.demand {
		m.demand[n] = make([][]float64, len(m.products))
		for p := range m.demand[n] {
			m.demand[n][p] = make([]float64, days)
		}
	}
	outside := 0
	for i, e := range in.Demand {
		n, okN := m.nodeIdx[e.Node]
		p, okP := m.productIdx[e.Product]
		if !okN || !okP {
			addf("demand entry %d references unknown node %s or product %s", i, e.Node, e.Product)
			continue
		}
		if e.Quantity < 0 {
			addf("demand entry %d: negative quantity", i)
			continue
		}
		d, inside := horizon.Offset(e.Date)
		if !inside {
			outside++
			continue
		}
		if e.Quantity == 0 {
			continue
		}
		caps := m.nodes[n].Capabilities
		if !caps.ReceivesDemand {
			addf("demand entry %d: node %s does not receive demand", i, e.Node)
			continue
		}
		if !caps.StoresAmbient {
			addf("demand entry %d: node %s cannot hold consumable stock", i, e.Node)
			continue
		}
		m.demand[n][p][d] += e.Quantity
	}
	if outside > 0 {
		b.logger.Warn("ignoring demand outside the planning horizon", "entries", outside)
	}

	if in.Labor != nil {
		m.hasLabor = true
		m.labor = make([]entities.LaborDay, days)
		for d := 0; d < days; d++ {
			day, ok := in.Labor.Day(horizon.Date(d))
			if !ok {
				addf("labor calendar has no entry for %s", horizon.Date(d).Format(entities.DateLayout))
				continue
			}
			m.labor[d] = day
		}
	}
	m.dailyCap = make([][]float64, len(m.nodes))
	for n, node := range m.nodes {
		if !node.Capabilities.CanProduce {
			continue
		}
		if m.hasLabor && node.ProductionRate <= 0 {
			addf("node %s: a labor calendar requires a production rate", node.ID)
			continue
		}
		m.dailyCap[n] = make([]float64, days)
		for d := 0; d < days; d++ {
			switch {
			case m.hasLabor:
				m.dailyCap[n][d] = node.ProductionRate * m.labor[d].AvailableHours()
			case node.MaxDailyProduction > 0:
				m.dailyCap[n][d] = node.MaxDailyProduction
			default:
				m.dailyCap[n][d] = node.ProductionRate * 24
			}
		}
	}

	if len(issues) > 0 {
		return nil, &ConfigError{Issues: issues}
	}
	return m, nil
}

func grid2[T any](a, b int, fill T) [][]T {
	g := make([][]T, a)
	for i := range g {
		g[i] = make([]T, b)
		for j := range g[i] {
			g[i][j] = fill
		}
	}
	return g
}

func grid3[T any](a, b, c int, fill T) [][][]T {
	g := make([][][]T, a)
	for i := range g {
		g[i] = grid2(b, c, fill)
	}
	return g
}

func grid4[T any](a, b, c, d int, fill T) [][][][]T {
	g := make([][][][]T, a)
	for i := range g {
		g[i] = grid3(b, c, d, fill)
	}
	return g
}

func ceilDiv(q float64, upp int) float64 {
	return math.Ceil(q/float64(upp) - 1e-9)
}
