package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/domain/services"
	"github.com/vsinha/perishplan/pkg/solver"
)

// Assignment is a quantity of one batch allocated to one request
type Assignment struct {
	Request  string
	BatchID  string
	Quantity float64
}

// LPAllocator assigns batches to requests by minimizing the weighted age of
// everything allocated
type LPAllocator struct {
	solver  solver.Solver
	options solver.Options
}

// NewLPAllocator creates an LP allocator on top of the given solver
func NewLPAllocator(s solver.Solver) *LPAllocator {
	return &LPAllocator{solver: s, options: solver.DefaultOptions()}
}

// Name returns the strategy name
func (a *LPAllocator) Name() string {
	return "lp"
}

// Allocate solves x[batch, request] >= 0 over eligible pairs:
//
//	minimize   Σ weighted_age(batch, request.AsOf) * x
//	subject to Σ_batch x = request quantity   for every request
//	           Σ_request x <= batch quantity   for every batch
func (a *LPAllocator) Allocate(ctx context.Context, batches []*entities.Batch, requests []Request) ([]Assignment, error) {
	p := solver.NewProblem("batch allocation")

	type pair struct {
		batch, request int
		v              solver.VarID
	}
	var pairs []pair
	byBatch := make([][]solver.VarID, len(batches))

	for ri, req := range requests {
		var demand solver.Expr
		available := 0.0
		for bi, b := range batches {
			if !req.Eligible(b) {
				continue
			}
			v := p.AddVariable(fmt.Sprintf("x[%s,%s]", b.ID, req.ID), solver.Continuous, 0, b.Quantity)
			p.AddObjective(v, services.WeightedAge(b.StateHistory, req.AsOf, req.ShelfLife))
			demand.Add(v, 1)
			byBatch[bi] = append(byBatch[bi], v)
			pairs = append(pairs, pair{batch: bi, request: ri, v: v})
			available += b.Quantity
		}
		if available < req.Quantity-supplyTolerance(req.Quantity) {
			state := entities.StateUnspecified
			if len(req.States) == 1 {
				state = req.States[0]
			}
			return nil, &InsufficientSupplyError{
				Event:     "request " + req.ID,
				Node:      req.Node,
				Product:   req.Product,
				State:     state,
				Date:      req.Date,
				Requested: req.Quantity,
				Available: available,
			}
		}
		if err := p.Add(solver.Emit(solver.Constraint{
			Name:  "request[" + req.ID + "]",
			Expr:  demand,
			Sense: solver.Equal,
			RHS:   req.Quantity,
		})); err != nil {
			return nil, fmt.Errorf("request %s: %w", req.ID, err)
		}
	}

	for bi, vars := range byBatch {
		if len(vars) < 2 {
			continue
		}
		var used solver.Expr
		for _, v := range vars {
			used.Add(v, 1)
		}
		if err := p.Add(solver.Emit(solver.Constraint{
			Name:  "batch[" + batches[bi].ID + "]",
			Expr:  used,
			Sense: solver.LessEqual,
			RHS:   batches[bi].Quantity,
		})); err != nil {
			return nil, fmt.Errorf("batch %s: %w", batches[bi].ID, err)
		}
	}

	sol, err := a.solver.Solve(ctx, p, a.options)
	if err != nil {
		return nil, fmt.Errorf("allocation solve failed: %w", err)
	}
	if !sol.Status.HasSolution() {
		return nil, fmt.Errorf("%w: allocation LP is %s", ErrInsufficientSupply, sol.Status)
	}

	var out []Assignment
	for _, pr := range pairs {
		reading := sol.Value(pr.v)
		if !reading.OK {
			return nil, fmt.Errorf("allocation LP returned no value for %s", p.Variable(pr.v).Name)
		}
		if reading.Value < entities.QuantityTolerance {
			continue
		}
		out = append(out, Assignment{
			Request:  requests[pr.request].ID,
			BatchID:  batches[pr.batch].ID,
			Quantity: reading.Value,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Request != out[j].Request {
			return out[i].Request < out[j].Request
		}
		return out[i].BatchID < out[j].BatchID
	})
	return out, nil
}

// Select serves a single request, letting the LP allocator drive the
// allocation engine
func (a *LPAllocator) Select(ctx context.Context, req Request, candidates []*entities.Batch) ([]Pick, error) {
	assignments, err := a.Allocate(ctx, candidates, []Request{req})
	if err != nil {
		return nil, err
	}
	index := make(map[string]*entities.Batch, len(candidates))
	for _, b := range candidates {
		index[b.ID] = b
	}
	picks := make([]Pick, 0, len(assignments))
	for _, as := range assignments {
		b := index[as.BatchID]
		q := as.Quantity
		if q > b.Quantity {
			q = b.Quantity
		}
		picks = append(picks, Pick{Batch: b, Quantity: q})
	}
	return picks, nil
}
