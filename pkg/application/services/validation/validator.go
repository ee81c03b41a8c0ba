package validation

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/domain/services"
)

const tolerance = 1e-4

// Validator runs the post-solve business-rule checks
type Validator struct {
	logger   *slog.Logger
	expander *services.RouteExpander
}

// NewValidator creates a validator; a nil logger uses slog.Default()
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger, expander: services.NewRouteExpander()}
}

// Validate checks a plan against the network it was built from. Every
// violation is logged and returned in a single *ValidationError.
func (v *Validator) Validate(plan *dto.PlanResult, network entities.Network) error {
	routes, err := v.expander.Expand(network)
	if err != nil {
		return fmt.Errorf("failed to expand routes: %w", err)
	}

	var violations []Violation
	violations = append(violations, laborWithoutProduction(plan)...)
	violations = append(violations, trucksNotOperating(plan, network.Trucks)...)
	violations = append(violations, mandatoryNodesBypassed(plan, network.Nodes, routes)...)
	violations = append(violations, laborBelowMinimum(plan)...)
	violations = append(violations, demandUnbalanced(plan)...)
	violations = append(violations, costMismatch(plan)...)

	if len(violations) == 0 {
		return nil
	}
	for _, viol := range violations {
		v.logger.Error("business rule violated", "rule", string(viol.Rule), "detail", viol.Message)
	}
	return &ValidationError{Violations: violations}
}

type nodeDay struct {
	node entities.NodeID
	date time.Time
}

func laborWithoutProduction(plan *dto.PlanResult) []Violation {
	produced := make(map[nodeDay]float64)
	for _, p := range plan.Production {
		produced[nodeDay{p.Node, entities.Day(p.Date)}] += p.Quantity
	}
	var out []Violation
	for _, l := range plan.Labor {
		if l.Hours <= tolerance {
			continue
		}
		if produced[nodeDay{l.Node, entities.Day(l.Date)}] <= tolerance {
			out = append(out, Violation{
				Rule:    RuleLaborWithoutProduction,
				Message: fmt.Sprintf("%s works %g hours on %s with no production", l.Node, l.Hours, l.Date.Format(entities.DateLayout)),
			})
		}
	}
	return out
}

func trucksNotOperating(plan *dto.PlanResult, trucks []entities.TruckSchedule) []Violation {
	var out []Violation
	for _, s := range allShipments(plan) {
		if s.Quantity <= tolerance {
			continue
		}
		gated, running := false, false
		for _, t := range trucks {
			if !t.Serves(s.Origin, s.Destination) {
				continue
			}
			gated = true
			if t.OperatesOn(s.DepartureDate) {
				running = true
				break
			}
		}
		if gated && !running {
			out = append(out, Violation{
				Rule: RuleTruckNotOperating,
				Message: fmt.Sprintf("%s -> %s ships %g on %s (%s) with no truck running",
					s.Origin, s.Destination, s.Quantity, s.DepartureDate.Format(entities.DateLayout), s.DepartureDate.Weekday()),
			})
		}
	}
	return out
}

// mandatoryNodesBypassed finds, for every demand node served beyond its own
// stock, the intermediate nodes every supply path runs through. Each such
// node must ship something.
func mandatoryNodesBypassed(plan *dto.PlanResult, nodes []entities.Node, routes []entities.Route) []Violation {
	graph := newRouteGraph(routes)

	held := make(map[entities.NodeID]float64)
	for _, rec := range plan.Initial {
		held[rec.Node] += rec.Quantity
	}
	sources := make(map[entities.NodeID]bool)
	producers := make(map[entities.NodeID]bool)
	for _, n := range nodes {
		producers[n.ID] = n.Capabilities.CanProduce
		if n.Capabilities.CanProduce || held[n.ID] > tolerance {
			sources[n.ID] = true
		}
	}

	fulfilled := make(map[entities.NodeID]float64)
	for _, d := range plan.Demand {
		fulfilled[d.Node] += d.Fulfilled()
	}
	departed := make(map[entities.NodeID]float64)
	for _, s := range allShipments(plan) {
		departed[s.Origin] += s.Quantity
	}

	demandNodes := make([]entities.NodeID, 0, len(fulfilled))
	for id := range fulfilled {
		demandNodes = append(demandNodes, id)
	}
	sort.Slice(demandNodes, func(i, j int) bool { return demandNodes[i] < demandNodes[j] })

	var out []Violation
	for _, dest := range demandNodes {
		if producers[dest] || fulfilled[dest]-held[dest] <= tolerance {
			continue
		}
		for _, hub := range graph.nodes() {
			if hub == dest || sources[hub] {
				continue
			}
			if !graph.reachable(sources, dest, "") || graph.reachable(sources, dest, hub) {
				continue
			}
			if departed[hub] <= tolerance {
				out = append(out, Violation{
					Rule:    RuleMandatoryNodeBypassed,
					Message: fmt.Sprintf("%s is served %g without any flow through %s", dest, fulfilled[dest], hub),
				})
			}
		}
	}
	return out
}

func laborBelowMinimum(plan *dto.PlanResult) []Violation {
	var out []Violation
	for _, l := range plan.Labor {
		if l.FixedDay {
			continue
		}
		if l.PaidHours > tolerance && l.PaidHours < l.Minimum-tolerance {
			out = append(out, Violation{
				Rule: RuleLaborBelowMinimum,
				Message: fmt.Sprintf("%s pays %g hours on %s, under the %g hour minimum",
					l.Node, l.PaidHours, l.Date.Format(entities.DateLayout), l.Minimum),
			})
		}
	}
	return out
}

func demandUnbalanced(plan *dto.PlanResult) []Violation {
	var out []Violation
	for _, d := range plan.Demand {
		served := d.FromAmbient + d.FromThawed + d.Shortage
		if math.Abs(served-d.Demand) > tolerance*math.Max(1, d.Demand) {
			out = append(out, Violation{
				Rule: RuleDemandUnbalanced,
				Message: fmt.Sprintf("%s/%s on %s: ambient %g + thawed %g + shortage %g != demand %g",
					d.Node, d.Product, d.Date.Format(entities.DateLayout), d.FromAmbient, d.FromThawed, d.Shortage, d.Demand),
			})
		}
	}
	return out
}

func costMismatch(plan *dto.PlanResult) []Violation {
	total, _ := plan.Costs.Total.Float64()
	if math.Abs(total-plan.Objective) <= tolerance*math.Max(1, math.Abs(plan.Objective)) {
		return nil
	}
	return []Violation{{
		Rule:    RuleCostMismatch,
		Message: fmt.Sprintf("cost breakdown totals %s but the solver objective is %g", plan.Costs.Total, plan.Objective),
	}}
}

func allShipments(plan *dto.PlanResult) []dto.ShipmentRecord {
	out := make([]dto.ShipmentRecord, 0, len(plan.Shipments)+len(plan.InTransitAtEnd))
	out = append(out, plan.Shipments...)
	return append(out, plan.InTransitAtEnd...)
}
