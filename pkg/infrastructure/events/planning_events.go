package events

import (
	"time"
)

const (
	ModelBuiltEvent          = "model.built"
	SolveCompletedEvent      = "solve.completed"
	PlanInfeasibleEvent      = "plan.infeasible"
	PlanExtractedEvent       = "plan.extracted"
	AllocationCompletedEvent = "allocation.completed"
	ValidationFailedEvent    = "validation.failed"
)

type ModelBuilt struct {
	Variables   int     `json:"variables"`
	Integers    int     `json:"integers"`
	Constraints int     `json:"constraints"`
	Folded      int     `json:"folded"`
	CoefRatio   float64 `json:"coefficient_ratio"`
}

type SolveCompleted struct {
	Status    string        `json:"status"`
	Objective float64       `json:"objective"`
	Gap       float64       `json:"gap"`
	Nodes     int           `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
}

type PlanInfeasible struct {
	AllowShortages bool `json:"allow_shortages"`
}

type PlanExtracted struct {
	Production float64 `json:"production"`
	Shortage   float64 `json:"shortage"`
	FillRate   float64 `json:"fill_rate"`
	TotalCost  string  `json:"total_cost"`
}

type AllocationCompleted struct {
	Strategy string `json:"strategy"`
	Batches  int    `json:"batches"`
	Events   int    `json:"events"`
}

type ValidationFailed struct {
	Violations []string `json:"violations"`
}
