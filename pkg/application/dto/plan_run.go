package dto

import (
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// PlanRun is one end-to-end planning run as persisted and served
type PlanRun struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CreatedAt  time.Time         `json:"created_at"`
	Status     string            `json:"status"`
	Allocation string            `json:"allocation"`
	Duration   time.Duration     `json:"duration"`
	Plan       *PlanResult       `json:"plan,omitempty"`
	Batches    []*entities.Batch `json:"batches,omitempty"`
	Violations []string          `json:"violations,omitempty"`
}

// PlanRunSummary is the list view of a plan run
type PlanRunSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
	Objective     float64   `json:"objective"`
	TotalShortage float64   `json:"total_shortage"`
	FillRate      float64   `json:"fill_rate"`
}

// Summary builds the list view of the run
func (r *PlanRun) Summary() PlanRunSummary {
	s := PlanRunSummary{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		Status:    r.Status,
		FillRate:  1,
	}
	if r.Plan != nil {
		s.Objective = r.Plan.Objective
		s.TotalShortage = r.Plan.TotalShortage()
		s.FillRate = r.Plan.FillRate()
	}
	return s
}
