package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
)

// PlanRepository provides in-memory plan run storage
type PlanRepository struct {
	mu   sync.RWMutex
	runs map[string]*dto.PlanRun
}

// NewPlanRepository creates a new in-memory plan repository
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{runs: make(map[string]*dto.PlanRun)}
}

// Verify interface compliance
var _ repositories.PlanRepository = (*PlanRepository)(nil)

// Save stores a run, replacing any run with the same ID
func (r *PlanRepository) Save(_ context.Context, run *dto.PlanRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("plan run must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

// Get returns the run with the given ID
func (r *PlanRepository) Get(_ context.Context, id string) (*dto.PlanRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPlanNotFound, id)
	}
	found := *run
	return &found, nil
}

// List returns run summaries, newest first
func (r *PlanRepository) List(_ context.Context) ([]dto.PlanRunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dto.PlanRunSummary, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func sortSummaries(s []dto.PlanRunSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}
