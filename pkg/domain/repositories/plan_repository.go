package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/perishplan/pkg/application/dto"
)

// ErrPlanNotFound is returned when no run exists with the requested ID
var ErrPlanNotFound = errors.New("plan run not found")

// PlanRepository stores completed planning runs
type PlanRepository interface {
	Save(ctx context.Context, run *dto.PlanRun) error
	Get(ctx context.Context, id string) (*dto.PlanRun, error)
	List(ctx context.Context) ([]dto.PlanRunSummary, error)
}
