package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
)

func openTemp(t *testing.T) *PlanRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRun(id string, created time.Time) *dto.PlanRun {
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	plan := &dto.PlanResult{
		Status:    "optimal",
		Objective: 300,
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 4),
		ShelfLife: entities.DefaultShelfLife(),
		Production: []dto.ProductionRecord{
			{Node: "MFG", Product: "P1", Date: day, State: entities.Ambient, Quantity: 200},
		},
		Demand: []dto.DemandRecord{
			{Node: "DC", Product: "P1", Date: day.AddDate(0, 0, 1), Demand: 250, FromAmbient: 200, Shortage: 50},
		},
	}
	plan.Costs.Production = decimal.NewFromInt(200)
	plan.Costs.Transport = decimal.RequireFromString("100.5")
	plan.Costs.Total = plan.Costs.Sum()

	batch, _ := entities.NewBatch("B00001", "P1", "MFG", day, entities.Ambient, 200)
	batch.Record(day, "production")

	return &dto.PlanRun{
		ID:         id,
		Name:       "weekly",
		CreatedAt:  created,
		Status:     "optimal",
		Allocation: "fefo",
		Duration:   1500 * time.Millisecond,
		Plan:       plan,
		Batches:    []*entities.Batch{batch},
	}
}

func TestPlanRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	created := time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, sampleRun("run-1", created)))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "weekly", got.Name)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	require.NotNil(t, got.Plan)
	assert.Equal(t, entities.Ambient, got.Plan.Production[0].State)
	assert.True(t, got.Plan.Costs.Total.Equal(decimal.RequireFromString("300.5")))
	require.Len(t, got.Batches, 1)
	assert.Equal(t, "B00001", got.Batches[0].ID)
	assert.Len(t, got.Batches[0].History, 1)
}

func TestPlanRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, sampleRun("old", base)))
	require.NoError(t, repo.Save(ctx, sampleRun("new", base.Add(time.Hour))))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.InDelta(t, 50, list[0].TotalShortage, 1e-9)
	assert.InDelta(t, 0.8, list[0].FillRate, 1e-9)
}

func TestPlanRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	run := sampleRun("run-1", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, run))

	run.Status = "rejected"
	run.Plan = nil
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "rejected", got.Status)
	assert.Nil(t, got.Plan)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPlanRepository_GetMissing(t *testing.T) {
	_, err := openTemp(t).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, repositories.ErrPlanNotFound))
}
