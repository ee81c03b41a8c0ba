package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
)

func TestPlanRepository_SaveGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository()
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &dto.PlanRun{ID: "a", Name: "first", CreatedAt: base, Status: "optimal"}))
	require.NoError(t, repo.Save(ctx, &dto.PlanRun{ID: "b", Name: "second", CreatedAt: base.Add(time.Hour), Status: "infeasible"}))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestPlanRepository_GetMissing(t *testing.T) {
	_, err := NewPlanRepository().Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, repositories.ErrPlanNotFound))
}

func TestPlanRepository_StoresCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository()
	run := &dto.PlanRun{ID: "a", Status: "optimal"}
	require.NoError(t, repo.Save(ctx, run))

	run.Status = "changed"
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "optimal", got.Status)
}

func TestPlanRepository_RejectsMissingID(t *testing.T) {
	assert.Error(t, NewPlanRepository().Save(context.Background(), &dto.PlanRun{}))
}
