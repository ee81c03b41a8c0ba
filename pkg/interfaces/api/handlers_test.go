package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/application/services/orchestration"
	"github.com/vsinha/perishplan/pkg/infrastructure/events"
	"github.com/vsinha/perishplan/pkg/infrastructure/metrics"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/perishplan/pkg/solver"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const laneScenario = `
name: lane
horizon: {start: 2025-01-06, end: 2025-01-09}
costs: {production_per_unit: 1, shortage_per_unit: 10, disposal_per_unit: 15, waste_multiplier: 1}
network:
  nodes:
    - {id: MFG, produces: true, ambient: true, max_daily_production: 500}
    - {id: DC, ambient: true, demand: true}
  routes:
    - {id: MFG-DC, origin: MFG, destination: DC, transit_days: 1, cost_per_unit: 0.5}
  products:
    - {id: P1, units_per_pallet: 10}
demand:
  entries:
    - {node: DC, product: P1, date: 2025-01-08, quantity: 100}
`

// offsetSolver reports an objective the cost breakdown cannot match
type offsetSolver struct{ inner solver.Solver }

func (s offsetSolver) Solve(ctx context.Context, p *solver.Problem, opts solver.Options) (*solver.Solution, error) {
	sol, err := s.inner.Solve(ctx, p, opts)
	if err != nil || !sol.Status.HasSolution() {
		return sol, err
	}
	values := make([]float64, sol.NumValues())
	for i := range values {
		values[i] = sol.Value(solver.VarID(i)).Value
	}
	return solver.NewSolution(sol.Status, sol.Objective+100, values), nil
}

func newServer(t *testing.T, s solver.Solver) *httptest.Server {
	t.Helper()
	repo := memory.NewPlanRepository()
	store := events.NewInMemoryEventStore(quiet)
	recorder := metrics.NewRecorder()
	orchestrator := orchestration.NewPlanningOrchestrator(s, quiet,
		orchestration.WithRepository(repo),
		orchestration.WithEventStore(store),
		orchestration.WithMetrics(recorder))
	h := NewHandler(orchestrator, repo, store, quiet, 2)
	srv := httptest.NewServer(NewRouter(h, recorder.Handler(), []string{"http://localhost:5173"}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/yaml", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAPI_PlanLifecycle(t *testing.T) {
	srv := newServer(t, nil)

	resp := post(t, srv, "/api/plans", laneScenario)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	run := decode[dto.PlanRun](t, resp)
	assert.Equal(t, "optimal", run.Status)
	assert.Equal(t, "lane", run.Name)
	require.NotNil(t, run.Plan)
	assert.NotEmpty(t, run.ID)

	resp = get(t, srv, "/api/plans")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decode[[]dto.PlanRunSummary](t, resp)
	require.Len(t, summaries, 1)
	assert.Equal(t, run.ID, summaries[0].ID)

	resp = get(t, srv, "/api/plans/"+run.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, run.ID, decode[dto.PlanRun](t, resp).ID)

	resp = get(t, srv, "/api/plans/"+run.ID+"/batches")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[[]map[string]any](t, resp))

	resp = get(t, srv, "/api/plans/"+run.ID+"/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	evs := decode[[]map[string]any](t, resp)
	require.Len(t, evs, 4)
	assert.Equal(t, events.ModelBuiltEvent, evs[0]["type"])
}

func TestAPI_AllocationOverride(t *testing.T) {
	srv := newServer(t, nil)

	resp := post(t, srv, "/api/plans?allocation=none&time_limit=5s", laneScenario)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	run := decode[dto.PlanRun](t, resp)
	assert.Equal(t, "none", run.Allocation)
	assert.Empty(t, run.Batches)
}

func TestAPI_BadRequests(t *testing.T) {
	srv := newServer(t, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed", "/api/plans", "horizon: ["},
		{"unknown field", "/api/plans", laneScenario + "extra: 1\n"},
		{"file reference", "/api/plans", strings.Replace(laneScenario, "demand:\n  entries:", "labor: {file: /etc/passwd}\ndemand:\n  entries:", 1)},
		{"bad costs", "/api/plans", strings.Replace(laneScenario, "disposal_per_unit: 15", "disposal_per_unit: 5", 1)},
		{"bad allocation", "/api/plans?allocation=lifo", laneScenario},
		{"bad time limit", "/api/plans?time_limit=soon", laneScenario},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[ErrorResponse](t, resp)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestAPI_RejectedPlan(t *testing.T) {
	srv := newServer(t, offsetSolver{inner: solver.NewBranchAndBound(quiet)})

	resp := post(t, srv, "/api/plans", laneScenario)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[RejectedResponse](t, resp)
	require.NotNil(t, body.Run)
	assert.Equal(t, orchestration.StatusRejected, body.Run.Status)
	assert.NotEmpty(t, body.Run.Violations)
	assert.Nil(t, body.Run.Plan)

	resp = get(t, srv, "/api/plans/"+body.Run.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_NotFound(t *testing.T) {
	srv := newServer(t, nil)

	for _, path := range []string{"/api/plans/missing", "/api/plans/missing/batches", "/api/plans/missing/events"} {
		resp := get(t, srv, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	srv := newServer(t, nil)
	post(t, srv, "/api/plans", laneScenario)

	resp := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `perishplan_runs_total{status="optimal"} 1`)
}

func TestAPI_CORSPreflight(t *testing.T) {
	srv := newServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/plans", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
