// Package api serves planning runs over HTTP. Scenarios are posted as YAML or
// JSON, planned synchronously and stored in the plan repository.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/application/services/model"
	"github.com/vsinha/perishplan/pkg/application/services/orchestration"
	"github.com/vsinha/perishplan/pkg/application/services/validation"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
	"github.com/vsinha/perishplan/pkg/infrastructure/config"
	"github.com/vsinha/perishplan/pkg/infrastructure/events"
)

// maxScenarioBytes bounds a posted scenario
const maxScenarioBytes = 10 << 20

// Handler holds the dependencies of the HTTP handlers
type Handler struct {
	Orchestrator *orchestration.PlanningOrchestrator
	Plans        repositories.PlanRepository
	Events       events.EventStore
	Logger       *slog.Logger

	// solves admits a bounded number of concurrent solves
	solves chan struct{}
}

// NewHandler creates a handler that runs at most maxSolves plans at once
func NewHandler(orchestrator *orchestration.PlanningOrchestrator, plans repositories.PlanRepository,
	store events.EventStore, logger *slog.Logger, maxSolves int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSolves < 1 {
		maxSolves = 1
	}
	return &Handler{
		Orchestrator: orchestrator,
		Plans:        plans,
		Events:       store,
		Logger:       logger,
		solves:       make(chan struct{}, maxSolves),
	}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RejectedResponse is returned when a solved plan breaks a business rule
type RejectedResponse struct {
	Error string       `json:"error"`
	Run   *dto.PlanRun `json:"run"`
}

// CreatePlan plans a posted scenario. Query parameters allocation and
// time_limit override the scenario.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	scenario, err := config.ReadScenario(http.MaxBytesReader(w, r.Body, maxScenarioBytes), "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scenario", err)
		return
	}
	if scenario.ReferencesFiles() {
		writeError(w, http.StatusBadRequest, "Invalid scenario", errors.New("CSV file references are not accepted over HTTP; inline the tables"))
		return
	}
	in, opts, err := scenario.Build()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scenario", err)
		return
	}

	q := r.URL.Query()
	if v := q.Get("allocation"); v != "" {
		if opts.Allocation, err = orchestration.ParseAllocationMode(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid allocation", err)
			return
		}
	}
	if v := q.Get("time_limit"); v != "" {
		limit, err := time.ParseDuration(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid time_limit", err)
			return
		}
		opts.Solver.TimeLimit = limit
	}

	select {
	case h.solves <- struct{}{}:
		defer func() { <-h.solves }()
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "Request cancelled while waiting for a solver", r.Context().Err())
		return
	}

	run, err := h.Orchestrator.Run(r.Context(), in, opts)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, run)
	case errors.Is(err, validation.ErrBusinessRuleViolation) && run != nil:
		writeJSON(w, http.StatusUnprocessableEntity, RejectedResponse{Error: err.Error(), Run: run})
	case errors.Is(err, model.ErrConfiguration):
		writeError(w, http.StatusBadRequest, "Invalid planning configuration", err)
	default:
		h.Logger.Error("planning run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Planning failed", err)
	}
}

// ListPlans lists saved runs, newest first
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Plans.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}
	if summaries == nil {
		summaries = []dto.PlanRunSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetPlan returns one run
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetBatches returns the batch genealogy of one run
func (h *Handler) GetBatches(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	batches := run.Batches
	if batches == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// GetEvents returns the planning events recorded for one run
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeError(w, http.StatusNotFound, "Event recording is disabled", nil)
		return
	}
	id := chi.URLParam(r, "id")
	evs, err := h.Events.Run(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read events", err)
		return
	}
	if len(evs) == 0 {
		writeError(w, http.StatusNotFound, "Plan not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*dto.PlanRun, bool) {
	run, err := h.Plans.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repositories.ErrPlanNotFound) {
		writeError(w, http.StatusNotFound, "Plan not found", nil)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get plan", err)
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
