// Package sqlite persists plan runs in SQLite through sqlx and the pure-Go
// modernc driver. Each run is stored as a JSON payload next to the summary
// columns the list view needs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
)

// fixed-width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS plan_runs (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	status         TEXT NOT NULL,
	allocation     TEXT NOT NULL,
	duration_ns    INTEGER NOT NULL,
	objective      REAL NOT NULL,
	total_shortage REAL NOT NULL,
	fill_rate      REAL NOT NULL,
	payload        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plan_runs_created_at ON plan_runs (created_at);
`

type runRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	CreatedAt     string  `db:"created_at"`
	Status        string  `db:"status"`
	Allocation    string  `db:"allocation"`
	DurationNS    int64   `db:"duration_ns"`
	Objective     float64 `db:"objective"`
	TotalShortage float64 `db:"total_shortage"`
	FillRate      float64 `db:"fill_rate"`
	Payload       string  `db:"payload"`
}

// PlanRepository stores plan runs in a SQLite database
type PlanRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ repositories.PlanRepository = (*PlanRepository)(nil)

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*PlanRepository, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &PlanRepository{db: db}, nil
}

// Close closes the database connection
func (r *PlanRepository) Close() error {
	return r.db.Close()
}

// Save inserts a run or replaces the run with the same ID
func (r *PlanRepository) Save(ctx context.Context, run *dto.PlanRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("plan run must have an id")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode plan run %s: %w", run.ID, err)
	}
	summary := run.Summary()
	row := runRow{
		ID:            run.ID,
		Name:          run.Name,
		CreatedAt:     run.CreatedAt.UTC().Format(timeLayout),
		Status:        run.Status,
		Allocation:    run.Allocation,
		DurationNS:    int64(run.Duration),
		Objective:     summary.Objective,
		TotalShortage: summary.TotalShortage,
		FillRate:      summary.FillRate,
		Payload:       string(payload),
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO plan_runs (id, name, created_at, status, allocation, duration_ns, objective, total_shortage, fill_rate, payload)
		VALUES (:id, :name, :created_at, :status, :allocation, :duration_ns, :objective, :total_shortage, :fill_rate, :payload)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			created_at = excluded.created_at,
			status = excluded.status,
			allocation = excluded.allocation,
			duration_ns = excluded.duration_ns,
			objective = excluded.objective,
			total_shortage = excluded.total_shortage,
			fill_rate = excluded.fill_rate,
			payload = excluded.payload`, row)
	if err != nil {
		return fmt.Errorf("failed to save plan run %s: %w", run.ID, err)
	}
	return tx.Commit()
}

// Get loads a run by ID
func (r *PlanRepository) Get(ctx context.Context, id string) (*dto.PlanRun, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM plan_runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPlanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan run %s: %w", id, err)
	}
	var run dto.PlanRun
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("failed to decode plan run %s: %w", id, err)
	}
	return &run, nil
}

// List returns run summaries, newest first
func (r *PlanRepository) List(ctx context.Context) ([]dto.PlanRunSummary, error) {
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, created_at, status, allocation, duration_ns, objective, total_shortage, fill_rate, '' AS payload
		FROM plan_runs
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	out := make([]dto.PlanRunSummary, 0, len(rows))
	for _, row := range rows {
		created, err := time.Parse(timeLayout, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("plan run %s has bad created_at %q: %w", row.ID, row.CreatedAt, err)
		}
		out = append(out, dto.PlanRunSummary{
			ID:            row.ID,
			Name:          row.Name,
			CreatedAt:     created,
			Status:        row.Status,
			Objective:     row.Objective,
			TotalShortage: row.TotalShortage,
			FillRate:      row.FillRate,
		})
	}
	return out, nil
}
