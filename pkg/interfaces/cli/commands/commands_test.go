package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/infrastructure/config"
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

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(laneScenario), 0o644))
	return path
}

func TestPlanCommand_TextOutput(t *testing.T) {
	var out bytes.Buffer
	cmd := NewPlanCommand(Config{ScenarioFile: writeScenario(t), Format: "text", Stdout: &out}, quiet)

	require.NoError(t, cmd.Execute(context.Background()))
	assert.Contains(t, out.String(), "Status: optimal")
	assert.Contains(t, out.String(), "fill rate 100.0%")
}

func TestPlanCommand_SavesRunsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "plans.db")
	scenario := writeScenario(t)

	var planOut bytes.Buffer
	cmd := NewPlanCommand(Config{
		ScenarioFile: scenario,
		Format:       "json",
		Allocation:   "lp",
		DatabasePath: db,
		Stdout:       &planOut,
	}, quiet)
	require.NoError(t, cmd.Execute(context.Background()))
	assert.Contains(t, planOut.String(), `"allocation": "lp"`)

	var listOut bytes.Buffer
	require.NoError(t, NewRunsCommand(RunsConfig{DatabasePath: db, Stdout: &listOut}).Execute(context.Background()))
	assert.Contains(t, listOut.String(), "lane")
	assert.Contains(t, listOut.String(), "1 runs")
}

func TestPlanCommand_Errors(t *testing.T) {
	err := NewPlanCommand(Config{}, quiet).Execute(context.Background())
	assert.ErrorContains(t, err, "-scenario")

	err = NewPlanCommand(Config{ScenarioFile: writeScenario(t), Allocation: "lifo", Stdout: io.Discard}, quiet).
		Execute(context.Background())
	assert.ErrorContains(t, err, "unknown allocation mode")

	err = NewPlanCommand(Config{ScenarioFile: "missing.yaml", Stdout: io.Discard}, quiet).Execute(context.Background())
	assert.ErrorContains(t, err, "error loading scenario")
}

func TestGenerateCommand_ProducesLoadableScenario(t *testing.T) {
	dir := t.TempDir()
	cmd := NewGenerateCommand(GenerateConfig{
		Plants:    1,
		Hubs:      2,
		Stores:    5,
		Products:  3,
		Days:      14,
		OutputDir: dir,
		Seed:      42,
		Stdout:    io.Discard,
	})
	require.NoError(t, cmd.Execute(context.Background()))

	scenario, err := config.LoadScenario(filepath.Join(dir, "scenario.yaml"))
	require.NoError(t, err)
	in, opts, err := scenario.Build()
	require.NoError(t, err)

	assert.Len(t, in.Network.Nodes, 8)
	assert.Len(t, in.Network.Products, 3)
	assert.Len(t, in.Network.Trucks, 2)
	assert.Equal(t, 14, in.Labor.Len())
	// 5 stores x 3 products x 12 non-Sunday days
	assert.Len(t, in.Demand, 180)
	assert.Equal(t, "2025-01-19", opts.Model.EndDate.Format("2006-01-02"))
}

func TestGenerateCommand_IsReproducible(t *testing.T) {
	read := func() []byte {
		dir := t.TempDir()
		cfg := GenerateConfig{Plants: 1, Hubs: 1, Stores: 3, Products: 1, Days: 7, OutputDir: dir, Seed: 7, Stdout: io.Discard}
		require.NoError(t, NewGenerateCommand(cfg).Execute(context.Background()))
		data, err := os.ReadFile(filepath.Join(dir, "demand.csv"))
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, read(), read())
}

func TestGenerateCommand_Validation(t *testing.T) {
	err := NewGenerateCommand(GenerateConfig{Plants: 1, Stores: 1, Products: 1, Days: 7, Stdout: io.Discard}).
		Execute(context.Background())
	assert.ErrorContains(t, err, "-output")
}
