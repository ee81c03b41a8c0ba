package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
	planningtest "github.com/vsinha/perishplan/pkg/infrastructure/testing"
)

func sampleRun(t *testing.T) *dto.PlanRun {
	t.Helper()
	batch, err := entities.NewBatch("B00001", "P1", "MFG", planningtest.Day(0), entities.Ambient, 100)
	require.NoError(t, err)
	return &dto.PlanRun{
		ID:         "run-1",
		Name:       "lane",
		Status:     "optimal",
		Allocation: "fefo",
		Plan: &dto.PlanResult{
			Status:    "optimal",
			Objective: 1150,
			StartDate: planningtest.Day(0),
			EndDate:   planningtest.Day(2),
			Production: []dto.ProductionRecord{
				{Node: "MFG", Product: "P1", Date: planningtest.Day(0), State: entities.Ambient, Quantity: 100},
			},
			Shipments: []dto.ShipmentRecord{{
				Origin: "MFG", Destination: "DC", Product: "P1", Mode: entities.ModeAmbient,
				DepartureDate: planningtest.Day(0), DeliveryDate: planningtest.Day(1),
				ArrivalState: entities.Ambient, Quantity: 100,
			}},
			Demand: []dto.DemandRecord{
				{Node: "DC", Product: "P1", Date: planningtest.Day(1), Demand: 100, FromAmbient: 100},
				{Node: "DC", Product: "P1", Date: planningtest.Day(2), Demand: 100, Shortage: 100},
			},
			Costs: dto.CostBreakdown{
				Production: decimal.NewFromInt(100),
				Transport:  decimal.NewFromInt(50),
				Shortage:   decimal.NewFromInt(1000),
				Total:      decimal.NewFromInt(1150),
			},
		},
		Batches: []*entities.Batch{batch},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleRun(t), Config{Format: "text", Stdout: &buf}))

	out := buf.String()
	assert.Contains(t, out, "Status: optimal")
	assert.Contains(t, out, "fill rate 50.0%")
	assert.Contains(t, out, "Shortages:")
	assert.Contains(t, out, "1150.00")
}

func TestGenerate_TextRejected(t *testing.T) {
	run := &dto.PlanRun{ID: "run-2", Status: "rejected", Violations: []string{"labor without production"}}
	var buf bytes.Buffer

	require.NoError(t, Generate(run, Config{Stdout: &buf}))
	assert.Contains(t, buf.String(), "labor without production")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleRun(t), Config{Format: "json", Stdout: &buf}))

	var decoded dto.PlanRun
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.ID)
	require.NotNil(t, decoded.Plan)
	assert.True(t, decoded.Plan.Costs.Total.Equal(decimal.NewFromInt(1150)))
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleRun(t), Config{Format: "csv", OutputDir: dir}))

	data, err := os.ReadFile(filepath.Join(dir, "shipments.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2025-01-06,2025-01-07,MFG,DC,P1,ambient,ambient,100", lines[1])

	for _, name := range []string{"production.csv", "demand.csv", "batches.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestGenerate_CSVRequiresDirectory(t *testing.T) {
	err := Generate(sampleRun(t), Config{Format: "csv"})
	assert.Error(t, err)
}

func TestGenerate_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleRun(t), Config{Format: "svg", Stdout: &buf}))

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, ">MFG</text>")
	assert.Contains(t, svg, "shipment P1 to DC: 100.0 units")
	assert.Contains(t, svg, "#F44336")
}

func TestGenerate_UnknownFormat(t *testing.T) {
	err := Generate(sampleRun(t), Config{Format: "xml"})
	assert.Error(t, err)
}
