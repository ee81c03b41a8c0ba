package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Stdout receives console output; nil means os.Stdout
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Generate creates output in the specified format
func Generate(run *dto.PlanRun, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(run, config)
	case "json":
		return generateJSONOutput(run, config)
	case "csv":
		return generateCSVOutput(run, config)
	case "svg":
		return generateSVGOutput(run, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(run *dto.PlanRun, config Config) error {
	w := config.stdout()
	fmt.Fprintf(w, "📊 Plan Summary\n")
	fmt.Fprintf(w, "===============\n\n")
	fmt.Fprintf(w, "Run: %s", run.ID)
	if run.Name != "" {
		fmt.Fprintf(w, " (%s)", run.Name)
	}
	fmt.Fprintf(w, "\nStatus: %s\n", run.Status)
	fmt.Fprintf(w, "Duration: %v\n", run.Duration)

	if len(run.Violations) > 0 {
		fmt.Fprintf(w, "\n❌ Plan rejected:\n")
		for _, v := range run.Violations {
			fmt.Fprintf(w, "  - %s\n", v)
		}
		return nil
	}

	plan := run.Plan
	if plan == nil {
		fmt.Fprintf(w, "\n⚠️  No plan: the model has no feasible solution\n")
		return nil
	}

	fmt.Fprintf(w, "Horizon: %s to %s\n", plan.StartDate.Format(entities.DateLayout), plan.EndDate.Format(entities.DateLayout))
	fmt.Fprintf(w, "Objective: %.2f (gap %.4f)\n", plan.Objective, plan.Gap)
	fmt.Fprintf(w, "Production: %.0f units\n", plan.TotalProduction())
	fmt.Fprintf(w, "Demand: %.0f units, shortage %.0f, fill rate %.1f%%\n\n",
		plan.TotalDemand(), plan.TotalShortage(), plan.FillRate()*100)

	if len(plan.Production) > 0 {
		fmt.Fprintf(w, "🏭 Production:\n")
		fmt.Fprintf(w, "%-12s %-12s %-12s %-10s %10s\n", "Date", "Node", "Product", "State", "Qty")
		fmt.Fprintf(w, "%-12s %-12s %-12s %-10s %10s\n", "------------", "------------", "------------", "----------", "----------")
		for _, p := range plan.Production {
			fmt.Fprintf(w, "%-12s %-12s %-12s %-10s %10.1f\n",
				p.Date.Format(entities.DateLayout), p.Node, p.Product, p.State, p.Quantity)
		}
		fmt.Fprintln(w)
	}

	if len(plan.Shipments) > 0 {
		fmt.Fprintf(w, "🚚 Shipments:\n")
		fmt.Fprintf(w, "%-12s %-12s %-12s %-12s %-12s %-8s %10s\n",
			"Depart", "Arrive", "Origin", "Destination", "Product", "Mode", "Qty")
		fmt.Fprintf(w, "%-12s %-12s %-12s %-12s %-12s %-8s %10s\n",
			"------------", "------------", "------------", "------------", "------------", "--------", "----------")
		for _, s := range plan.Shipments {
			fmt.Fprintf(w, "%-12s %-12s %-12s %-12s %-12s %-8s %10.1f\n",
				s.DepartureDate.Format(entities.DateLayout), s.DeliveryDate.Format(entities.DateLayout),
				s.Origin, s.Destination, s.Product, s.Mode, s.Quantity)
		}
		fmt.Fprintln(w)
	}

	var short []dto.DemandRecord
	for _, d := range plan.Demand {
		if d.Shortage > 0 {
			short = append(short, d)
		}
	}
	if len(short) > 0 {
		fmt.Fprintf(w, "⚠️  Shortages:\n")
		fmt.Fprintf(w, "%-12s %-12s %-12s %10s %10s\n", "Date", "Node", "Product", "Demand", "Short")
		fmt.Fprintf(w, "%-12s %-12s %-12s %10s %10s\n", "------------", "------------", "------------", "----------", "----------")
		for _, d := range short {
			fmt.Fprintf(w, "%-12s %-12s %-12s %10.1f %10.1f\n",
				d.Date.Format(entities.DateLayout), d.Node, d.Product, d.Demand, d.Shortage)
		}
		fmt.Fprintln(w)
	}

	c := plan.Costs
	fmt.Fprintf(w, "💰 Costs:\n")
	for _, line := range []struct {
		name  string
		value string
	}{
		{"Production", c.Production.StringFixed(2)},
		{"Labor", c.Labor.StringFixed(2)},
		{"Transport", c.Transport.StringFixed(2)},
		{"Holding", c.Holding.StringFixed(2)},
		{"Pallet entry", c.PalletEntry.StringFixed(2)},
		{"Shortage", c.Shortage.StringFixed(2)},
		{"Disposal", c.Disposal.StringFixed(2)},
		{"Changeover", c.Changeover.StringFixed(2)},
		{"Waste", c.Waste.StringFixed(2)},
		{"Penalty", c.Penalty.StringFixed(2)},
		{"Total", c.Total.StringFixed(2)},
	} {
		fmt.Fprintf(w, "  %-14s %12s\n", line.name, line.value)
	}

	if config.Verbose && len(run.Batches) > 0 {
		fmt.Fprintf(w, "\n📦 Batches: %d (allocation %s)\n", len(run.Batches), run.Allocation)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(run *dto.PlanRun, config Config) error {
	jsonData, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.stdout(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "plan_run.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per plan table
func generateCSVOutput(run *dto.PlanRun, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if run.Plan == nil {
		return fmt.Errorf("run %s has no plan to export (status %s)", run.ID, run.Status)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := []struct {
		file  string
		write func(*csv.Writer) error
	}{
		{"production.csv", func(w *csv.Writer) error { return writeProductionCSV(w, run.Plan.Production) }},
		{"shipments.csv", func(w *csv.Writer) error { return writeShipmentsCSV(w, run.Plan.Shipments) }},
		{"demand.csv", func(w *csv.Writer) error { return writeDemandCSV(w, run.Plan.Demand) }},
		{"batches.csv", func(w *csv.Writer) error { return writeBatchesCSV(w, run.Batches) }},
	}
	for _, table := range tables {
		filename := filepath.Join(config.OutputDir, table.file)
		if err := writeCSVFile(filename, table.write); err != nil {
			return fmt.Errorf("failed to write %s: %w", table.file, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.stdout(), "💾 %s\n", filename)
		}
	}
	return nil
}

func writeCSVFile(filename string, write func(*csv.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeProductionCSV(w *csv.Writer, rows []dto.ProductionRecord) error {
	if err := w.Write([]string{"date", "node", "product", "state", "quantity", "mixes"}); err != nil {
		return err
	}
	for _, p := range rows {
		if err := w.Write([]string{
			p.Date.Format(entities.DateLayout), string(p.Node), string(p.Product), p.State.String(),
			formatQuantity(p.Quantity), strconv.Itoa(p.Mixes),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeShipmentsCSV(w *csv.Writer, rows []dto.ShipmentRecord) error {
	if err := w.Write([]string{"departure_date", "delivery_date", "origin", "destination", "product", "mode", "arrival_state", "quantity"}); err != nil {
		return err
	}
	for _, s := range rows {
		if err := w.Write([]string{
			s.DepartureDate.Format(entities.DateLayout), s.DeliveryDate.Format(entities.DateLayout),
			string(s.Origin), string(s.Destination), string(s.Product), s.Mode.String(), s.ArrivalState.String(),
			formatQuantity(s.Quantity),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeDemandCSV(w *csv.Writer, rows []dto.DemandRecord) error {
	if err := w.Write([]string{"date", "node", "product", "demand", "from_ambient", "from_thawed", "shortage"}); err != nil {
		return err
	}
	for _, d := range rows {
		if err := w.Write([]string{
			d.Date.Format(entities.DateLayout), string(d.Node), string(d.Product),
			formatQuantity(d.Demand), formatQuantity(d.FromAmbient), formatQuantity(d.FromThawed), formatQuantity(d.Shortage),
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeBatchesCSV(w *csv.Writer, batches []*entities.Batch) error {
	if err := w.Write([]string{"id", "parent_id", "product", "origin", "production_date", "state", "location", "quantity", "initial_quantity"}); err != nil {
		return err
	}
	for _, b := range batches {
		if err := w.Write([]string{
			b.ID, b.ParentID, string(b.Product), string(b.Origin), b.ProductionDate.Format(entities.DateLayout),
			b.State.String(), string(b.Location), formatQuantity(b.Quantity), formatQuantity(b.InitialQuantity),
		}); err != nil {
			return err
		}
	}
	return nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
