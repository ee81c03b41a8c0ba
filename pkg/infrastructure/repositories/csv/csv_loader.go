package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// Loader handles loading planning tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

var (
	demandHeader    = []string{"node", "product", "date", "quantity"}
	inventoryHeader = []string{"node", "product", "state", "quantity"}
	laborHeader     = []string{"date", "fixed_hours", "max_hours", "regular_rate", "overtime_rate", "non_fixed_rate", "minimum_hours"}
)

// LoadDemand loads demand entries from a CSV file
func (l *Loader) LoadDemand(filename string) ([]entities.DemandEntry, error) {
	var out []entities.DemandEntry
	err := l.loadFile(filename, "demand", func(r io.Reader) error {
		var err error
		out, err = l.ReadDemand(r)
		return err
	})
	return out, err
}

// ReadDemand parses demand rows: node, product, date, quantity
func (l *Loader) ReadDemand(r io.Reader) ([]entities.DemandEntry, error) {
	records, err := readTable(r, "demand", demandHeader)
	if err != nil {
		return nil, err
	}
	var out []entities.DemandEntry
	for i, record := range records {
		date, err := parseDate(record[2])
		if err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		qty, err := parseQuantity("quantity", record[3])
		if err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		out = append(out, entities.DemandEntry{
			Node:     entities.NodeID(record[0]),
			Product:  entities.ProductID(record[1]),
			Date:     date,
			Quantity: qty,
		})
	}
	return out, nil
}

// LoadInventory loads initial inventory entries from a CSV file
func (l *Loader) LoadInventory(filename string) ([]entities.InventoryEntry, error) {
	var out []entities.InventoryEntry
	err := l.loadFile(filename, "inventory", func(r io.Reader) error {
		var err error
		out, err = l.ReadInventory(r)
		return err
	})
	return out, err
}

// ReadInventory parses inventory rows: node, product, state, quantity. An
// empty state means the node's natural storage state.
func (l *Loader) ReadInventory(r io.Reader) ([]entities.InventoryEntry, error) {
	records, err := readTable(r, "inventory", inventoryHeader)
	if err != nil {
		return nil, err
	}
	var out []entities.InventoryEntry
	for i, record := range records {
		state, err := entities.ParseProductState(record[2])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		qty, err := parseQuantity("quantity", record[3])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		out = append(out, entities.InventoryEntry{
			Node:     entities.NodeID(record[0]),
			Product:  entities.ProductID(record[1]),
			State:    state,
			Quantity: qty,
		})
	}
	return out, nil
}

// LoadLabor loads per-day labor terms from a CSV file
func (l *Loader) LoadLabor(filename string) ([]entities.LaborDay, error) {
	var out []entities.LaborDay
	err := l.loadFile(filename, "labor", func(r io.Reader) error {
		var err error
		out, err = l.ReadLabor(r)
		return err
	})
	return out, err
}

// ReadLabor parses labor rows; blank numeric cells read as zero
func (l *Loader) ReadLabor(r io.Reader) ([]entities.LaborDay, error) {
	records, err := readTable(r, "labor", laborHeader)
	if err != nil {
		return nil, err
	}
	var out []entities.LaborDay
	for i, record := range records {
		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("labor CSV row %d: %w", i+2, err)
		}
		values := make([]float64, len(laborHeader)-1)
		for j := range values {
			if values[j], err = parseQuantity(laborHeader[j+1], record[j+1]); err != nil {
				return nil, fmt.Errorf("labor CSV row %d: %w", i+2, err)
			}
		}
		out = append(out, entities.LaborDay{
			Date:         date,
			FixedHours:   values[0],
			MaxHours:     values[1],
			RegularRate:  values[2],
			OvertimeRate: values[3],
			NonFixedRate: values[4],
			MinimumHours: values[5],
		})
	}
	return out, nil
}

func (l *Loader) loadFile(filename, table string, read func(io.Reader) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open %s file %s: %w", table, filename, err)
	}
	defer file.Close()
	return read(file)
}

// readTable reads every record, checks the header and column counts, and
// returns the data rows
func readTable(r io.Reader, table string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", table, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", table)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", table, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", table, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(entities.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", value)
	}
	return date, nil
}

func parseQuantity(field, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	q, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, value)
	}
	if q < 0 {
		return 0, fmt.Errorf("%s cannot be negative: %s", field, value)
	}
	return q, nil
}
