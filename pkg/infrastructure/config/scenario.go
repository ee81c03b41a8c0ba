// Package config reads planning scenarios from YAML files. A scenario carries
// the horizon, model and solver settings, the network, and the demand, labor
// and inventory tables, which may instead be referenced as CSV files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned when a scenario cannot be converted into
// planning input
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is the on-disk description of one planning run
type Scenario struct {
	Name       string           `yaml:"name,omitempty"`
	Horizon    HorizonConfig    `yaml:"horizon,omitempty"`
	Model      ModelConfig      `yaml:"model,omitempty"`
	Solver     SolverConfig     `yaml:"solver,omitempty"`
	Allocation string           `yaml:"allocation,omitempty"`
	ShelfLife  *ShelfLifeConfig `yaml:"shelf_life,omitempty"`
	Costs      CostConfig       `yaml:"costs,omitempty"`
	Network    NetworkConfig    `yaml:"network,omitempty"`
	Labor      LaborConfig      `yaml:"labor,omitempty"`
	Inventory  InventoryConfig  `yaml:"inventory,omitempty"`
	Demand     DemandConfig     `yaml:"demand,omitempty"`

	// baseDir resolves relative CSV file references
	baseDir string
}

type HorizonConfig struct {
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

// ModelConfig mirrors the model's feature flags. AllowShortages defaults to true.
type ModelConfig struct {
	AllowShortages        *bool `yaml:"allow_shortages,omitempty"`
	PalletTracking        bool  `yaml:"pallet_tracking,omitempty"`
	PalletEntryFees       bool  `yaml:"pallet_entry_fees,omitempty"`
	TrackChangeovers      bool  `yaml:"track_changeovers,omitempty"`
	AllowNewStockDisposal bool  `yaml:"allow_new_stock_disposal,omitempty"`
}

// SolverConfig overrides solver limits; zero values keep the defaults
type SolverConfig struct {
	TimeLimit    time.Duration `yaml:"time_limit,omitempty"`
	GapTolerance float64       `yaml:"gap_tolerance,omitempty"`
	MaxNodes     int           `yaml:"max_nodes,omitempty"`
}

type ShelfLifeConfig struct {
	Ambient int `yaml:"ambient,omitempty"`
	Frozen  int `yaml:"frozen,omitempty"`
	Thawed  int `yaml:"thawed,omitempty"`
}

type CostConfig struct {
	ProductionPerUnit        float64 `yaml:"production_per_unit,omitempty"`
	StorageFrozenPerPallet   float64 `yaml:"storage_frozen_per_pallet_day,omitempty"`
	StorageAmbientPerPallet  float64 `yaml:"storage_ambient_per_pallet_day,omitempty"`
	EntryFrozenPerPallet     float64 `yaml:"entry_frozen_per_pallet,omitempty"`
	EntryAmbientPerPallet    float64 `yaml:"entry_ambient_per_pallet,omitempty"`
	ShortagePerUnit          float64 `yaml:"shortage_per_unit,omitempty"`
	DisposalPerUnit          float64 `yaml:"disposal_per_unit,omitempty"`
	WasteMultiplier          float64 `yaml:"waste_multiplier,omitempty"`
	ChangeoverPerStart       float64 `yaml:"changeover_per_start,omitempty"`
	ChangeoverYieldLossUnits float64 `yaml:"changeover_yield_loss_units,omitempty"`
	ChangeoverHours          float64 `yaml:"changeover_hours,omitempty"`
	ProducedIndicatorPenalty float64 `yaml:"produced_indicator_penalty,omitempty"`
}

type NetworkConfig struct {
	Nodes    []NodeConfig    `yaml:"nodes,omitempty"`
	Routes   []RouteConfig   `yaml:"routes,omitempty"`
	Trucks   []TruckConfig   `yaml:"trucks,omitempty"`
	Products []ProductConfig `yaml:"products,omitempty"`
}

type NodeConfig struct {
	ID                 string  `yaml:"id,omitempty"`
	Name               string  `yaml:"name,omitempty"`
	Produces           bool    `yaml:"produces,omitempty"`
	Ambient            bool    `yaml:"ambient,omitempty"`
	Frozen             bool    `yaml:"frozen,omitempty"`
	Demand             bool    `yaml:"demand,omitempty"`
	ProductionRate     float64 `yaml:"production_rate,omitempty"`
	StorageCapacity    float64 `yaml:"storage_capacity,omitempty"`
	MaxDailyProduction float64 `yaml:"max_daily_production,omitempty"`
}

type RouteConfig struct {
	ID          string  `yaml:"id,omitempty"`
	Origin      string  `yaml:"origin,omitempty"`
	Destination string  `yaml:"destination,omitempty"`
	TransitDays float64 `yaml:"transit_days,omitempty"`
	Mode        string  `yaml:"mode,omitempty"`
	CostPerUnit float64 `yaml:"cost_per_unit,omitempty"`
}

type TruckConfig struct {
	ID             string   `yaml:"id,omitempty"`
	Origin         string   `yaml:"origin,omitempty"`
	Destination    string   `yaml:"destination,omitempty"`
	Stops          []string `yaml:"stops,omitempty"`
	Days           []string `yaml:"days,omitempty"`
	PalletCapacity int      `yaml:"pallet_capacity,omitempty"`
}

type ProductConfig struct {
	ID             string `yaml:"id,omitempty"`
	Name           string `yaml:"name,omitempty"`
	MixSize        int    `yaml:"mix_size,omitempty"`
	UnitsPerPallet int    `yaml:"units_per_pallet,omitempty"`
}

// LaborConfig lists labor days inline or references a CSV file; both may be
// given and are concatenated
type LaborConfig struct {
	File string           `yaml:"file,omitempty"`
	Days []LaborDayConfig `yaml:"days,omitempty"`
}

type LaborDayConfig struct {
	Date         string  `yaml:"date,omitempty"`
	FixedHours   float64 `yaml:"fixed_hours,omitempty"`
	MaxHours     float64 `yaml:"max_hours,omitempty"`
	RegularRate  float64 `yaml:"regular_rate,omitempty"`
	OvertimeRate float64 `yaml:"overtime_rate,omitempty"`
	NonFixedRate float64 `yaml:"non_fixed_rate,omitempty"`
	MinimumHours float64 `yaml:"minimum_hours,omitempty"`
}

// InventoryConfig is the initial stock snapshot. Snapshot defaults to the
// horizon start.
type InventoryConfig struct {
	Snapshot string                 `yaml:"snapshot,omitempty"`
	File     string                 `yaml:"file,omitempty"`
	Entries  []InventoryEntryConfig `yaml:"entries,omitempty"`
}

type InventoryEntryConfig struct {
	Node     string  `yaml:"node,omitempty"`
	Product  string  `yaml:"product,omitempty"`
	State    string  `yaml:"state,omitempty"`
	Quantity float64 `yaml:"quantity,omitempty"`
}

type DemandConfig struct {
	File    string              `yaml:"file,omitempty"`
	Entries []DemandEntryConfig `yaml:"entries,omitempty"`
}

type DemandEntryConfig struct {
	Node     string  `yaml:"node,omitempty"`
	Product  string  `yaml:"product,omitempty"`
	Date     string  `yaml:"date,omitempty"`
	Quantity float64 `yaml:"quantity,omitempty"`
}

// LoadScenario reads a scenario file; CSV references resolve relative to its
// directory
func LoadScenario(path string) (*Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario %s: %w", path, err)
	}
	defer file.Close()
	return ReadScenario(file, filepath.Dir(path))
}

// ReadScenario decodes a scenario from YAML (or JSON, which YAML accepts).
// Unknown keys are rejected.
func ReadScenario(r io.Reader, baseDir string) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	s.baseDir = baseDir
	return &s, nil
}

func (s *Scenario) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.baseDir == "" {
		return path
	}
	return filepath.Join(s.baseDir, path)
}

// ReferencesFiles reports whether any table is loaded from a CSV file
func (s *Scenario) ReferencesFiles() bool {
	return s.Demand.File != "" || s.Labor.File != "" || s.Inventory.File != ""
}
