package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/perishplan/pkg/domain/entities"
	"github.com/vsinha/perishplan/pkg/infrastructure/config"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Plants    int    // Number of manufacturing sites
	Hubs      int    // Number of ambient/frozen hubs
	Stores    int    // Number of demand locations
	Products  int    // Number of SKUs
	Days      int    // Planning horizon length
	Start     string // First planning day (YYYY-MM-DD)
	OutputDir string // Output directory for generated files
	Seed      int64  // Random seed for reproducible generation
	Help      bool   // Show help
	Verbose   bool   // Verbose output
	Stdout    io.Writer
}

// GenerateCommand writes a random but solvable-shaped planning scenario
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	start  time.Time
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	out := cmd.config.Stdout
	if cmd.config.Verbose {
		fmt.Fprintf(out, "🔧 Generating scenario with %d plants, %d hubs, %d stores, %d products over %d days\n",
			cmd.config.Plants, cmd.config.Hubs, cmd.config.Stores, cmd.config.Products, cmd.config.Days)
		fmt.Fprintf(out, "📁 Output directory: %s\n", cmd.config.OutputDir)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	scenario := cmd.generateScenario()

	if cmd.config.Verbose {
		fmt.Fprintln(out, "📋 Generating demand.csv...")
	}
	rows, err := cmd.generateDemand(scenario.Network)
	if err != nil {
		return fmt.Errorf("failed to generate demand: %w", err)
	}
	if rows == 0 {
		scenario.Demand.File = ""
	}

	if cmd.config.Verbose {
		fmt.Fprintln(out, "👷 Generating labor.csv...")
	}
	if err := cmd.generateLabor(); err != nil {
		return fmt.Errorf("failed to generate labor: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintln(out, "📦 Generating inventory.csv...")
	}
	if rows, err = cmd.generateInventory(scenario.Network); err != nil {
		return fmt.Errorf("failed to generate inventory: %w", err)
	}
	if rows == 0 {
		scenario.Inventory.File = ""
	}

	data, err := yaml.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cmd.config.OutputDir, "scenario.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(out, "✅ Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	c := cmd.config
	if c.OutputDir == "" {
		return fmt.Errorf("must specify -output directory")
	}
	if c.Plants < 1 || c.Stores < 1 || c.Products < 1 || c.Days < 1 || c.Hubs < 0 {
		return fmt.Errorf("plants, stores, products and days must be positive")
	}
	start := c.Start
	if start == "" {
		start = "2025-01-06"
	}
	t, err := time.Parse(entities.DateLayout, start)
	if err != nil {
		return fmt.Errorf("invalid start date %q", c.Start)
	}
	cmd.start = t
	return nil
}

// generateScenario builds the network: every plant feeds every hub, each
// store hangs off one hub, and some stores also get a direct lane
func (cmd *GenerateCommand) generateScenario() *config.Scenario {
	c := cmd.config
	s := &config.Scenario{
		Name: fmt.Sprintf("generated-%dp-%dh-%ds", c.Plants, c.Hubs, c.Stores),
		Horizon: config.HorizonConfig{
			Start: cmd.start.Format(entities.DateLayout),
			End:   entities.AddDays(cmd.start, c.Days-1).Format(entities.DateLayout),
		},
		Solver: config.SolverConfig{TimeLimit: 60 * time.Second},
		Costs: config.CostConfig{
			ProductionPerUnit:        1,
			StorageAmbientPerPallet:  0.5,
			StorageFrozenPerPallet:   0.8,
			ShortagePerUnit:          10,
			DisposalPerUnit:          15,
			WasteMultiplier:          1.5,
			ChangeoverPerStart:       20,
			ChangeoverYieldLossUnits: 5,
			ChangeoverHours:          0.5,
		},
		Labor:     config.LaborConfig{File: "labor.csv"},
		Inventory: config.InventoryConfig{File: "inventory.csv"},
		Demand:    config.DemandConfig{File: "demand.csv"},
	}

	var plants, hubs, stores []string
	for i := 1; i <= c.Plants; i++ {
		id := fmt.Sprintf("PLANT_%02d", i)
		plants = append(plants, id)
		s.Network.Nodes = append(s.Network.Nodes, config.NodeConfig{
			ID: id, Produces: true, Ambient: true,
			Frozen:         cmd.rand.Intn(2) == 0,
			ProductionRate: float64(100 + 50*cmd.rand.Intn(5)),
		})
	}
	for i := 1; i <= c.Hubs; i++ {
		id := fmt.Sprintf("HUB_%02d", i)
		hubs = append(hubs, id)
		s.Network.Nodes = append(s.Network.Nodes, config.NodeConfig{ID: id, Ambient: true, Frozen: true})
	}
	for i := 1; i <= c.Stores; i++ {
		id := fmt.Sprintf("STORE_%03d", i)
		stores = append(stores, id)
		s.Network.Nodes = append(s.Network.Nodes, config.NodeConfig{ID: id, Ambient: true, Demand: true})
	}

	addRoute := func(origin, dest string, transit float64, mode string) {
		s.Network.Routes = append(s.Network.Routes, config.RouteConfig{
			ID:          origin + "-" + dest,
			Origin:      origin,
			Destination: dest,
			TransitDays: transit,
			Mode:        mode,
			CostPerUnit: 0.1 + float64(cmd.rand.Intn(5))*0.05,
		})
	}
	for _, p := range plants {
		for _, h := range hubs {
			addRoute(p, h, 1, "ambient")
			s.Network.Trucks = append(s.Network.Trucks, config.TruckConfig{
				ID:             "T-" + p + "-" + h,
				Origin:         p,
				Destination:    h,
				Days:           []string{"mon", "tue", "wed", "thu", "fri"},
				PalletCapacity: 26,
			})
		}
	}
	for _, st := range stores {
		if len(hubs) > 0 {
			mode := "ambient"
			if cmd.rand.Intn(10) < 3 {
				mode = "frozen"
			}
			transit := 1.0
			if cmd.rand.Intn(4) == 0 {
				transit = 0.5
			}
			addRoute(hubs[cmd.rand.Intn(len(hubs))], st, transit, mode)
		}
		if len(hubs) == 0 || cmd.rand.Intn(3) == 0 {
			addRoute(plants[cmd.rand.Intn(len(plants))], st, float64(1+cmd.rand.Intn(2)), "ambient")
		}
	}

	for i := 1; i <= c.Products; i++ {
		mix := 0
		if cmd.rand.Intn(2) == 0 {
			mix = 20 * (1 + cmd.rand.Intn(3))
		}
		s.Network.Products = append(s.Network.Products, config.ProductConfig{
			ID:             fmt.Sprintf("SKU_%02d", i),
			MixSize:        mix,
			UnitsPerPallet: 80 + 20*cmd.rand.Intn(3),
		})
	}
	return s
}

func (cmd *GenerateCommand) create(name string) (*os.File, error) {
	return os.Create(filepath.Join(cmd.config.OutputDir, name))
}

// generateDemand creates the demand.csv file; stores see no demand on Sundays.
// It returns the number of rows written.
func (cmd *GenerateCommand) generateDemand(network config.NetworkConfig) (int, error) {
	file, err := cmd.create("demand.csv")
	if err != nil {
		return 0, err
	}
	defer file.Close()

	rows := 0
	fmt.Fprintln(file, "node,product,date,quantity")
	for _, n := range network.Nodes {
		if !n.Demand {
			continue
		}
		for _, p := range network.Products {
			for d := 0; d < cmd.config.Days; d++ {
				date := entities.AddDays(cmd.start, d)
				if date.Weekday() == time.Sunday {
					continue
				}
				qty := 10 * (2 + cmd.rand.Intn(10))
				fmt.Fprintf(file, "%s,%s,%s,%d\n", n.ID, p.ID, date.Format(entities.DateLayout), qty)
				rows++
			}
		}
	}
	return rows, nil
}

// generateLabor creates the labor.csv file: fixed weekday shifts, weekends on
// call with a four hour minimum
func (cmd *GenerateCommand) generateLabor() error {
	file, err := cmd.create("labor.csv")
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintln(file, "date,fixed_hours,max_hours,regular_rate,overtime_rate,non_fixed_rate,minimum_hours")
	for d := 0; d < cmd.config.Days; d++ {
		date := entities.AddDays(cmd.start, d)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			fmt.Fprintf(file, "%s,0,10,0,0,45,4\n", date.Format(entities.DateLayout))
			continue
		}
		fmt.Fprintf(file, "%s,12,14,25,37.5,0,0\n", date.Format(entities.DateLayout))
	}
	return nil
}

// generateInventory creates the inventory.csv file with frozen stock at every
// hub and ambient stock at some stores
func (cmd *GenerateCommand) generateInventory(network config.NetworkConfig) (int, error) {
	file, err := cmd.create("inventory.csv")
	if err != nil {
		return 0, err
	}
	defer file.Close()

	rows := 0
	fmt.Fprintln(file, "node,product,state,quantity")
	for _, n := range network.Nodes {
		if n.Produces {
			continue
		}
		state := "ambient"
		if n.Frozen {
			state = "frozen"
		}
		for _, p := range network.Products {
			if !n.Frozen && cmd.rand.Intn(2) == 0 {
				continue
			}
			fmt.Fprintf(file, "%s,%s,%s,%d\n", n.ID, p.ID, state, 20*(1+cmd.rand.Intn(10)))
			rows++
		}
	}
	return rows, nil
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.config.Stdout, `Planning Scenario Generator

USAGE:
    planner generate [OPTIONS]

OPTIONS:
    -plants <N>       Number of manufacturing sites (default: 1)
    -hubs <N>         Number of hubs (default: 2)
    -stores <N>       Number of stores (default: 6)
    -products <N>     Number of products (default: 2)
    -days <N>         Horizon length in days (default: 14)
    -start <DATE>     First planning day (default: 2025-01-06)
    -output <DIR>     Output directory for generated files (required)
    -seed <N>         Random seed for reproducible generation (optional)
    -verbose          Enable verbose output
    -help             Show this help message

EXAMPLES:
    # Generate a small two-week scenario
    planner generate -output ./scenarios/small

    # Generate a larger reproducible scenario
    planner generate -plants 2 -hubs 4 -stores 40 -products 6 -days 28 -seed 12345 -output ./scenarios/large`)
}
