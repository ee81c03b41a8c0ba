package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/perishplan/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	name := "plan"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		name, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := parse(name, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parse(name string, args []string) (command, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	switch name {
	case "plan":
		var (
			scenario   = fs.String("scenario", "", "Path to scenario YAML file")
			outputDir  = fs.String("output", "", "Output directory for results (optional)")
			format     = fs.String("format", "text", "Output format: text, json, csv, svg")
			timeLimit  = fs.Duration("time-limit", 0, "Solver time limit (overrides the scenario)")
			allocation = fs.String("allocation", "", "Batch allocation: fefo, lp, none (overrides the scenario)")
			dbPath     = fs.String("db", "", "Save the run to this SQLite database (optional)")
			verbose    = fs.Bool("verbose", false, "Enable verbose output")
			logLevel   = fs.String("log-level", "warn", "Log level: debug, info, warn, error")
			help       = fs.Bool("help", false, "Show help message")
		)
		fs.Parse(args)

		logger, err := newLogger(*logLevel)
		if err != nil {
			return nil, err
		}
		return commands.NewPlanCommand(commands.Config{
			ScenarioFile: *scenario,
			OutputDir:    *outputDir,
			Format:       *format,
			TimeLimit:    *timeLimit,
			Allocation:   *allocation,
			DatabasePath: *dbPath,
			Verbose:      *verbose,
			Help:         *help,
		}, logger), nil

	case "generate":
		var (
			plants    = fs.Int("plants", 1, "Number of manufacturing sites")
			hubs      = fs.Int("hubs", 2, "Number of hubs")
			stores    = fs.Int("stores", 6, "Number of stores")
			products  = fs.Int("products", 2, "Number of products")
			days      = fs.Int("days", 14, "Horizon length in days")
			start     = fs.String("start", "2025-01-06", "First planning day")
			outputDir = fs.String("output", "", "Output directory for generated files")
			seed      = fs.Int64("seed", 0, "Random seed for reproducible generation")
			verbose   = fs.Bool("verbose", false, "Enable verbose output")
			help      = fs.Bool("help", false, "Show help message")
		)
		fs.Parse(args)

		return commands.NewGenerateCommand(commands.GenerateConfig{
			Plants:    *plants,
			Hubs:      *hubs,
			Stores:    *stores,
			Products:  *products,
			Days:      *days,
			Start:     *start,
			OutputDir: *outputDir,
			Seed:      *seed,
			Verbose:   *verbose,
			Help:      *help,
		}), nil

	case "runs":
		var (
			dbPath = fs.String("db", "", "SQLite database holding saved runs")
			id     = fs.String("id", "", "Show this run instead of listing")
			format = fs.String("format", "text", "Output format for -id: text, json, svg")
		)
		fs.Parse(args)

		return commands.NewRunsCommand(commands.RunsConfig{
			DatabasePath: *dbPath,
			ID:           *id,
			Format:       *format,
		}), nil

	default:
		return nil, fmt.Errorf("unknown command %q (want plan, generate or runs)", name)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
