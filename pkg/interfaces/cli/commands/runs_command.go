package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/perishplan/pkg/interfaces/cli/output"
)

// RunsConfig holds configuration for browsing saved runs
type RunsConfig struct {
	DatabasePath string
	// ID shows one run in Format; empty lists every run
	ID     string
	Format string
	Stdout io.Writer
}

// RunsCommand lists or shows plan runs saved in a SQLite database
type RunsCommand struct {
	config RunsConfig
}

// NewRunsCommand creates a new runs command
func NewRunsCommand(config RunsConfig) *RunsCommand {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	return &RunsCommand{config: config}
}

// Execute runs the runs command
func (c *RunsCommand) Execute(ctx context.Context) error {
	if c.config.DatabasePath == "" {
		return fmt.Errorf("validation error: must specify -db file")
	}
	repo, err := sqlite.Open(c.config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open plan database: %w", err)
	}
	defer repo.Close()

	if c.config.ID != "" {
		run, err := repo.Get(ctx, c.config.ID)
		if err != nil {
			return err
		}
		return output.Generate(run, output.Config{Format: c.config.Format, Stdout: c.config.Stdout})
	}

	summaries, err := repo.List(ctx)
	if err != nil {
		return err
	}
	w := c.config.Stdout
	fmt.Fprintf(w, "%-36s %-20s %-20s %-10s %12s %10s\n", "ID", "Name", "Created", "Status", "Objective", "Fill Rate")
	fmt.Fprintf(w, "%-36s %-20s %-20s %-10s %12s %10s\n",
		"------------------------------------", "--------------------", "--------------------", "----------", "------------", "----------")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-36s %-20s %-20s %-10s %12.2f %9.1f%%\n",
			s.ID, s.Name, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Status, s.Objective, s.FillRate*100)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(summaries))
	return nil
}
