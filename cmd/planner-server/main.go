package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vsinha/perishplan/pkg/application/services/orchestration"
	"github.com/vsinha/perishplan/pkg/domain/repositories"
	"github.com/vsinha/perishplan/pkg/infrastructure/events"
	"github.com/vsinha/perishplan/pkg/infrastructure/metrics"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/perishplan/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/perishplan/pkg/interfaces/api"
)

func main() {
	var (
		port      = flag.Int("port", 8080, "HTTP server port")
		dbPath    = flag.String("db", "plans.db", `SQLite database path ("" keeps runs in memory)`)
		maxSolves = flag.Int("max-solves", 2, "Maximum concurrent solves")
		origins   = flag.String("cors-origins", "", "Comma-separated allowed CORS origins")
		keepRuns  = flag.Int("event-runs", events.DefaultRetention, "Number of runs whose events are kept in memory")
		logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *port, *dbPath, *maxSolves, *keepRuns, *origins); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, port int, dbPath string, maxSolves, keepRuns int, origins string) error {
	var plans repositories.PlanRepository = memory.NewPlanRepository()
	if dbPath != "" {
		repo, err := sqlite.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open plan database: %w", err)
		}
		defer repo.Close()
		plans = repo
	}

	store := events.NewInMemoryEventStore(logger, events.WithRetention(keepRuns))
	store.Subscribe(func(e events.Event) {
		logger.Warn("planning run did not produce a plan", "run", e.Run, "event", e.Type, "data", e.Data)
	}, events.PlanInfeasibleEvent, events.ValidationFailedEvent)
	recorder := metrics.NewRecorder()
	orchestrator := orchestration.NewPlanningOrchestrator(nil, logger,
		orchestration.WithRepository(plans),
		orchestration.WithEventStore(store),
		orchestration.WithMetrics(recorder))

	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	handler := api.NewHandler(orchestrator, plans, store, logger, maxSolves)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.NewRouter(handler, recorder.Handler(), allowed),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("planner server listening", "addr", srv.Addr, "db", dbPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
