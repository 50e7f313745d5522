// Gray Logic DB - Embedded SQLite Connection Manager
//
// This is the main entry point for the Gray Logic DB service.
// It manages SQLite connections for the Gray Logic platform:
//   - Per-thread pooling for file-backed databases
//   - A process-wide confined connection for the shared in-memory database
//   - Offline-first operation with no external dependencies
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-db/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-db/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-db/internal/pool"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic DB",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Select the pool strategy for the configured target
	p, err := pool.New(cfg.Database.Target, pool.Options{
		CreateIfMissing: cfg.Database.CreateIfMissing,
		BusyTimeout:     cfg.Database.BusyTimeout,
		ForeignKeys:     cfg.Database.ForeignKeys,
		Logger:          log.With("component", "pool"),
	})
	if err != nil {
		return fmt.Errorf("creating pool: %w", err)
	}

	// Open the connection
	conn, err := p.Connect()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() {
		log.Info("releasing database connection")
		if relErr := p.Release(conn); relErr != nil {
			log.Error("error releasing connection", "error", relErr)
		}
	}()

	// Verify the connection is healthy
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	stats := p.Stats()
	log.Info("database connected",
		"target", stats.Target,
		"live", stats.Live,
		"confined", stats.Confined,
	)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Release() returns the connection to the pool

	log.Info("Gray Logic DB stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGICDB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGICDB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
