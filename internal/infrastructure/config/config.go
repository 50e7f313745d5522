package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic DB.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains SQLite connection management settings.
type DatabaseConfig struct {
	// Target is the database to manage: a filesystem path, or ":memory:"
	// for the process-wide shared in-memory database.
	Target string `yaml:"target"`

	// CreateIfMissing permits creating the database file when it does not
	// exist. Has no effect on the in-memory target.
	CreateIfMissing bool `yaml:"create_if_missing"`

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	// Prevents "database is locked" errors under contention.
	BusyTimeout int `yaml:"busy_timeout"`

	// ForeignKeys enables foreign key constraint enforcement.
	ForeignKeys bool `yaml:"foreign_keys"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// When Path is set, log entries are additionally written to a rotating file.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load loads configuration from a YAML file.
//
// Loading order: built-in defaults, then the YAML file, then environment
// variable overrides (GRAYLOGICDB_SECTION_KEY, e.g. GRAYLOGICDB_DATABASE_TARGET),
// then validation.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Target:          "./data/graylogic.db",
			CreateIfMissing: true,
			BusyTimeout:     5,
			ForeignKeys:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGICDB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAYLOGICDB_DATABASE_TARGET"); v != "" {
		cfg.Database.Target = v
	}
	if v := os.Getenv("GRAYLOGICDB_DATABASE_CREATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.CreateIfMissing = b
		}
	}

	// Logging
	if v := os.Getenv("GRAYLOGICDB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GRAYLOGICDB_LOG_FILE"); v != "" {
		cfg.Logging.File.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Target == "" {
		errs = append(errs, "database.target is required")
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, "database.busy_timeout must not be negative")
	}

	// Logging validation
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.File.MaxSize < 0 || c.Logging.File.MaxBackups < 0 || c.Logging.File.MaxAge < 0 {
		errs = append(errs, "logging.file sizes and ages must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBusyTimeout returns the database busy timeout as a Duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeout) * time.Second
}
