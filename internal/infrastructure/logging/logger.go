package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nerrad567/gray-logic-db/internal/infrastructure/config"
)

// File rotation defaults, applied when the config leaves them zero.
const (
	defaultFileMaxSize    = 5  // megabytes
	defaultFileMaxBackups = 3  // files
	defaultFileMaxAge     = 28 // days
)

// Logger wraps slog.Logger with Gray Logic DB-specific functionality.
//
// It provides structured logging with default fields and level-based filtering.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified configuration.
//
// It configures:
//   - Output format (JSON for production, text or colourised console for
//     development)
//   - Log level filtering
//   - Default fields (service name, version)
//   - Output destination, plus an optional rotating log file
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	// Determine output writer
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	// Parse log level
	level := parseLevel(cfg.Level)

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	case "console":
		handler = tint.NewHandler(output, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	// Mirror entries to a rotating file when configured
	if cfg.File.Path != "" {
		fileHandler := slog.NewJSONHandler(newFileWriter(cfg.File), opts)
		handler = newTeeHandler(handler, fileHandler)
	}

	// Add default fields
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "graylogic-db"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// newFileWriter builds the rotating file writer for file-based logging.
func newFileWriter(cfg config.FileLoggingConfig) io.Writer {
	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = defaultFileMaxSize
	}
	maxBackups := cfg.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultFileMaxBackups
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = defaultFileMaxAge
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   cfg.Compress,
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
//
// Parameters:
//   - args: Key-value pairs to add as default attributes
//
// Returns:
//   - *Logger: New logger with added attributes
//
// Example:
//
//	poolLogger := logger.With("component", "pool")
//	poolLogger.Info("connected") // Includes component=pool
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in JSON format at info level.
// It should only be used during early startup before config is available.
//
// Returns:
//   - *Logger: Default logger
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
