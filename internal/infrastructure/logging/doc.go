// Package logging provides structured logging for Gray Logic DB.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text or colourised console output for development (human-readable)
//   - Optional rotating log file alongside console output
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text, console
//	  output: "stdout"   # stdout, stderr
//	  file:
//	    path: ""         # set to also log to a rotating file
//	    max_size: 5      # megabytes before rotation
//	    max_backups: 3
//	    max_age: 28      # days
//	    compress: false
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("pool connected", "target", cfg.Database.Target)
//	logger.Error("release failed", "error", err)
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys.
// Use field redaction for sensitive data:
//
//	logger.Info("API key used", "key_prefix", key[:8]+"...")
package logging
