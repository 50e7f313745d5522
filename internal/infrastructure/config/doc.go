// Package config handles loading and validating Gray Logic DB configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Configuration shape:
//
//	database:
//	  target: "./data/graylogic.db"   # or ":memory:"
//	  create_if_missing: true
//	  busy_timeout: 5                 # seconds
//	  foreign_keys: true
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text, console
//	  output: "stdout"   # stdout, stderr
//	  file:
//	    path: ""         # set to also log to a rotating file
//
// Environment overrides follow the pattern GRAYLOGICDB_SECTION_KEY, for
// example GRAYLOGICDB_DATABASE_TARGET and GRAYLOGICDB_LOG_LEVEL.
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Target)
package config
