package pool

import (
	"path/filepath"
	"runtime"

	"github.com/nerrad567/gray-logic-db/internal/sqlite"
)

// ConnectionPool is the lifecycle contract shared by both pool strategies.
type ConnectionPool interface {
	// Connect returns a usable connection, opening one if necessary.
	Connect() (sqlite.Conn, error)

	// Release returns a connection to a clean, reusable state.
	Release(conn sqlite.Conn) error

	// Drop retires a connection from the pool.
	Drop(conn sqlite.Conn) error

	// Stats reports the pool's current state.
	Stats() Stats
}

// Compile-time checks that both strategies satisfy the contract.
var (
	_ ConnectionPool = (*Pool)(nil)
	_ ConnectionPool = (*SharedPool)(nil)
)

// Options configures pool construction for file-backed targets.
type Options struct {
	// CreateIfMissing permits Connect to create the database file.
	CreateIfMissing bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int

	// ForeignKeys enables foreign key constraint enforcement.
	ForeignKeys bool

	// Logger receives pool lifecycle events. Nil disables logging. For the
	// ":memory:" target it reaches the shared worker only when this call is
	// the one that first constructs the process-wide pool.
	Logger Logger
}

// New routes a database target to the correct pool strategy.
//
// The reserved ":memory:" target selects the process-wide SharedPool. The
// shared database is created once per process, so only the constructing
// call's Logger applies and the file-oriented options never do. Every other
// value is treated as a file path; a relative path is
// resolved against the source file of New's caller, not the process working
// directory, so data files live next to the code that declares them.
func New(target string, opts Options) (ConnectionPool, error) {
	if target == sqlite.MemoryPath {
		return sharedWith(opts.Logger)
	}

	p := NewPool(sqlite.Config{
		Path:        absolutize(target, 1),
		BusyTimeout: opts.BusyTimeout,
		ForeignKeys: opts.ForeignKeys,
	}, opts.CreateIfMissing)
	p.SetLogger(opts.Logger)
	return p, nil
}

// absolutize resolves a relative database path against the source file of
// the caller, skip frames above the function calling absolutize. Absolute
// paths pass through untouched.
//
// When the caller's source location is unavailable (stripped binaries built
// with -trimpath record relative file names), the path falls back to being
// resolved against the working directory.
func absolutize(path string, skip int) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if _, file, _, ok := runtime.Caller(skip + 1); ok && filepath.IsAbs(file) {
		return filepath.Join(filepath.Dir(file), path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
