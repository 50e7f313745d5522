package sqlite

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Connection setup constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds for the busy_timeout pragma.
	msPerSecond = 1000
)

// MemoryPath is the reserved target that selects an in-process, non-persistent
// database instead of a file on disk.
const MemoryPath = ":memory:"

// Config contains settings for opening a connection.
// These map to the database section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite database file, or MemoryPath
	// for an in-process database.
	Path string

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	// Prevents "database is locked" errors under contention.
	BusyTimeout int

	// ForeignKeys enables foreign key constraint enforcement.
	ForeignKeys bool
}

// Conn is the closed set of operations a connection supports. Only the names
// declared here are reachable through the confinement proxy; there is no
// dynamic passthrough to the underlying driver.
type Conn interface {
	// Cursor creates a new cursor bound to this connection.
	Cursor() (Cursor, error)

	// Execute creates a cursor, executes the statement on it, and returns it.
	Execute(query string, args ...any) (Cursor, error)

	// ExecuteScript executes a script of semicolon-separated statements.
	ExecuteScript(script string) error

	// Begin starts an explicit transaction.
	Begin() error

	// Commit commits the current transaction. A no-op in autocommit mode.
	Commit() error

	// Rollback rolls back the current transaction. A no-op in autocommit mode.
	Rollback() error

	// Close releases the physical connection. Safe to call twice.
	Close() error

	// RegisterFunc registers a custom SQL function on this connection.
	// The impl signature follows mattn/go-sqlite3 RegisterFunc rules.
	RegisterFunc(name string, impl any, pure bool) error

	// Interrupt aborts the statement currently executing on this connection.
	// Unlike every other operation, it is safe from any goroutine.
	Interrupt()

	// Ping verifies the connection is alive by running a trivial query.
	Ping() error

	// TotalChanges reports the number of rows modified since the connection
	// was opened.
	TotalChanges() (int64, error)

	// AutoCommit reports whether the connection is outside an explicit
	// transaction.
	AutoCommit() bool

	// BusyTimeout reports the current busy_timeout setting.
	BusyTimeout() (time.Duration, error)

	// SetBusyTimeout changes the busy_timeout setting.
	SetBusyTimeout(d time.Duration) error

	// ReplaceInvalidUTF8 reports whether fetched text has invalid UTF-8
	// byte sequences replaced with U+FFFD.
	ReplaceInvalidUTF8() bool

	// SetReplaceInvalidUTF8 toggles the text replacement policy.
	SetReplaceInvalidUTF8(on bool)
}

// conn is the direct (non-confined) implementation of Conn over a raw
// mattn/go-sqlite3 driver connection.
type conn struct {
	raw    *sqlite3.SQLiteConn
	closed bool

	// Interrupt epoch. Every statement runs under the current context; an
	// Interrupt cancels it, which makes the driver issue sqlite3_interrupt
	// out-of-band. This is the only state touched from foreign goroutines.
	mu        sync.Mutex
	intCtx    context.Context
	intCancel context.CancelFunc

	replaceInvalidUTF8 bool
}

// Open opens a new physical connection with the specified configuration.
//
// For file-backed targets it creates the parent directory if needed and sets
// owner-only permissions on the database file. The file itself is created if
// it does not exist; existence policy belongs to the pool layer, not here.
//
// Session initialisation registers the pow(x, y) SQL function and enables the
// invalid-UTF-8 replacement policy for fetched text.
func Open(cfg Config) (Conn, error) {
	if cfg.Path != MemoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, dirPermissions); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	drv := &sqlite3.SQLiteDriver{}
	ci, err := drv.Open(buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	raw, ok := ci.(*sqlite3.SQLiteConn)
	if !ok {
		_ = ci.Close()
		return nil, fmt.Errorf("opening database: unexpected driver connection %T", ci)
	}

	c := &conn{raw: raw, replaceInvalidUTF8: true}
	c.intCtx, c.intCancel = context.WithCancel(context.Background())

	if err := c.initSession(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("initialising session: %w", err)
	}

	if cfg.Path != MemoryPath {
		// Ignore error - file might not exist yet until the first write.
		_ = os.Chmod(cfg.Path, filePermissions)
	}

	return c, nil
}

// buildDSN builds the driver DSN from the configuration.
// See: https://github.com/mattn/go-sqlite3#connection-string
func buildDSN(cfg Config) string {
	if cfg.Path == MemoryPath {
		return MemoryPath
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, cfg.BusyTimeout*msPerSecond)
	if cfg.ForeignKeys {
		dsn += "&_foreign_keys=on"
	}
	return dsn
}

// initSession applies per-connection session state that SQLite does not
// persist in the database file.
func (c *conn) initSession() error {
	if err := c.raw.RegisterFunc("pow", math.Pow, true); err != nil {
		return fmt.Errorf("registering pow: %w", err)
	}
	return nil
}

// opCtx returns the context for the current interrupt epoch.
func (c *conn) opCtx() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intCtx
}

// exec runs a statement that produces no result set.
func (c *conn) exec(query string, args []driver.NamedValue) (driver.Result, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	return c.raw.ExecContext(c.opCtx(), query, args)
}

// query runs a statement and returns its driver row stream.
func (c *conn) query(query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	return c.raw.QueryContext(c.opCtx(), query, args)
}

// queryInt64 runs a single-value query and returns the value.
// Used for change counters and pragma reads.
func (c *conn) queryInt64(query string) (int64, error) {
	rows, err := c.query(query, nil)
	if err != nil {
		return 0, err
	}
	defer rows.Close() //nolint:errcheck // Read-only single-row statement

	dest := make([]driver.Value, len(rows.Columns()))
	if err := rows.Next(dest); err != nil {
		return 0, fmt.Errorf("reading %q: %w", query, err)
	}
	n, ok := dest[0].(int64)
	if !ok {
		return 0, fmt.Errorf("reading %q: unexpected value type %T", query, dest[0])
	}
	return n, nil
}

func (c *conn) Cursor() (Cursor, error) {
	if c.closed {
		return nil, ErrConnClosed
	}
	return newCursor(c), nil
}

func (c *conn) Execute(query string, args ...any) (Cursor, error) {
	cur, err := c.Cursor()
	if err != nil {
		return nil, err
	}
	if err := cur.Execute(query, args...); err != nil {
		_ = cur.Close()
		return nil, err
	}
	return cur, nil
}

func (c *conn) ExecuteScript(script string) error {
	// The driver executes multi-statement strings in sequence.
	_, err := c.exec(script, nil)
	return err
}

func (c *conn) Begin() error {
	_, err := c.exec("BEGIN", nil)
	return err
}

func (c *conn) Commit() error {
	if c.closed {
		return ErrConnClosed
	}
	if c.raw.AutoCommit() {
		return nil
	}
	_, err := c.exec("COMMIT", nil)
	return err
}

func (c *conn) Rollback() error {
	if c.closed {
		return ErrConnClosed
	}
	if c.raw.AutoCommit() {
		return nil
	}
	_, err := c.exec("ROLLBACK", nil)
	return err
}

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.mu.Lock()
	cancel := c.intCancel
	c.mu.Unlock()
	cancel()
	if err := c.raw.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}

func (c *conn) RegisterFunc(name string, impl any, pure bool) error {
	if c.closed {
		return ErrConnClosed
	}
	if err := c.raw.RegisterFunc(name, impl, pure); err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}
	return nil
}

func (c *conn) Interrupt() {
	c.mu.Lock()
	cancel := c.intCancel
	c.intCtx, c.intCancel = context.WithCancel(context.Background())
	c.mu.Unlock()
	cancel()
}

func (c *conn) Ping() error {
	_, err := c.queryInt64("SELECT 1")
	return err
}

func (c *conn) TotalChanges() (int64, error) {
	return c.queryInt64("SELECT total_changes()")
}

func (c *conn) AutoCommit() bool {
	if c.closed {
		return true
	}
	return c.raw.AutoCommit()
}

func (c *conn) BusyTimeout() (time.Duration, error) {
	ms, err := c.queryInt64("PRAGMA busy_timeout")
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (c *conn) SetBusyTimeout(d time.Duration) error {
	_, err := c.exec(fmt.Sprintf("PRAGMA busy_timeout = %d", d.Milliseconds()), nil)
	return err
}

func (c *conn) ReplaceInvalidUTF8() bool {
	return c.replaceInvalidUTF8
}

func (c *conn) SetReplaceInvalidUTF8(on bool) {
	c.replaceInvalidUTF8 = on
}

// drainNoResult steps a zero-column statement to completion. The driver only
// executes on the first row fetch, so a statement that produces no rows still
// needs one step before it has run.
func drainNoResult(rows driver.Rows) error {
	err := rows.Next(make([]driver.Value, 0))
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}
