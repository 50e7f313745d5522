package pool

import (
	"fmt"
	"os"

	"github.com/nerrad567/gray-logic-db/internal/sqlite"
)

// Logger defines the logging interface for pool lifecycle events.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Stats reports the state of a pool, in the spirit of sql.DBStats.
type Stats struct {
	// Target is the database the pool serves.
	Target string

	// Live is the number of open physical connections the pool owns (0 or 1).
	Live int

	// Confined reports whether access is marshalled through a confinement
	// worker.
	Confined bool
}

// Pool gives one caller its own physical connection to a file-backed
// database, opened lazily on first Connect.
//
// A Pool belongs to a single goroutine. Two goroutines wanting the same
// database file each construct their own Pool; the physical file is the only
// shared state between them. Sharing one Pool is not a supported contract,
// which is why none of its methods lock.
type Pool struct {
	cfg    sqlite.Config
	create bool
	conn   sqlite.Conn
	log    Logger
}

// NewPool creates a Pool for the file-backed database described by cfg.
// When create is false, Connect refuses to open a database file that does
// not already exist.
func NewPool(cfg sqlite.Config, create bool) *Pool {
	return &Pool{cfg: cfg, create: create, log: noopLogger{}}
}

// SetLogger sets the logger for pool lifecycle events.
func (p *Pool) SetLogger(log Logger) {
	if log != nil {
		p.log = log
	}
}

// Connect returns the pool's connection, opening it on first use.
//
// Returns ErrDatabaseNotFound when the file is missing and creation is not
// permitted; in that case nothing is stored and a later Connect may succeed
// once the file exists.
func (p *Pool) Connect() (sqlite.Conn, error) {
	if p.conn != nil {
		return p.conn, nil
	}

	if !p.create {
		if _, err := os.Stat(p.cfg.Path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, p.cfg.Path)
			}
			return nil, fmt.Errorf("checking database file: %w", err)
		}
	}

	conn, err := sqlite.Open(p.cfg)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.log.Debug("connection opened", "path", p.cfg.Path)
	return conn, nil
}

// Release returns the connection to a clean transactional state without
// closing it, so the next Connect reuses it.
//
// If the rollback fails the connection is treated as broken: it is dropped,
// and the rollback failure is still propagated, never swallowed.
func (p *Pool) Release(conn sqlite.Conn) error {
	if conn == nil || conn != p.conn {
		return ErrForeignConn
	}
	if err := conn.Rollback(); err != nil {
		p.log.Warn("rollback failed on release, dropping connection",
			"path", p.cfg.Path,
			"error", err,
		)
		_ = p.Drop(conn)
		return fmt.Errorf("rolling back on release: %w", err)
	}
	return nil
}

// Drop physically closes the connection and forgets it. Irreversible for
// this Pool instance with respect to the dropped connection; a later Connect
// opens a fresh one.
func (p *Pool) Drop(conn sqlite.Conn) error {
	if conn == nil || conn != p.conn {
		return ErrForeignConn
	}
	p.conn = nil
	p.log.Debug("connection dropped", "path", p.cfg.Path)
	return conn.Close()
}

// Stats reports the pool's current state.
func (p *Pool) Stats() Stats {
	live := 0
	if p.conn != nil {
		live = 1
	}
	return Stats{Target: p.cfg.Path, Live: live}
}
