package pool

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-db/internal/confine"
	"github.com/nerrad567/gray-logic-db/internal/sqlite"
)

// SharedPool owns the process's single confined in-memory connection.
//
// An in-process SQLite database lives and dies with its connection, so every
// caller must share one. The pool hands all of them the same confinement
// proxy; the physical connection is owned by the proxy's worker goroutine
// for its entire lifetime.
//
// All fields are set at construction and never reassigned, which is what
// makes the pool safe to share between goroutines without locking.
type SharedPool struct {
	worker    *confine.Worker
	conn      *confine.Conn
	closeOnce sync.Once
}

// NewSharedPool constructs a pool around a fresh in-memory database.
// The connection is opened on the confinement worker itself.
//
// Most callers want Shared instead; direct construction exists for tests and
// for embedders managing their own process lifecycle.
func NewSharedPool(log Logger) (*SharedPool, error) {
	w := confine.NewWorker(log)
	conn, err := confine.NewConn(w, func() (sqlite.Conn, error) {
		return sqlite.Open(sqlite.Config{Path: sqlite.MemoryPath})
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	return &SharedPool{worker: w, conn: conn}, nil
}

// Connect returns the shared confined connection. Idempotent: every call
// from every goroutine observes the identical proxy instance.
func (sp *SharedPool) Connect() (sqlite.Conn, error) {
	return sp.conn, nil
}

// Release returns the shared connection to a clean transactional state.
// The connection itself survives; only the transaction is discarded.
func (sp *SharedPool) Release(conn sqlite.Conn) error {
	if conn == nil || conn != sqlite.Conn(sp.conn) {
		return ErrForeignConn
	}
	if err := sp.conn.Rollback(); err != nil {
		return fmt.Errorf("rolling back on release: %w", err)
	}
	return nil
}

// Drop behaves like Release. The shared resource is never physically closed
// mid-process; there is nowhere to reopen it from.
func (sp *SharedPool) Drop(conn sqlite.Conn) error {
	return sp.Release(conn)
}

// Close tears the pool down at process shutdown: the underlying connection
// is closed while the worker can still execute the close, then the worker
// itself stops. Idempotent. After Close, confined operations fail with
// confine.ErrWorkerStopped.
func (sp *SharedPool) Close() error {
	var err error
	sp.closeOnce.Do(func() {
		err = sp.conn.Close()
		sp.worker.Close()
	})
	return err
}

// Stats reports the pool's current state.
func (sp *SharedPool) Stats() Stats {
	return Stats{Target: sqlite.MemoryPath, Live: 1, Confined: true}
}

// Process-wide shared pool state.
var (
	sharedOnce sync.Once
	shared     *SharedPool
	sharedErr  error
)

// Shared returns the process-wide shared pool, constructing it on the first
// call. Construction happens strictly inside the once gate: however many
// goroutines race the first use, exactly one in-memory database is ever
// built, and all callers observe the same pool.
func Shared() (*SharedPool, error) {
	return sharedWith(nil)
}

// sharedWith is Shared with a logger for the construction path. The logger
// only takes effect when this call is the one that constructs the singleton;
// later calls observe the already-built pool regardless.
func sharedWith(log Logger) (*SharedPool, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewSharedPool(log)
	})
	return shared, sharedErr
}
