package confine

import (
	"time"

	"github.com/nerrad567/gray-logic-db/internal/sqlite"
)

// Conn presents a confined connection as an ordinary sqlite.Conn usable from
// any goroutine. Every operation is marshalled through the worker; the proxy
// is the only route by which a foreign goroutine can reach the underlying
// connection.
type Conn struct {
	w   *Worker
	raw sqlite.Conn
}

// Compile-time checks that the proxies cover the full capability sets.
var (
	_ sqlite.Conn   = (*Conn)(nil)
	_ sqlite.Cursor = (*Cursor)(nil)
)

// NewConn opens a confined connection. The open function runs on the worker
// itself, so the worker owns the connection from the moment it exists.
func NewConn(w *Worker, open func() (sqlite.Conn, error)) (*Conn, error) {
	v, err := w.Do(func() (any, error) {
		return open()
	})
	if err != nil {
		return nil, err
	}
	raw, _ := v.(sqlite.Conn)
	return &Conn{w: w, raw: raw}, nil
}

func (c *Conn) Cursor() (sqlite.Cursor, error) {
	v, err := c.w.Do(func() (any, error) {
		return c.raw.Cursor()
	})
	if err != nil {
		return nil, err
	}
	return c.wrapCursor(v), nil
}

func (c *Conn) Execute(query string, args ...any) (sqlite.Cursor, error) {
	v, err := c.w.Do(func() (any, error) {
		return c.raw.Execute(query, args...)
	})
	if err != nil {
		return nil, err
	}
	return c.wrapCursor(v), nil
}

func (c *Conn) ExecuteScript(script string) error {
	return c.doErr(func() error { return c.raw.ExecuteScript(script) })
}

func (c *Conn) Begin() error {
	return c.doErr(func() error { return c.raw.Begin() })
}

func (c *Conn) Commit() error {
	return c.doErr(func() error { return c.raw.Commit() })
}

func (c *Conn) Rollback() error {
	return c.doErr(func() error { return c.raw.Rollback() })
}

func (c *Conn) Close() error {
	return c.doErr(func() error { return c.raw.Close() })
}

func (c *Conn) RegisterFunc(name string, impl any, pure bool) error {
	return c.doErr(func() error { return c.raw.RegisterFunc(name, impl, pure) })
}

// Interrupt deliberately bypasses the queue: its whole purpose is to abort
// the statement the worker is executing right now, which a queued request
// could never do. The underlying Interrupt is safe from foreign goroutines.
func (c *Conn) Interrupt() {
	c.raw.Interrupt()
}

func (c *Conn) Ping() error {
	return c.doErr(func() error { return c.raw.Ping() })
}

func (c *Conn) TotalChanges() (int64, error) {
	v, err := c.w.Do(func() (any, error) {
		return c.raw.TotalChanges()
	})
	if err != nil {
		return 0, err
	}
	n, _ := v.(int64)
	return n, nil
}

// AutoCommit reports true after the worker has shut down: a connection that
// can no longer execute anything is trivially outside a transaction.
func (c *Conn) AutoCommit() bool {
	v, err := c.w.Do(func() (any, error) {
		return c.raw.AutoCommit(), nil
	})
	if err != nil {
		return true
	}
	b, _ := v.(bool)
	return b
}

func (c *Conn) BusyTimeout() (time.Duration, error) {
	v, err := c.w.Do(func() (any, error) {
		return c.raw.BusyTimeout()
	})
	if err != nil {
		return 0, err
	}
	d, _ := v.(time.Duration)
	return d, nil
}

func (c *Conn) SetBusyTimeout(d time.Duration) error {
	return c.doErr(func() error { return c.raw.SetBusyTimeout(d) })
}

func (c *Conn) ReplaceInvalidUTF8() bool {
	v, err := c.w.Do(func() (any, error) {
		return c.raw.ReplaceInvalidUTF8(), nil
	})
	if err != nil {
		return true
	}
	b, _ := v.(bool)
	return b
}

// SetReplaceInvalidUTF8 is lost without notice only when the worker has
// already shut down, at which point the policy no longer matters.
func (c *Conn) SetReplaceInvalidUTF8(on bool) {
	_ = c.doErr(func() error {
		c.raw.SetReplaceInvalidUTF8(on)
		return nil
	})
}

func (c *Conn) doErr(op func() error) error {
	_, err := c.w.Do(func() (any, error) {
		return nil, op()
	})
	return err
}

// wrapCursor re-confines a cursor produced by a confined call. The raw cursor
// never leaves the worker's ownership; callers only ever hold the proxy.
func (c *Conn) wrapCursor(v any) sqlite.Cursor {
	raw, _ := v.(sqlite.Cursor)
	return &Cursor{w: c.w, raw: raw}
}

// Cursor presents a confined cursor as an ordinary sqlite.Cursor usable from
// any goroutine, with the same forwarding discipline as Conn.
type Cursor struct {
	w   *Worker
	raw sqlite.Cursor
}

func (cur *Cursor) Execute(query string, args ...any) error {
	return cur.doErr(func() error { return cur.raw.Execute(query, args...) })
}

func (cur *Cursor) FetchOne() ([]any, error) {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.FetchOne()
	})
	if err != nil {
		return nil, err
	}
	row, _ := v.([]any)
	return row, nil
}

func (cur *Cursor) FetchMany(n int) ([][]any, error) {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.FetchMany(n)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([][]any)
	return rows, nil
}

func (cur *Cursor) FetchAll() ([][]any, error) {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.FetchAll()
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([][]any)
	return rows, nil
}

func (cur *Cursor) Close() error {
	return cur.doErr(func() error { return cur.raw.Close() })
}

func (cur *Cursor) RowCount() int64 {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.RowCount(), nil
	})
	if err != nil {
		return 0
	}
	n, _ := v.(int64)
	return n
}

func (cur *Cursor) LastRowID() int64 {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.LastRowID(), nil
	})
	if err != nil {
		return 0
	}
	n, _ := v.(int64)
	return n
}

func (cur *Cursor) Description() []string {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.Description(), nil
	})
	if err != nil {
		return nil
	}
	desc, _ := v.([]string)
	return desc
}

func (cur *Cursor) ArraySize() int {
	v, err := cur.w.Do(func() (any, error) {
		return cur.raw.ArraySize(), nil
	})
	if err != nil {
		return 0
	}
	n, _ := v.(int)
	return n
}

func (cur *Cursor) SetArraySize(n int) {
	_ = cur.doErr(func() error {
		cur.raw.SetArraySize(n)
		return nil
	})
}

func (cur *Cursor) doErr(op func() error) error {
	_, err := cur.w.Do(func() (any, error) {
		return nil, op()
	})
	return err
}
