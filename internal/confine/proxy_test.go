package confine

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-db/internal/sqlite"
)

// openConfined opens a confined in-memory connection for tests.
func openConfined(t *testing.T) *Conn {
	t.Helper()
	w := NewWorker(nil)
	t.Cleanup(w.Close)

	c, err := NewConn(w, func() (sqlite.Conn, error) {
		return sqlite.Open(sqlite.Config{Path: sqlite.MemoryPath})
	})
	if err != nil {
		t.Fatalf("NewConn() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConn_OpenFailurePropagates(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	sentinel := errors.New("open refused")
	_, err := NewConn(w, func() (sqlite.Conn, error) {
		return nil, sentinel
	})
	if err != sentinel {
		t.Errorf("NewConn() error = %v, want the sentinel instance", err)
	}
}

func TestConn_ExecuteThroughProxy(t *testing.T) {
	c := openConfined(t)

	if err := c.ExecuteScript("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatalf("ExecuteScript() error = %v", err)
	}

	cur, err := c.Execute("INSERT INTO t (v) VALUES (7)")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := cur.RowCount(); got != 1 {
		t.Errorf("RowCount() = %d, want 1", got)
	}
	if err := cur.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	cur, err = c.Execute("SELECT v FROM t")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer cur.Close()

	row, err := cur.FetchOne()
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if row[0] != int64(7) {
		t.Errorf("row[0] = %v, want 7", row[0])
	}
}

func TestConn_CursorsComeBackConfined(t *testing.T) {
	c := openConfined(t)

	cur, err := c.Cursor()
	if err != nil {
		t.Fatalf("Cursor() error = %v", err)
	}
	defer cur.Close()

	// The proxy never leaks the raw cursor; callers always get the
	// confined wrapper.
	if _, ok := cur.(*Cursor); !ok {
		t.Errorf("Cursor() returned %T, want *confine.Cursor", cur)
	}

	execCur, err := c.Execute("SELECT 1")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer execCur.Close()

	if _, ok := execCur.(*Cursor); !ok {
		t.Errorf("Execute() returned %T, want *confine.Cursor", execCur)
	}
}

func TestConn_ConcurrentCallers(t *testing.T) {
	c := openConfined(t)

	if err := c.ExecuteScript("CREATE TABLE hits (worker INTEGER)"); err != nil {
		t.Fatalf("ExecuteScript() error = %v", err)
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		n := i
		g.Go(func() error {
			for j := 0; j < 25; j++ {
				cur, err := c.Execute("INSERT INTO hits (worker) VALUES (?)", n)
				if err != nil {
					return err
				}
				if err := cur.Close(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Execute() error = %v", err)
	}

	cur, err := c.Execute("SELECT COUNT(*) FROM hits")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer cur.Close()

	row, err := cur.FetchOne()
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if row[0] != int64(8*25) {
		t.Errorf("COUNT(*) = %v, want %d", row[0], 8*25)
	}
}

func TestConn_TransactionThroughProxy(t *testing.T) {
	c := openConfined(t)

	if err := c.ExecuteScript("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatalf("ExecuteScript() error = %v", err)
	}

	if err := c.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if c.AutoCommit() {
		t.Error("AutoCommit() = true inside a transaction, want false")
	}

	cur, err := c.Execute("INSERT INTO t (v) VALUES (1)")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	_ = cur.Close()

	if err := c.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	cur, err = c.Execute("SELECT COUNT(*) FROM t")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer cur.Close()
	row, err := cur.FetchOne()
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if row[0] != int64(0) {
		t.Errorf("COUNT(*) after rollback = %v, want 0", row[0])
	}
}

func TestConn_SQLErrorsCrossUntouched(t *testing.T) {
	c := openConfined(t)

	direct, err := sqlite.Open(sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer direct.Close()

	_, confinedErr := c.Execute("SELECT * FROM no_such_table")
	_, directErr := direct.Execute("SELECT * FROM no_such_table")

	if confinedErr == nil || directErr == nil {
		t.Fatal("expected both paths to fail on a missing table")
	}
	// Same driver failure, same message: confinement adds nothing.
	if fmt.Sprint(confinedErr) != fmt.Sprint(directErr) {
		t.Errorf("confined error %q differs from direct error %q", confinedErr, directErr)
	}
}

func TestConn_RegisterFuncThroughProxy(t *testing.T) {
	c := openConfined(t)

	triple := func(x int64) int64 { return x * 3 }
	if err := c.RegisterFunc("triple", triple, true); err != nil {
		t.Fatalf("RegisterFunc() error = %v", err)
	}

	cur, err := c.Execute("SELECT triple(14)")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer cur.Close()

	row, err := cur.FetchOne()
	if err != nil {
		t.Fatalf("FetchOne() error = %v", err)
	}
	if row[0] != int64(42) {
		t.Errorf("triple(14) = %v, want 42", row[0])
	}
}

func TestConn_OperationsAfterWorkerClose(t *testing.T) {
	w := NewWorker(nil)
	c, err := NewConn(w, func() (sqlite.Conn, error) {
		return sqlite.Open(sqlite.Config{Path: sqlite.MemoryPath})
	})
	if err != nil {
		t.Fatalf("NewConn() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	w.Close()

	if err := c.Ping(); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("Ping() after worker close error = %v, want ErrWorkerStopped", err)
	}
	if _, err := c.Execute("SELECT 1"); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("Execute() after worker close error = %v, want ErrWorkerStopped", err)
	}
	if !c.AutoCommit() {
		t.Error("AutoCommit() after worker close = false, want true")
	}
}

func TestCursor_FetchAllThroughProxy(t *testing.T) {
	c := openConfined(t)

	script := `
		CREATE TABLE t (v INTEGER);
		INSERT INTO t (v) VALUES (1), (2), (3);
	`
	if err := c.ExecuteScript(script); err != nil {
		t.Fatalf("ExecuteScript() error = %v", err)
	}

	cur, err := c.Execute("SELECT v FROM t ORDER BY v")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer cur.Close()

	if desc := cur.Description(); len(desc) != 1 || desc[0] != "v" {
		t.Errorf("Description() = %v, want [v]", desc)
	}

	rows, err := cur.FetchAll()
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("FetchAll() returned %d rows, want 3", len(rows))
	}
	for i, row := range rows {
		if row[0] != int64(i+1) {
			t.Errorf("rows[%d][0] = %v, want %d", i, row[0], i+1)
		}
	}
}
