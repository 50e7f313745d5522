package sqlite

import (
	"database/sql/driver"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// defaultArraySize is the default FetchMany batch size, matching the DB-API
// cursor default.
const defaultArraySize = 1

// noRowCount is the RowCount value when no statement has produced a usable
// change counter (e.g. after a query that returns rows).
const noRowCount = -1

// Cursor is the closed set of operations a cursor supports. Like Conn, it is
// a declared capability table: the confinement proxy forwards exactly these
// names and nothing else.
type Cursor interface {
	// Execute runs a statement. Statements that return rows leave the cursor
	// positioned before the first row; statements that do not update RowCount
	// and LastRowID instead.
	Execute(query string, args ...any) error

	// FetchOne returns the next row, or (nil, nil) when the result set is
	// exhausted.
	FetchOne() ([]any, error)

	// FetchMany returns up to n rows. n <= 0 uses ArraySize.
	FetchMany(n int) ([][]any, error)

	// FetchAll returns all remaining rows.
	FetchAll() ([][]any, error)

	// Close releases the cursor's result set. The connection stays open.
	Close() error

	// RowCount reports the rows affected by the last non-query statement,
	// or -1 after a statement that returned rows.
	RowCount() int64

	// LastRowID reports the rowid inserted by the last INSERT.
	LastRowID() int64

	// Description reports the column names of the current result set,
	// or nil when there is none.
	Description() []string

	// ArraySize reports the default FetchMany batch size.
	ArraySize() int

	// SetArraySize changes the default FetchMany batch size.
	SetArraySize(n int)
}

type cursor struct {
	conn *conn

	rows      driver.Rows
	declTypes []string
	desc      []string
	rowCount  int64
	lastRowID int64
	arraySize int
	closed    bool
}

func newCursor(c *conn) *cursor {
	return &cursor{
		conn:      c,
		rowCount:  noRowCount,
		arraySize: defaultArraySize,
	}
}

func (cur *cursor) Execute(query string, args ...any) error {
	if cur.closed {
		return ErrCursorClosed
	}
	if err := cur.discardRows(); err != nil {
		return err
	}

	named, err := bindValues(args)
	if err != nil {
		return err
	}

	rows, err := cur.conn.query(query, named)
	if err != nil {
		return err
	}

	if len(rows.Columns()) == 0 {
		// No result set. The statement still has to be stepped once, then
		// the change counters are captured for RowCount/LastRowID.
		if err := drainNoResult(rows); err != nil {
			_ = rows.Close()
			return err
		}
		if err := rows.Close(); err != nil {
			return err
		}
		cur.desc = nil
		cur.declTypes = nil
		cur.rowCount, err = cur.conn.queryInt64("SELECT changes()")
		if err != nil {
			return err
		}
		cur.lastRowID, err = cur.conn.queryInt64("SELECT last_insert_rowid()")
		return err
	}

	cur.rows = rows
	cur.desc = append([]string(nil), rows.Columns()...)
	cur.declTypes = declaredTypes(rows)
	cur.rowCount = noRowCount
	return nil
}

func (cur *cursor) FetchOne() ([]any, error) {
	if cur.closed {
		return nil, ErrCursorClosed
	}
	if cur.rows == nil {
		return nil, ErrNoResultSet
	}

	dest := make([]driver.Value, len(cur.desc))
	err := cur.rows.Next(dest)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row := make([]any, len(dest))
	for i, v := range dest {
		row[i] = cur.decodeValue(i, v)
	}
	return row, nil
}

func (cur *cursor) FetchMany(n int) ([][]any, error) {
	if n <= 0 {
		n = cur.arraySize
	}
	var out [][]any
	for len(out) < n {
		row, err := cur.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

func (cur *cursor) FetchAll() ([][]any, error) {
	var out [][]any
	for {
		row, err := cur.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

func (cur *cursor) Close() error {
	if cur.closed {
		return nil
	}
	cur.closed = true
	return cur.discardRows()
}

func (cur *cursor) RowCount() int64 { return cur.rowCount }

func (cur *cursor) LastRowID() int64 { return cur.lastRowID }

func (cur *cursor) Description() []string {
	if cur.desc == nil {
		return nil
	}
	return append([]string(nil), cur.desc...)
}

func (cur *cursor) ArraySize() int { return cur.arraySize }

func (cur *cursor) SetArraySize(n int) {
	if n > 0 {
		cur.arraySize = n
	}
}

// discardRows finalises the current result set, if any.
func (cur *cursor) discardRows() error {
	if cur.rows == nil {
		return nil
	}
	rows := cur.rows
	cur.rows = nil
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing result set: %w", err)
	}
	return nil
}

// decodeValue applies the connection's text policy to a fetched value.
//
// The driver hands text back as raw bytes. Byte slices are decoded to Go
// strings unless the column is declared as a blob; invalid UTF-8 sequences
// are replaced with U+FFFD when the policy is enabled.
func (cur *cursor) decodeValue(i int, v driver.Value) any {
	b, ok := v.([]byte)
	if !ok {
		if s, isStr := v.(string); isStr && cur.conn.replaceInvalidUTF8 {
			return strings.ToValidUTF8(s, string(utf8.RuneError))
		}
		return v
	}
	if i < len(cur.declTypes) && isBlobDecl(cur.declTypes[i]) {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	s := string(b)
	if cur.conn.replaceInvalidUTF8 {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return s
}

// isBlobDecl reports whether a declared column type denotes binary data.
func isBlobDecl(decl string) bool {
	d := strings.ToUpper(decl)
	return strings.Contains(d, "BLOB") || strings.Contains(d, "BINARY")
}

// declaredTypes extracts declared column types when the driver offers them.
// The assertion keeps this package compatible with driver row implementations
// that do not (the confined path hands cursors across as-is, never rows).
func declaredTypes(rows driver.Rows) []string {
	type declarer interface{ DeclTypes() []string }
	if d, ok := rows.(declarer); ok {
		return append([]string(nil), d.DeclTypes()...)
	}
	return nil
}

// bindValues converts caller arguments to driver values.
func bindValues(args []any) ([]driver.NamedValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]driver.NamedValue, len(args))
	for i, a := range args {
		v, err := bindValue(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out, nil
}

// bindValue converts one Go value to a driver value.
// Returns ErrUnsupportedType for anything SQLite cannot store.
func bindValue(a any) (driver.Value, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case int64, float64, bool, []byte, string, time.Time:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint64 value %d overflows", ErrUnsupportedType, v)
		}
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("%w: uint value %d overflows", ErrUnsupportedType, v)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, a)
	}
}
