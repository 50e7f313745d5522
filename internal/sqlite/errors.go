package sqlite

import "errors"

// Domain-specific errors for raw connection handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnClosed is returned when operating on a closed connection.
	ErrConnClosed = errors.New("sqlite: connection closed")

	// ErrCursorClosed is returned when operating on a closed cursor.
	ErrCursorClosed = errors.New("sqlite: cursor closed")

	// ErrNoResultSet is returned when fetching from a cursor whose last
	// statement produced no rows (e.g. an INSERT or a DDL statement).
	ErrNoResultSet = errors.New("sqlite: no result set")

	// ErrUnsupportedType is returned when a statement argument has a Go type
	// that cannot be bound to a SQLite value.
	ErrUnsupportedType = errors.New("sqlite: unsupported argument type")
)
