package pool

import "errors"

// Domain-specific errors for pool lifecycle operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDatabaseNotFound is returned by Connect when the database file does
	// not exist and creation is not permitted.
	ErrDatabaseNotFound = errors.New("pool: database file not found")

	// ErrForeignConn is returned by Release and Drop when the supplied
	// connection is not the one this pool owns.
	ErrForeignConn = errors.New("pool: connection does not belong to this pool")
)
