// Package sqlite provides raw SQLite connections for Gray Logic DB.
//
// Unlike database/sql, this package hands out a single physical connection
// object per Open call. The pooling layer needs that: a file-backed pool owns
// exactly one connection per caller, and the in-memory pool must confine its
// one connection to a dedicated worker goroutine. database/sql's internal
// pool would silently move statements between connections, which breaks both
// contracts (and an in-memory SQLite database exists per connection, so a
// second connection is a second, empty database).
//
// The package exposes two interfaces:
//   - Conn: connection operations (cursors, transactions, session state)
//   - Cursor: statement execution and row fetching
//
// Both are closed capability sets. The confinement proxy in package confine
// implements the same interfaces, so callers cannot tell a direct connection
// from a confined one.
//
// Session Initialisation:
//   - busy_timeout and foreign_keys pragmas applied via the DSN
//   - the custom pow(x, y) SQL function is registered
//   - fetched text replaces invalid UTF-8 with U+FFFD (can be disabled)
//
// Thread Safety:
//   - A Conn and its Cursors belong to a single goroutine.
//   - Interrupt is the one exception: it may be called from any goroutine to
//     abort the statement currently executing on the owning goroutine.
package sqlite
