// Package pool provides connection pooling for Gray Logic DB.
//
// Two pool strategies exist, selected by the database target:
//   - Pool: file-backed databases. Each caller owns its own Pool, and each
//     Pool owns at most one lazily-opened physical connection. Because a
//     Pool belongs to a single goroutine, it needs no locking.
//   - SharedPool: the in-process ":memory:" database. Exactly one confined
//     connection exists per process, shared by every caller through the
//     confinement proxy in package confine.
//
// New routes a target to the right strategy. Relative file paths are
// resolved against the source location of the caller that requested the
// pool, not the process working directory.
//
// Lifecycle:
//   - Connect: lazily open (Pool) or hand out the shared proxy (SharedPool)
//   - Release: roll back, keeping the connection reusable
//   - Drop: close and forget (Pool); for SharedPool, same as Release — the
//     shared resource is never torn down mid-process
//
// Concurrency:
//   - Two goroutines with two Pools on the same file coordinate through
//     SQLite's own file locking, not through this package.
//   - Sharing one Pool between goroutines is not a supported contract.
package pool
