// Package confine provides the thread-confinement bridge for Gray Logic DB.
//
// An in-process SQLite database exists per connection, so the whole process
// shares exactly one connection — and that connection is not safe for
// concurrent use. Instead of wrapping it in locks, this package confines it:
// one worker goroutine owns the connection exclusively and executes every
// operation on it, in strict arrival order. Callers on other goroutines hand
// the worker a closure and block until their result comes back.
//
// The package exposes:
//   - Worker: the dedicated owner goroutine and its FIFO request queue
//   - Conn, Cursor: proxies implementing the sqlite.Conn and sqlite.Cursor
//     capability sets by forwarding each operation through the worker
//
// Failure Transport:
//   - Errors cross the bridge untouched: the caller receives the exact error
//     value the operation produced, as if it had run locally. The worker
//     never logs or swallows an operation failure, and never dies from one.
//   - Panics are recovered on the worker, transported, and re-raised on the
//     calling goroutine.
//
// Ordering:
//   - Operations execute one at a time in queue arrival order. The queue is
//     the only synchronisation primitive; the connection itself needs none.
//
// The single deliberate hole in the confinement is Interrupt: it calls the
// underlying connection directly so a foreign goroutine can abort whatever
// statement the worker is currently executing.
package confine
