package confine

import "errors"

// Domain-specific errors for the confinement bridge.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrWorkerStopped is returned for operations submitted after the worker
	// has shut down, and for operations still queued when it shuts down.
	ErrWorkerStopped = errors.New("confine: worker stopped")
)
