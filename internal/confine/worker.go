package confine

import (
	"runtime"
	"sync"
)

// queueCapacity is the request queue buffer size. Callers block on their
// reply anyway, so the buffer only smooths bursts of concurrent submissions.
const queueCapacity = 64

// Logger defines the logging interface for the worker.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// result carries either a return value or a captured failure from the worker
// back to a caller. Written exactly once by the worker, read exactly once by
// the caller.
type result struct {
	value any
	err   error

	// panicked holds a recovered panic value. It is re-raised on the calling
	// goroutine so a confined call crashes the same way a direct call would.
	panicked any
}

// request is one queued operation. The reply channel is buffered so the
// worker never blocks on a caller; its send strictly precedes the caller's
// receive, which is the only ordering the result needs.
type request struct {
	op    func() (any, error)
	reply chan result
}

// Worker owns a confined resource and executes every submitted operation on
// a single dedicated goroutine, in strict FIFO order.
//
// The worker itself holds no reference to the resource; operations close over
// it. What the worker guarantees is that no two operations ever run
// concurrently and that all of them run on the same goroutine (pinned to one
// OS thread for the resource's benefit).
type Worker struct {
	queue    chan request
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	log      Logger
}

// NewWorker creates a Worker and starts its goroutine.
// A nil logger disables lifecycle logging.
func NewWorker(log Logger) *Worker {
	if log == nil {
		log = noopLogger{}
	}
	w := &Worker{
		queue: make(chan request, queueCapacity),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   log,
	}
	go w.run()
	return w
}

// Do submits an operation and blocks until the worker has executed it.
//
// The returned value and error are exactly what the operation produced. If
// the operation panicked on the worker, Do panics with the same value. After
// Close, Do fails with ErrWorkerStopped.
func (w *Worker) Do(op func() (any, error)) (any, error) {
	req := request{op: op, reply: make(chan result, 1)}

	select {
	case w.queue <- req:
	case <-w.stop:
		return nil, ErrWorkerStopped
	}

	select {
	case res := <-req.reply:
		return res.unpack()
	case <-w.done:
		// The worker exited; it may still have answered first.
		select {
		case res := <-req.reply:
			return res.unpack()
		default:
			return nil, ErrWorkerStopped
		}
	}
}

// Close shuts the worker down and waits for its goroutine to exit.
// Operations still queued fail with ErrWorkerStopped. Idempotent.
func (w *Worker) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// run is the worker loop. It drains the queue sequentially, forever, until
// the shutdown signal. An operation failure never terminates the loop.
func (w *Worker) run() {
	// The confined resource must only ever be touched from this goroutine.
	// Pinning it means the resource also only ever sees one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	w.log.Debug("confinement worker started")
	for {
		select {
		case req := <-w.queue:
			req.reply <- w.invoke(req.op)
		case <-w.stop:
			w.refuseQueued()
			w.log.Debug("confinement worker stopped")
			return
		}
	}
}

// refuseQueued answers requests that were already queued at shutdown.
func (w *Worker) refuseQueued() {
	for {
		select {
		case req := <-w.queue:
			req.reply <- result{err: ErrWorkerStopped}
		default:
			return
		}
	}
}

// invoke executes one operation, capturing failures instead of raising them
// on the worker. Failures are transported, never logged here.
func (w *Worker) invoke(op func() (any, error)) (res result) {
	defer func() {
		if p := recover(); p != nil {
			res = result{panicked: p}
		}
	}()
	v, err := op()
	return result{value: v, err: err}
}

// unpack resolves a transported result on the calling goroutine.
func (res result) unpack() (any, error) {
	if res.panicked != nil {
		panic(res.panicked)
	}
	return res.value, res.err
}
