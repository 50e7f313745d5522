package confine

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestWorker_DoReturnsOperationResult(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	v, err := w.Do(func() (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if v != 42 {
		t.Errorf("Do() = %v, want 42", v)
	}
}

func TestWorker_ErrorsCrossUntouched(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	sentinel := errors.New("exact failure")
	_, err := w.Do(func() (any, error) {
		return nil, sentinel
	})

	// The caller must receive the identical error value, not a copy or
	// a wrapped variant.
	if err != sentinel {
		t.Errorf("Do() error = %v, want the sentinel instance", err)
	}
}

func TestWorker_PanicsCrossToCaller(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	defer func() {
		p := recover()
		if p != "confined failure" {
			t.Errorf("recovered %v, want %q", p, "confined failure")
		}
	}()

	_, _ = w.Do(func() (any, error) {
		panic("confined failure")
	})
	t.Error("Do() returned instead of panicking")
}

func TestWorker_PanicDoesNotKillWorker(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	func() {
		defer func() { _ = recover() }()
		_, _ = w.Do(func() (any, error) { panic("boom") })
	}()

	v, err := w.Do(func() (any, error) { return "alive", nil })
	if err != nil {
		t.Fatalf("Do() after panic error = %v", err)
	}
	if v != "alive" {
		t.Errorf("Do() after panic = %v, want %q", v, "alive")
	}
}

func TestWorker_SerialisesConcurrentCallers(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	// Unsynchronised state: only safe if operations never overlap. The
	// race detector turns any violation into a test failure.
	counter := 0
	inFlight := false

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				_, err := w.Do(func() (any, error) {
					if inFlight {
						return nil, errors.New("operations overlapped")
					}
					inFlight = true
					counter++
					inFlight = false
					return nil, nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Do() error = %v", err)
	}

	if counter != 8*50 {
		t.Errorf("counter = %d, want %d", counter, 8*50)
	}
}

func TestWorker_FIFOOrder(t *testing.T) {
	w := NewWorker(nil)
	defer w.Close()

	var order []int
	for i := 0; i < 10; i++ {
		n := i
		if _, err := w.Do(func() (any, error) {
			order = append(order, n)
			return nil, nil
		}); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	}

	for i, n := range order {
		if n != i {
			t.Fatalf("order[%d] = %d, want %d", i, n, i)
		}
	}
}

func TestWorker_DoAfterClose(t *testing.T) {
	w := NewWorker(nil)
	w.Close()

	_, err := w.Do(func() (any, error) { return nil, nil })
	if !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("Do() after Close error = %v, want ErrWorkerStopped", err)
	}
}

func TestWorker_CloseIsIdempotent(t *testing.T) {
	w := NewWorker(nil)

	done := make(chan struct{})
	go func() {
		w.Close()
		w.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("double Close() did not return")
	}
}

func TestWorker_CloseWaitsForInFlightOperation(t *testing.T) {
	w := NewWorker(nil)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = w.Do(func() (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()

	<-started
	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close() returned while an operation was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return after the operation finished")
	}
}
