package shutdownqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newQueue() *Queue {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAddNilTaskIgnored(t *testing.T) {
	t.Parallel()

	q := newQueue()
	q.Add("nil", nil)

	if q.Len() != 0 {
		t.Fatalf("nil task registered")
	}

	if err := q.Shutdown(t.Context()); err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

func TestLIFOOrder(t *testing.T) {
	t.Parallel()

	q := newQueue()

	var (
		mu    sync.Mutex
		order []string
	)

	for _, name := range []string{"db", "keeper", "http"} {
		q.Add(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	if err := q.Shutdown(t.Context()); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	want := []string{"http", "keeper", "db"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order mismatch: got %v, want %v", order, want)
	}
}

func TestPanicRecoveredAndNamed(t *testing.T) {
	t.Parallel()

	q := newQueue()

	var ranAfterPanic atomic.Bool

	q.Add("before", func(context.Context) error {
		ranAfterPanic.Store(true)
		return nil
	})
	q.Add("panicky", func(context.Context) error { panic("boom") })

	err := q.Shutdown(t.Context())
	if err == nil || !strings.Contains(err.Error(), `panic in shutdown task "panicky": boom`) {
		t.Fatalf("expected named panic in error; got: %v", err)
	}

	if !ranAfterPanic.Load() {
		t.Fatalf("expected tasks after the panic to still run")
	}
}

func TestEarlyCancelSkipsRemaining(t *testing.T) {
	t.Parallel()

	q := newQueue()
	errA := errors.New("taskA")

	var ranB atomic.Bool

	gateReady := make(chan struct{})

	q.Add("a", func(context.Context) error { return errA })
	q.Add("b", func(context.Context) error {
		ranB.Store(true)
		return nil
	})
	q.Add("gate", func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() { errCh <- q.Shutdown(ctx) }()

	<-gateReady
	cancel()

	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got: %v", err)
	}
	if !strings.Contains(err.Error(), `"b"`) {
		t.Fatalf("expected skipped task name in error; got %v", err)
	}
	if ranB.Load() || errors.Is(err, errA) {
		t.Fatalf("tasks after cancel must not run")
	}
}

func TestIdempotentAndAddAfterShutdownIgnored(t *testing.T) {
	t.Parallel()

	q := newQueue()

	var count atomic.Int32

	q.Add("count", func(context.Context) error {
		count.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown #1 error: %v", err)
	}

	q.Add("late", func(context.Context) error {
		count.Add(100)
		return nil
	})

	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown #2 expected nil; got %v", err)
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("expected count=1; got %d", got)
	}
}

func TestTaskErrorsAreJoinedAndWrapped(t *testing.T) {
	t.Parallel()

	q := newQueue()
	err1 := errors.New("alpha")
	err2 := errors.New("beta")

	q.Add("one", func(context.Context) error { return err1 })
	q.Add("two", func(context.Context) error { return err2 })

	err := q.Shutdown(t.Context())
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Fatalf("expected joined error to contain both; got: %v", err)
	}

	s := err.Error()
	if !strings.Contains(s, "one: alpha") || !strings.Contains(s, "two: beta") {
		t.Fatalf("expected task names in messages; got: %q", s)
	}
}
