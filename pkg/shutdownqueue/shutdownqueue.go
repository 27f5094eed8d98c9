// Package shutdownqueue runs named cleanup tasks in LIFO order when a process
// stops. Components register their own teardown as they start:
//
//	q := shutdownqueue.New(logger)
//	q.Add("db", func(ctx context.Context) error { return db.Close() })
//	q.Add("http", srv.Shutdown)
//	...
//	err := q.Shutdown(ctx) // http first, then db
//
// Tasks run once. Panics are recovered and reported as errors. Shutdown is
// idempotent and returns an aggregated error via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

type Queue struct {
	mu     sync.Mutex
	tasks  []namedTask
	closed bool
	logger *slog.Logger
}

func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{tasks: make([]namedTask, 0, 8), logger: logger}
}

// Add registers t under name. Safe for concurrent use. A nil task, or one
// added after Shutdown has started, is ignored.
func (q *Queue) Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("shutdown task added after shutdown started", "task", name)
		return
	}

	q.tasks = append(q.tasks, namedTask{name: name, run: t})
}

// Len reports how many tasks are waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Shutdown drains the queue in LIFO order. If ctx ends mid-drain the
// remaining tasks are skipped and the context error is part of the result.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed && len(q.tasks) == 0 {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	tasks := q.tasks
	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled before %q: %w", tasks[i].name, ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := q.run(ctx, tasks[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (q *Queue) run(ctx context.Context, t namedTask) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in shutdown task %q: %v", t.name, r)
		}

		if err != nil {
			q.logger.Error("shutdown task failed", "task", t.name, "err", err)
			return
		}

		q.logger.Info("shutdown task done", "task", t.name, "took", time.Since(start))
	}()

	if e := t.run(ctx); e != nil {
		return fmt.Errorf("%s: %w", t.name, e)
	}

	return nil
}
