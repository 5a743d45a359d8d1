// Package taskpool runs tasks with bounded concurrency. Tasks are pulled
// from a producer one at a time, so the producer decides what comes next
// and when the work is over.
package taskpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Task is a named unit of work.
type Task struct {
	Name string
	Do   func(context.Context) error
}

// Producer returns the next task. It returns false when there is no more
// work.
type Producer func() (Task, bool)

// Stats summarizes a Run.
type Stats struct {
	Started int
	Failed  int
}

// Run pulls tasks from next and runs at most limit of them at the same
// time. It returns after the producer is exhausted and every started task
// finished. A failing or panicking task is logged and counted, it does not
// stop other tasks. When ctx is cancelled no new tasks are pulled.
func Run(ctx context.Context, limit int, next Producer) Stats {
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	var started int
	var failed atomic.Int64
	for ctx.Err() == nil {
		task, ok := next()
		if !ok {
			break
		}
		started++
		g.Go(func() error {
			if err := runTask(ctx, task); err != nil {
				failed.Add(1)
				slog.Error("Task failed", "task", task.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Stats{Started: started, Failed: int(failed.Load())}
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", task.Name, r)
		}
	}()
	return task.Do(ctx)
}

// FromSlice returns a producer of the given tasks in order.
func FromSlice(tasks []Task) Producer {
	var i int
	return func() (Task, bool) {
		if i >= len(tasks) {
			return Task{}, false
		}
		i++
		return tasks[i-1], true
	}
}
