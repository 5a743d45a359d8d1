package taskpool_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/gnvision/pkg/taskpool"
	"github.com/stretchr/testify/assert"
)

func TestRunLimit(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64
	var done atomic.Int64

	var tasks []taskpool.Task
	for i := range 50 {
		tasks = append(tasks, taskpool.Task{
			Name: fmt.Sprintf("task-%d", i),
			Do: func(context.Context) error {
				cur := inFlight.Add(1)
				for {
					prev := maxInFlight.Load()
					if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				done.Add(1)
				return nil
			},
		})
	}

	stats := taskpool.Run(context.Background(), 4, taskpool.FromSlice(tasks))
	assert.Equal(t, 50, stats.Started)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, int64(50), done.Load(), "all tasks finished before return")
	assert.LessOrEqual(t, maxInFlight.Load(), int64(4))
}

func TestRunIsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	var finished []string

	ok := func(name string) taskpool.Task {
		return taskpool.Task{Name: name, Do: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			finished = append(finished, name)
			return nil
		}}
	}

	tasks := []taskpool.Task{
		ok("a"),
		{Name: "error", Do: func(context.Context) error {
			return errors.New("lookup failed")
		}},
		ok("b"),
		{Name: "panic", Do: func(context.Context) error {
			panic("boom")
		}},
		ok("c"),
	}

	stats := taskpool.Run(context.Background(), 2, taskpool.FromSlice(tasks))
	assert.Equal(t, 5, stats.Started)
	assert.Equal(t, 2, stats.Failed)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, finished)
}

func TestRunPullsLazily(t *testing.T) {
	var pulled int
	next := func() (taskpool.Task, bool) {
		if pulled == 3 {
			return taskpool.Task{}, false
		}
		pulled++
		return taskpool.Task{Name: "t", Do: func(context.Context) error {
			return nil
		}}, true
	}

	stats := taskpool.Run(context.Background(), 10, next)
	assert.Equal(t, 3, stats.Started)
	assert.Equal(t, 3, pulled)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var count atomic.Int64

	next := func() (taskpool.Task, bool) {
		return taskpool.Task{Name: "t", Do: func(context.Context) error {
			if count.Add(1) == 5 {
				cancel()
			}
			return nil
		}}, true
	}

	stats := taskpool.Run(ctx, 1, next)
	assert.GreaterOrEqual(t, stats.Started, 5)
	assert.Less(t, stats.Started, 10, "cancellation stops pulling")
}

func TestRunEmpty(t *testing.T) {
	stats := taskpool.Run(context.Background(), 0, taskpool.FromSlice(nil))
	assert.Equal(t, taskpool.Stats{}, stats)
}
