package phoenix

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExecutorRunsTasksInSubmissionOrder(t *testing.T) {
	e := newExecutor()
	defer e.stop()

	const n = 100
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		e.submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	require.Len(t, order, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestExecutorNeverRunsTasksConcurrently(t *testing.T) {
	e := newExecutor()
	defer e.stop()

	var running atomic.Int32
	var overlapped atomic.Bool

	var wg sync.WaitGroup
	const n = 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		e.submit(func() {
			if running.Add(1) > 1 {
				overlapped.Store(true)
			}
			running.Add(-1)
			wg.Done()
		})
	}
	wg.Wait()

	assert.False(t, overlapped.Load(), "tasks must not overlap on the single worker")
}

func TestExecutorStopDrainsQueuedTasks(t *testing.T) {
	e := newExecutor()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		e.submit(func() { ran.Add(1) })
	}
	e.stop()

	assert.Equal(t, int32(10), ran.Load())

	// Submissions after stop are dropped.
	e.submit(func() { ran.Add(1) })
	assert.Equal(t, int32(10), ran.Load())
}

func TestExecutorStopReleasesWorker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e := newExecutor()
	e.submit(func() {})
	e.stop()
	e.stop() // idempotent
}
