package phoenix

import "sync"

// executor is a single-worker FIFO task queue. Tasks run one at a time, in
// submission order, never concurrently with each other. The socket funnels
// every state mutation and callback invocation through it, which collapses
// transport events and timer fires onto one logical timeline.
type executor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stopped bool
	done    chan struct{}
}

func newExecutor() *executor {
	e := &executor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// submit enqueues a task. It never blocks the caller, so transport and timer
// goroutines can hand work off without stalling. Tasks submitted after stop
// are dropped.
func (e *executor) submit(task func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.tasks = append(e.tasks, task)
	e.cond.Signal()
}

// stop drains the queued tasks and ends the worker. It is idempotent and
// blocks until the worker has exited.
func (e *executor) stop() {
	e.mu.Lock()
	if !e.stopped {
		e.stopped = true
		e.cond.Signal()
	}
	e.mu.Unlock()
	<-e.done
}

func (e *executor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.tasks) == 0 && !e.stopped {
			e.cond.Wait()
		}
		if len(e.tasks) == 0 {
			e.mu.Unlock()
			return
		}
		task := e.tasks[0]
		e.tasks = e.tasks[1:]
		e.mu.Unlock()

		task()
	}
}
