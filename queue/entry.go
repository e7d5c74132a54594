package queue

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// taskEntry is the queue's bookkeeping record for one registered WorkUnit.
//
// State moves Pending -> Running -> {Completed, Failed, Cancelled}, or straight
// from Pending to Cancelled. Every transition happens under mu, and whichever
// goroutine moves the entry into a terminal state reports it to the queue
// exactly once.
type taskEntry struct {
	name  string
	unit  WorkUnit
	queue *TaskQueue

	mu      sync.Mutex
	state   State
	result  any
	failure *TaskFailure
	cancel  context.CancelFunc // set while Running
}

func newTaskEntry(q *TaskQueue, name string, unit WorkUnit) *taskEntry {
	return &taskEntry{
		name:  name,
		unit:  unit,
		queue: q,
		state: Pending,
	}
}

// Run executes the unit on a worker goroutine. An entry cancelled before a
// worker reached it is skipped.
func (e *taskEntry) Run(ctx context.Context) {
	e.mu.Lock()
	if e.state != Pending {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.state = Running
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	e.queue.taskStarted(e)
	start := time.Now()
	result, err := e.call(ctx)
	e.queue.taskReturned(e, time.Since(start))

	e.mu.Lock()
	if e.state != Running {
		// Cancelled while running; the queue already counted it.
		e.mu.Unlock()
		return
	}
	e.cancel = nil
	if err != nil {
		e.state = Failed
		e.failure = &TaskFailure{Name: e.name, Err: err}
	} else {
		e.state = Completed
		e.result = result
	}
	e.mu.Unlock()

	e.notify()
}

// call invokes the unit, converting a panic into an error so the entry still
// reaches a terminal state.
func (e *taskEntry) call(ctx context.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("%w: %v\nstack trace:\n%s", ErrTaskPanic, r, buf[:n])
		}
	}()

	return e.unit(ctx)
}

// cancelLocked moves a non-terminal entry to Cancelled and reports whether it
// did. With pendingOnly, a Running entry is left alone. With interrupt, the
// context of a Running unit is cancelled. The caller must hold e.mu and call
// notify after releasing any queue lock.
func (e *taskEntry) cancelLocked(interrupt, pendingOnly bool) bool {
	if e.state.Terminal() {
		return false
	}
	if pendingOnly && e.state != Pending {
		return false
	}

	if e.state == Running && interrupt && e.cancel != nil {
		e.cancel()
	}
	e.cancel = nil
	e.state = Cancelled
	return true
}

// tryCancel cancels the entry and, if it changed state, notifies the queue.
func (e *taskEntry) tryCancel(interrupt, pendingOnly bool) bool {
	e.mu.Lock()
	ok := e.cancelLocked(interrupt, pendingOnly)
	e.mu.Unlock()

	if ok {
		e.notify()
	}
	return ok
}

// notify reports the entry's terminal transition to the owning queue.
func (e *taskEntry) notify() {
	state, value := e.outcome()

	var err error
	if state == Failed {
		err = e.failure.Err
		value = nil
	}
	e.queue.taskFinished(e, state, value, err)
}

// outcome returns the current state and the value the entry contributes to
// Results: the unit's result, its *TaskFailure, or nil.
func (e *taskEntry) outcome() (State, any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Completed:
		return e.state, e.result
	case Failed:
		return e.state, e.failure
	default:
		return e.state, nil
	}
}

func (e *taskEntry) currentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
