package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utkarsh5026/taskqueue/internal/scheduler"
)

// TaskQueue runs a set of named work units on a bounded worker pool and
// reports their aggregated results through a one-shot finish callback.
//
// Register units with Add, then call Start. Every registered task is counted
// as outstanding until it reaches a terminal state; the transition that brings
// the count to zero finishes the queue. Stop and CancelAll finish it early.
type TaskQueue struct {
	id   string
	conf *queueConfig
	log  *slog.Logger

	mu          sync.Mutex
	entries     []*taskEntry // live tasks, in registration order
	registry    []*taskEntry // every task ever registered, for RecordedState
	pool        *scheduler.Pool
	outstanding int
	finished    bool
	done        chan struct{}
}

// New creates an empty, unstarted TaskQueue.
//
// Example:
//
//	q := queue.New(queue.WithMaxConcurrency(2))
//	_ = q.Add("fetch", func(ctx context.Context) (any, error) {
//	    return fetch(ctx, url)
//	})
//	q.SetFinishCallback(func(r queue.Results) { fmt.Println(r["fetch"]) })
//	q.Start()
//	<-q.Done()
func New(opts ...Option) *TaskQueue {
	cfg := newConfig(opts...)
	id := uuid.NewString()

	return &TaskQueue{
		id:   id,
		conf: cfg,
		log:  cfg.logger.With("queue", id),
		done: make(chan struct{}),
	}
}

// ID returns the queue's unique identifier.
func (q *TaskQueue) ID() string {
	return q.id
}

// Add registers a work unit under name.
//
// Names need not be unique; lookups by name resolve to the first task
// registered with it. Add fails with ErrInvalidArgument for an empty name or a
// nil unit, and with ErrAlreadyStarted once Start has been called, since the
// pool only receives the tasks present at start.
func (q *TaskQueue) Add(name string, unit WorkUnit) error {
	if name == "" {
		return fmt.Errorf("%w: task name can't be empty", ErrInvalidArgument)
	}
	if unit == nil {
		return fmt.Errorf("%w: task %q has no work unit", ErrInvalidArgument, name)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.finished {
		return fmt.Errorf("%w: cannot add task %q", ErrQueueFinished, name)
	}
	if q.pool != nil {
		return fmt.Errorf("%w: cannot add task %q", ErrAlreadyStarted, name)
	}

	e := newTaskEntry(q, name, unit)
	q.entries = append(q.entries, e)
	q.registry = append(q.registry, e)
	q.outstanding++
	return nil
}

// SetMaxConcurrency sets how many tasks may run at once. It has no effect
// after Start or for values below 1.
func (q *TaskQueue) SetMaxConcurrency(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pool == nil && n > 0 {
		q.conf.maxConcurrency = n
	}
}

// MaxConcurrency returns the configured concurrency bound.
func (q *TaskQueue) MaxConcurrency() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.conf.maxConcurrency
}

// SetFinishCallback replaces the finish callback. A nil fn keeps the current one.
func (q *TaskQueue) SetFinishCallback(fn FinishFunc) {
	if fn == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.conf.finish = fn
}

// Start creates the worker pool and submits every registered task to it in
// registration order. It returns immediately; tasks run asynchronously.
// Calling Start again, or after the queue finished, does nothing.
func (q *TaskQueue) Start() {
	q.mu.Lock()
	if q.pool != nil || q.finished {
		q.mu.Unlock()
		return
	}

	pool := scheduler.New(scheduler.Config{
		Workers:     q.conf.maxConcurrency,
		RateLimiter: q.conf.rateLimiter,
		PinWorkers:  q.conf.pinWorkers,
		Logger:      q.log,
	})
	q.pool = pool

	for _, e := range q.entries {
		if err := pool.Submit(e); err != nil {
			q.log.Error("failed to submit task", "task", e.name, "error", err)
			continue
		}
		q.conf.metrics.submitted()
	}
	if err := pool.Start(context.Background()); err != nil {
		q.log.Error("failed to start worker pool", "error", err)
	}

	// Every task was cancelled before Start; nothing left to drive the count.
	idle := len(q.registry) > 0 && q.outstanding < 1
	q.log.Info("task queue started", "tasks", len(q.entries), "max_concurrency", q.conf.maxConcurrency)
	q.mu.Unlock()

	if idle {
		q.finish()
	}
}

// IsDone reports whether the first live task registered under name is in a
// terminal state. Unknown names, and tasks already removed by cancellation or
// by the queue finishing, report false.
func (q *TaskQueue) IsDone(name string) bool {
	s, ok := q.State(name)
	return ok && s.Terminal()
}

// IsCancelled reports whether the first live task registered under name was
// cancelled. Like IsDone, it only sees tasks the queue still holds.
func (q *TaskQueue) IsCancelled(name string) bool {
	s, ok := q.State(name)
	return ok && s == Cancelled
}

// State returns the state of the first live task registered under name. Once
// a task is removed, by Cancel, CancelAllUnexecuted or the queue finishing,
// lookups fall through to the next task with the same name.
func (q *TaskQueue) State(name string) (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return lookup(q.entries, name)
}

// RecordedState is like State but also sees tasks that were removed from the
// queue, returning the state of the first task ever registered under name.
func (q *TaskQueue) RecordedState(name string) (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return lookup(q.registry, name)
}

func lookup(entries []*taskEntry, name string) (State, bool) {
	for _, e := range entries {
		if e.name == name {
			return e.currentState(), true
		}
	}
	return Pending, false
}

// Len returns the number of tasks still held by the queue.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Cancel cancels the first live task registered under name and removes it
// from the queue, so it is absent from Results. A pending task never starts;
// a running task has its context cancelled but may still run to completion,
// in which case its result is discarded. Reports whether a task was removed.
func (q *TaskQueue) Cancel(name string) bool {
	q.mu.Lock()
	idx := slices.IndexFunc(q.entries, func(e *taskEntry) bool { return e.name == name })
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	e := q.entries[idx]
	q.entries = slices.Delete(q.entries, idx, idx+1)
	q.mu.Unlock()

	e.tryCancel(true, false)
	q.log.Debug("task cancelled", "task", name)
	return true
}

// CancelAllUnexecuted cancels and removes every task that has not started yet.
// It may be called from inside a running work unit, typically to abandon the
// rest of the queue after a logical failure. Returns the number of tasks
// cancelled.
//
// Running tasks are left alone: they are not interrupted, stay in the queue
// and still contribute their results. This differs from cancelling every
// not-yet-done task, which would also drop the result of the unit that is
// calling it.
func (q *TaskQueue) CancelAllUnexecuted() int {
	q.mu.Lock()
	var cancelled []*taskEntry
	for i := len(q.entries) - 1; i >= 0; i-- {
		e := q.entries[i]

		e.mu.Lock()
		ok := e.cancelLocked(false, true)
		e.mu.Unlock()

		if ok {
			cancelled = append(cancelled, e)
			q.entries = slices.Delete(q.entries, i, i+1)
		}
	}
	q.mu.Unlock()

	for _, e := range cancelled {
		e.notify()
	}
	q.log.Debug("unexecuted tasks cancelled", "count", len(cancelled))
	return len(cancelled)
}

// CancelAll tears the queue down: running tasks are interrupted, pending ones
// never start, and the finish callback receives whatever results were
// available. It is equivalent to Stop.
func (q *TaskQueue) CancelAll() {
	q.finish()
}

// Stop finishes the queue immediately. See CancelAll.
func (q *TaskQueue) Stop() {
	q.finish()
}

// Done returns a channel that is closed after the finish callback returns.
func (q *TaskQueue) Done() <-chan struct{} {
	return q.done
}

// Wait blocks until the queue finishes or ctx ends.
func (q *TaskQueue) Wait(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *TaskQueue) taskStarted(e *taskEntry) {
	q.conf.metrics.started()
	if q.conf.beforeTaskStart != nil {
		q.conf.beforeTaskStart(e.name)
	}
	q.log.Debug("task started", "task", e.name)
}

func (q *TaskQueue) taskReturned(e *taskEntry, elapsed time.Duration) {
	q.conf.metrics.returned(elapsed)
	q.log.Debug("task returned", "task", e.name, "elapsed", elapsed)
}

// taskFinished is the completion accountant. Each entry calls it exactly once,
// when it becomes terminal. Only the call that brings the outstanding count
// below one, after Start, finishes the queue.
func (q *TaskQueue) taskFinished(e *taskEntry, state State, result any, err error) {
	q.conf.metrics.finished(state)
	if q.conf.onTaskEnd != nil {
		q.conf.onTaskEnd(e.name, state, result, err)
	}

	q.mu.Lock()
	q.outstanding--
	last := q.outstanding < 1 && q.pool != nil && !q.finished
	remaining := q.outstanding
	q.mu.Unlock()

	if err != nil {
		q.log.Warn("task failed", "task", e.name, "error", err)
	} else {
		q.log.Debug("task finished", "task", e.name, "state", state, "outstanding", remaining)
	}

	if last {
		q.finish()
	}
}

// finish is the single path to the finish callback, shared by natural
// completion and manual teardown. Only the first caller proceeds.
func (q *TaskQueue) finish() {
	q.mu.Lock()
	if q.finished {
		q.mu.Unlock()
		return
	}
	q.finished = true
	entries := q.entries
	q.entries = nil
	pool := q.pool
	callback := q.conf.finish
	q.mu.Unlock()

	// Anything still in flight is interrupted and reported as cancelled.
	for _, e := range entries {
		e.tryCancel(true, false)
	}

	if pool != nil {
		dropped := pool.Shutdown(true)
		go q.awaitWorkers(pool, len(dropped))
	}

	results := make(Results, len(entries))
	for _, e := range entries {
		_, v := e.outcome()
		results[e.name] = v
	}

	q.conf.metrics.queueFinished()
	q.log.Info("task queue finished", "results", len(results))

	defer close(q.done)
	q.invokeCallback(callback, results)
}

// invokeCallback runs the finish callback, logging a panic instead of letting
// it unwind into a worker or the caller of Stop.
func (q *TaskQueue) invokeCallback(callback FinishFunc, results Results) {
	if callback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			q.log.Error("finish callback panicked", "panic", r, "stack", string(buf[:n]))
		}
	}()

	callback(results)
}

// awaitWorkers waits for the pool's workers to exit so that a unit ignoring
// cancellation shows up in the log instead of leaking silently.
func (q *TaskQueue) awaitWorkers(pool *scheduler.Pool, dropped int) {
	if err := pool.Wait(q.conf.shutdownTimeout); err != nil {
		q.log.Warn("workers still running after shutdown",
			"running", pool.Running(),
			"dropped", dropped,
			"timeout", q.conf.shutdownTimeout,
			"error", err)
		return
	}
	q.log.Debug("worker pool stopped", "dropped", dropped)
}
