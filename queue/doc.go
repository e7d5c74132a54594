// Package queue provides a named task queue with bounded concurrency,
// completion accounting and a one-shot finish notification.
//
// The primary type is TaskQueue. Callers register any number of WorkUnits,
// each under a name, pick a degree of parallelism and start the queue. Once
// every registered task has reached a terminal state (completed, failed or
// cancelled) the queue invokes its FinishFunc exactly once with a name to
// result map.
//
// # Basic Usage
//
//	q := queue.New(queue.WithMaxConcurrency(4))
//	_ = q.Add("t1", func(ctx context.Context) (any, error) { return "a", nil })
//	_ = q.Add("t2", func(ctx context.Context) (any, error) { return 2, nil })
//	q.SetFinishCallback(func(r queue.Results) {
//	    fmt.Println(r) // map[t1:a t2:2]
//	})
//	q.Start()
//	<-q.Done()
//
// # Concurrency
//
// WithMaxConcurrency(1) runs tasks strictly one after another in registration
// order. With N > 1 at most N tasks run at the same time and the rest wait, in
// registration order, for a free worker. Start never blocks; use Done or Wait
// to block until the finish callback has run.
//
// # Results and Errors
//
// Errors returned by a WorkUnit never escape the queue. They are captured as
// a *TaskFailure in the Results map, as are panics (wrapping ErrTaskPanic).
// Cancelled tasks map to nil, and tasks removed by Cancel or
// CancelAllUnexecuted do not appear at all. Only Add reports errors
// synchronously.
//
// # Cancellation
//
//   - Cancel(name): cancel one task and forget it; a running unit sees its
//     context cancelled but may keep running.
//   - CancelAllUnexecuted(): drop every task that has not started, leaving
//     running ones alone. Safe to call from inside a unit.
//   - CancelAll() / Stop(): interrupt everything and finish now.
//
// # Configuration Options
//
//   - WithMaxConcurrency(n): number of workers (default 4)
//   - WithFinishCallback(fn): finish callback, also settable via SetFinishCallback
//   - WithLogger(l): structured logging through log/slog
//   - WithMetrics(m): Prometheus collectors from NewMetrics
//   - WithRateLimit(perSec, burst): throttle task starts
//   - WithCPUAffinity(): pin workers to CPU cores
//   - WithBeforeTaskStart(fn), WithOnTaskEnd(fn): lifecycle hooks
//   - WithShutdownTimeout(d): how long to wait for workers after finishing
package queue
