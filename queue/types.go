package queue

import (
	"context"
	"fmt"
)

// WorkUnit is a single fallible computation registered with a TaskQueue.
//
// The context is cancelled when the task is cancelled while running or when
// the queue is torn down. A unit that ignores it runs to completion, but its
// result is discarded once the queue has let go of the task.
type WorkUnit func(ctx context.Context) (any, error)

// FinishFunc receives the aggregated results once every registered task has
// reached a terminal state. It is invoked at most once per queue.
type FinishFunc func(results Results)

// Results maps task names to their outcome.
//
// Values are:
//   - the unit's return value for Completed tasks
//   - a *TaskFailure for Failed tasks
//   - nil for Cancelled tasks
//
// Tasks removed from the queue by Cancel or CancelAllUnexecuted are absent.
// When several tasks share a name, the one registered last wins.
type Results map[string]any

// TaskFailure is the failure marker stored in Results for a task whose unit
// returned an error or panicked.
type TaskFailure struct {
	Name string
	Err  error
}

func (f *TaskFailure) Error() string {
	return fmt.Sprintf("task %q failed: %v", f.Name, f.Err)
}

func (f *TaskFailure) Unwrap() error {
	return f.Err
}

// State is the lifecycle state of a registered task.
type State int

const (
	Pending State = iota
	Running
	Completed
	Failed
	Cancelled
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
