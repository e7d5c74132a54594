package scheduler

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueClosed = errors.New("queue is closed")
)

// fifo is an unbounded first-in first-out queue shared by all workers of a pool.
//
// Producers never block: Enqueue appends under the lock and signals notifyC.
// Consumers block in Dequeue until an item arrives, the queue is closed, or
// their context ends.
type fifo[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	// Notification channel for data (BUFFERED, NEVER CLOSED)
	notifyC chan struct{}

	// Notification channel for shutdown (UNBUFFERED, CLOSED ON SHUTDOWN)
	closeC chan struct{}
}

func newFIFO[T any]() *fifo[T] {
	return &fifo[T]{
		notifyC: make(chan struct{}, 1),
		closeC:  make(chan struct{}),
	}
}

// Enqueue appends value to the tail of the queue.
// Returns ErrQueueClosed if the queue has been closed.
func (q *fifo[T]) Enqueue(value T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, value)
	q.mu.Unlock()

	q.signal()
	return nil
}

// Dequeue removes and returns the head of the queue, blocking while it is empty.
// Returns ErrQueueClosed once the queue is closed and empty, or ctx.Err() if
// the context ends first.
func (q *fifo[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		if v, ok, closed := q.pop(); ok {
			return v, nil
		} else if closed {
			return zero, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.closeC:
		case <-q.notifyC:
		}
	}
}

// Drain removes and returns every queued item in FIFO order.
func (q *fifo[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Close marks the queue as closed. Items already queued can still be dequeued.
func (q *fifo[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.closeC)
	}
}

// Len returns the number of queued items.
func (q *fifo[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *fifo[T]) pop() (value T, ok bool, closed bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		closed = q.closed
		q.mu.Unlock()
		return value, false, closed
	}

	var zero T
	value = q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	more := len(q.items) > 0
	q.mu.Unlock()

	// notifyC holds at most one token, so pass the wakeup on to the next waiter.
	if more {
		q.signal()
	}
	return value, true, false
}

func (q *fifo[T]) signal() {
	select {
	case q.notifyC <- struct{}{}:
	default:
	}
}
