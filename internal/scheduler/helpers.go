package scheduler

import (
	"errors"
	"time"
)

var (
	ErrPoolClosed      = errors.New("worker pool is shut down")
	ErrPoolStarted     = errors.New("worker pool already started")
	ErrPoolRunning     = errors.New("worker pool has not been shut down")
	ErrNilJob          = errors.New("job can't be nil")
	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")
)

// waitUntil blocks until either the done channel is closed or the timeout is reached.
// It is used during shutdown to wait for workers to leave their loops.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}
}
