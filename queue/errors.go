package queue

import "errors"

var (
	// ErrInvalidArgument is returned by Add for an empty name or a nil unit.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyStarted is returned by Add once Start has submitted the queue.
	ErrAlreadyStarted = errors.New("task queue already started")

	// ErrQueueFinished is returned by Add after the finish callback has fired.
	ErrQueueFinished = errors.New("task queue already finished")

	// ErrTaskPanic wraps the value recovered from a panicking WorkUnit.
	ErrTaskPanic = errors.New("task panic")
)
