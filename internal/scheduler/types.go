package scheduler

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// Job is a unit of work accepted by a Pool.
//
// Run is called at most once, on a worker goroutine. The context is cancelled
// when the pool is shut down with interrupt set.
type Job interface {
	Run(ctx context.Context)
}

// Config holds all configuration for a pool of workers.
type Config struct {
	// Number of worker goroutines in the pool. Values below 1 are treated as 1.
	Workers int

	// Optional token bucket rate limiter applied before each job (may be nil).
	RateLimiter *rate.Limiter

	// If true, every worker locks its OS thread and pins it to a CPU core.
	PinWorkers bool

	// Logger used for worker lifecycle and recovered panics (may be nil).
	Logger *slog.Logger
}
