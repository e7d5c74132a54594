package queue

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultMaxConcurrency is the number of workers used when none is configured.
	DefaultMaxConcurrency = 4

	defaultShutdownTimeout = 5 * time.Second
)

// Option is a functional option for configuring a TaskQueue.
type Option func(*queueConfig)

type queueConfig struct {
	maxConcurrency  int
	finish          FinishFunc
	logger          *slog.Logger
	metrics         *Metrics
	rateLimiter     *rate.Limiter
	pinWorkers      bool
	shutdownTimeout time.Duration

	beforeTaskStart func(name string)
	onTaskEnd       func(name string, state State, result any, err error)
}

func newConfig(opts ...Option) *queueConfig {
	cfg := &queueConfig{
		maxConcurrency:  DefaultMaxConcurrency,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// WithMaxConcurrency sets how many tasks may run at the same time.
// 1 runs tasks strictly one after another in registration order.
// Values below 1 are ignored.
func WithMaxConcurrency(n int) Option {
	return func(cfg *queueConfig) {
		if n > 0 {
			cfg.maxConcurrency = n
		}
	}
}

// WithFinishCallback sets the callback invoked once all tasks are terminal.
// A nil callback is ignored.
func WithFinishCallback(fn FinishFunc) Option {
	return func(cfg *queueConfig) {
		if fn != nil {
			cfg.finish = fn
		}
	}
}

// WithLogger sets the structured logger. Queue records carry a "queue"
// attribute holding the queue ID. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *queueConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMetrics records task lifecycle events in the given Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(cfg *queueConfig) {
		cfg.metrics = m
	}
}

// WithRateLimit caps how quickly tasks are started across all workers.
// tasksPerSecond is the sustained rate and burst the number of tasks that may
// start back to back. Non-positive values disable rate limiting.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *queueConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithCPUAffinity pins every worker goroutine to its own OS thread and CPU core.
// Useful for CPU-bound units; pinning is best effort and a no-op on platforms
// without thread affinity.
func WithCPUAffinity() Option {
	return func(cfg *queueConfig) {
		cfg.pinWorkers = true
	}
}

// WithShutdownTimeout bounds how long the queue waits, in the background, for
// workers to exit after finishing. Workers still running after the timeout are
// reported in the log. Zero waits forever.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *queueConfig) {
		if d >= 0 {
			cfg.shutdownTimeout = d
		}
	}
}

// WithBeforeTaskStart sets a hook called on the worker goroutine right after a
// task enters the Running state.
func WithBeforeTaskStart(fn func(name string)) Option {
	return func(cfg *queueConfig) {
		cfg.beforeTaskStart = fn
	}
}

// WithOnTaskEnd sets a hook called once for every task that reaches a terminal
// state, including cancelled ones. result is set for Completed tasks and err
// for Failed tasks.
func WithOnTaskEnd(fn func(name string, state State, result any, err error)) Option {
	return func(cfg *queueConfig) {
		cfg.onTaskEnd = fn
	}
}
