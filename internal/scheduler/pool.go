package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/taskqueue/internal/cpu"
)

// Pool runs submitted jobs on a fixed number of worker goroutines.
//
// With one worker the pool is strictly serial: the next job starts only after
// the previous one has returned. With N workers at most N jobs run at once and
// the rest wait in submission order.
type Pool struct {
	conf  Config
	queue *fifo[Job]
	log   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started atomic.Bool
	closed  atomic.Bool
	running atomic.Int64
	done    chan struct{} // Closed when all workers have finished
}

// New creates a pool with the given configuration. No workers run until Start.
func New(conf Config) *Pool {
	conf.Workers = max(conf.Workers, 1)

	log := conf.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Pool{
		conf:  conf,
		queue: newFIFO[Job](),
		log:   log,
		done:  make(chan struct{}),
	}
}

// Start launches the workers. Jobs submitted before Start wait in the queue.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started.Load() {
		return ErrPoolStarted
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started.Store(true)

	var g errgroup.Group
	for i := range p.conf.Workers {
		g.Go(func() error {
			return p.worker(ctx, i)
		})
	}

	go func() {
		_ = g.Wait()
		cancel()
		close(p.done)
	}()

	p.log.Debug("worker pool started", "workers", p.conf.Workers)
	return nil
}

// Submit appends job to the pool's queue. It never blocks.
// A nil job is rejected with ErrNilJob.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}

	if err := p.queue.Enqueue(job); err != nil {
		return ErrPoolClosed
	}
	return nil
}

// Shutdown stops the pool from accepting new jobs.
//
// Without interrupt, workers finish every job already queued and then exit.
// With interrupt, the worker context is cancelled so running jobs can observe
// it, and queued jobs that never started are removed and returned.
//
// Shutdown does not wait for the workers; use Wait for that. It is safe to call
// from inside a running job.
func (p *Pool) Shutdown(interrupt bool) []Job {
	p.mu.Lock()
	defer p.mu.Unlock()

	first := p.closed.CompareAndSwap(false, true)

	var dropped []Job
	if interrupt {
		dropped = p.queue.Drain()
		if p.cancel != nil {
			p.cancel()
		}
	}
	p.queue.Close()

	if !p.started.Load() && first {
		// Nobody will ever close done.
		close(p.done)
	}

	p.log.Debug("worker pool shut down", "interrupt", interrupt, "dropped", len(dropped))
	return dropped
}

// Wait blocks until every worker has exited or the timeout is reached.
// A timeout of zero waits forever.
func (p *Pool) Wait(timeout time.Duration) error {
	if !p.closed.Load() {
		return ErrPoolRunning
	}
	return waitUntil(p.done, timeout)
}

// Workers returns the configured number of workers.
func (p *Pool) Workers() int {
	return p.conf.Workers
}

// Running returns the number of jobs currently executing.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

func (p *Pool) worker(ctx context.Context, workerID int) error {
	if p.conf.PinWorkers {
		defer cpu.SetupWorkerAffinity(workerID)()
	}

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return nil
			}
			return err
		}

		if p.conf.RateLimiter != nil {
			if err := p.conf.RateLimiter.Wait(ctx); err != nil {
				debugLog("worker %d: rate limiter: %v", workerID, err)
				return ctx.Err()
			}
		}

		p.execute(ctx, workerID, job)
	}
}

// execute runs a single job with panic recovery so the worker survives it.
func (p *Pool) execute(ctx context.Context, workerID int, job Job) {
	p.running.Add(1)
	defer p.running.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			p.log.Error("worker recovered panic", "worker", workerID, "panic", r, "stack", string(buf[:n]))
		}
	}()

	debugLog("worker %d: running job", workerID)
	job.Run(ctx)
}
