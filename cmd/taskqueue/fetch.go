package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/taskqueue/internal/fetch"
	"github.com/utkarsh5026/taskqueue/internal/logger"
	"github.com/utkarsh5026/taskqueue/queue"
)

// fetchURLs registers one task per URL (task1..taskN), runs them and writes
// the result table to out. An interrupted ctx tears the queue down; whatever
// finished by then is still reported.
func fetchURLs(ctx context.Context, c Config, urls []string, out io.Writer) error {
	log, closer, err := logger.New(c.loggerConfig())
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	metrics, err := queue.NewMetrics("", reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	if c.MetricsAddr != "" {
		shutdown := serveMetrics(c.MetricsAddr, reg, log)
		defer shutdown()
	}

	bar := newProgressBar(len(urls), c.Progress)

	var results queue.Results
	q := queue.New(
		queue.WithMaxConcurrency(c.Concurrency),
		queue.WithLogger(log),
		queue.WithMetrics(metrics),
		queue.WithOnTaskEnd(func(string, queue.State, any, error) {
			_ = bar.Add(1)
		}),
		queue.WithFinishCallback(func(r queue.Results) {
			results = r
		}),
	)

	f := fetch.New(c.Timeout)
	names := make([]string, len(urls))
	for i, u := range urls {
		names[i] = fmt.Sprintf("task%d", i+1)

		unit := f.Unit(u)
		if c.AbortOnError {
			unit = abortOnError(q, unit)
		}
		if err := q.Add(names[i], unit); err != nil {
			return err
		}
	}

	q.Start()
	select {
	case <-q.Done():
	case <-ctx.Done():
		log.Warn("interrupted, cancelling all tasks", "queue", q.ID())
		q.CancelAll()
	}
	<-q.Done()
	_ = bar.Finish()

	return renderResults(out, q, names, results)
}

// abortOnError cancels the rest of the queue when unit fails. Tasks already
// running keep going.
func abortOnError(q *queue.TaskQueue, unit queue.WorkUnit) queue.WorkUnit {
	return func(ctx context.Context) (any, error) {
		v, err := unit(ctx)
		if err != nil {
			q.CancelAllUnexecuted()
		}
		return v, err
	}
}

func newProgressBar(total int, visible bool) *progressbar.ProgressBar {
	if !visible {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Fetching"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// serveMetrics exposes reg on addr/metrics until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown", "error", err)
		}
	}
}
