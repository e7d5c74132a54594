// Command taskqueue fetches a list of URLs through a bounded TaskQueue and
// prints what each task produced.
//
//	taskqueue fetch --concurrency 2 https://example.com https://go.dev
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := newRootCmd(func(ctx context.Context, c Config, urls []string) error {
		return fetchURLs(ctx, c, urls, os.Stdout)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskqueue: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
