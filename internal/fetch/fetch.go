// Package fetch turns HTTP GET requests into queue work units.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/utkarsh5026/taskqueue/queue"
)

const (
	// DefaultMaxBody is how many characters of a response body are kept.
	DefaultMaxBody = 50

	// Bodies are read through a limit so a huge response cannot exhaust memory.
	readLimit = 1 << 20
)

// Fetcher downloads URLs and returns a truncated preview of the body.
type Fetcher struct {
	Client  *http.Client
	MaxBody int
}

// New returns a Fetcher whose requests time out after timeout. A zero timeout
// leaves requests bounded only by their context.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client:  &http.Client{Timeout: timeout},
		MaxBody: DefaultMaxBody,
	}
}

// Get fetches url and returns at most MaxBody characters of the body, followed
// by "..." when it was cut. Non-2xx responses are errors.
func (f *Fetcher) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, readLimit))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return Truncate(string(body), f.maxBody()), nil
}

// Unit wraps Get as a queue.WorkUnit.
func (f *Fetcher) Unit(url string) queue.WorkUnit {
	return func(ctx context.Context) (any, error) {
		return f.Get(ctx, url)
	}
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

func (f *Fetcher) maxBody() int {
	if f.MaxBody <= 0 {
		return DefaultMaxBody
	}
	return f.MaxBody
}

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Truncate shortens s to n runes and appends "..." if anything was removed.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
