package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		default:
			_, _ = w.Write([]byte("page " + r.URL.Path))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() Config {
	return Config{
		Concurrency: 2,
		Timeout:     5 * time.Second,
		Logging:     LoggingConfig{Level: "OFF"},
	}
}

func TestFetchURLs(t *testing.T) {
	disableColor(t)
	srv := newTestServer(t)

	var out bytes.Buffer
	err := fetchURLs(context.Background(), testConfig(), []string{
		srv.URL + "/a",
		srv.URL + "/b",
		srv.URL + "/missing",
	}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "page /a")
	assert.Contains(t, s, "page /b")
	assert.Contains(t, s, "2 completed, 1 failed, 0 cancelled")
}

func TestFetchURLsAbortOnError(t *testing.T) {
	disableColor(t)
	srv := newTestServer(t)

	c := testConfig()
	c.Concurrency = 1
	c.AbortOnError = true

	var out bytes.Buffer
	err := fetchURLs(context.Background(), c, []string{
		srv.URL + "/missing",
		srv.URL + "/a",
		srv.URL + "/b",
	}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.NotContains(t, s, "page /a")
	assert.Contains(t, s, "(removed)")
	assert.Contains(t, s, "0 completed, 1 failed, 2 cancelled")
}

func TestFetchURLsInterrupted(t *testing.T) {
	disableColor(t)
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	start := time.Now()
	err := fetchURLs(ctx, testConfig(), []string{
		srv.URL + "/slow",
		srv.URL + "/slow",
		srv.URL + "/slow",
	}, &out)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Contains(t, out.String(), "0 completed, 0 failed, 3 cancelled")
}
