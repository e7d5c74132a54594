package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseArgs runs the root command with args and returns the Config the fetch
// subcommand would have run with.
func parseArgs(t *testing.T, args ...string) (Config, error) {
	t.Helper()

	var got Config
	cmd, err := newRootCmd(func(_ context.Context, c Config, _ []string) error {
		got = c
		return nil
	})
	require.NoError(t, err)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return got, err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c, err := parseArgs(t, "fetch", "http://example.com")
	require.NoError(t, err)

	assert.Equal(t, 4, c.Concurrency)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.False(t, c.AbortOnError)
	assert.True(t, c.Progress)
	assert.Empty(t, c.MetricsAddr)
	assert.Equal(t, "WARNING", c.Logging.Level)
	assert.Equal(t, "text", c.Logging.Format)
	assert.Empty(t, c.Logging.FilePath)
	assert.Equal(t, 100, c.Logging.MaxSizeMB)
	assert.Equal(t, 3, c.Logging.MaxBackups)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	c, err := parseArgs(t,
		"--concurrency=2",
		"--timeout=5s",
		"--abort-on-error",
		"--progress=false",
		"--log-level=DEBUG",
		"--log-file=/tmp/taskqueue.log",
		"fetch", "http://example.com")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Concurrency)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.True(t, c.AbortOnError)
	assert.False(t, c.Progress)
	assert.Equal(t, "DEBUG", c.Logging.Level)
	assert.Equal(t, "/tmp/taskqueue.log", c.Logging.FilePath)
}

func TestConfigFile(t *testing.T) {
	path := writeConfig(t, `
concurrency: 8
timeout: 2s
abort-on-error: true
logging:
  level: ERROR
  format: json
`)

	t.Run("values from file", func(t *testing.T) {
		c, err := parseArgs(t, "--config-file="+path, "fetch", "http://example.com")
		require.NoError(t, err)

		assert.Equal(t, 8, c.Concurrency)
		assert.Equal(t, 2*time.Second, c.Timeout)
		assert.True(t, c.AbortOnError)
		assert.Equal(t, "ERROR", c.Logging.Level)
		assert.Equal(t, "json", c.Logging.Format)
		assert.Equal(t, 3, c.Logging.MaxBackups)
	})

	t.Run("flag beats file", func(t *testing.T) {
		c, err := parseArgs(t, "--config-file="+path, "--concurrency=3", "fetch", "http://example.com")
		require.NoError(t, err)
		assert.Equal(t, 3, c.Concurrency)
	})

	t.Run("unknown key", func(t *testing.T) {
		bad := writeConfig(t, "concurency: 2\n")
		_, err := parseArgs(t, "--config-file="+bad, "fetch", "http://example.com")

		if assert.Error(t, err) {
			expectedErr := &mapstructure.Error{}
			assert.ErrorAs(t, err, &expectedErr)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := parseArgs(t, "--config-file="+filepath.Join(t.TempDir(), "nope.yaml"), "fetch", "http://example.com")
		assert.Error(t, err)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("TASKQUEUE_CONCURRENCY", "6")
	t.Setenv("TASKQUEUE_LOGGING_LEVEL", "TRACE")

	c, err := parseArgs(t, "fetch", "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Concurrency)
	assert.Equal(t, "TRACE", c.Logging.Level)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero concurrency", []string{"--concurrency=0"}, "concurrency"},
		{"negative timeout", []string{"--timeout=-1s"}, "timeout"},
		{"bad level", []string{"--log-level=LOUD"}, "log level"},
		{"bad format", []string{"--log-format=xml"}, "log format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append(tc.args, "fetch", "http://example.com")
			_, err := parseArgs(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestFetchRequiresURL(t *testing.T) {
	_, err := parseArgs(t, "fetch")
	assert.Error(t, err)
}
