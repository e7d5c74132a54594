package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/utkarsh5026/taskqueue/internal/logger"
	"github.com/utkarsh5026/taskqueue/queue"
)

// Config is the merged command configuration. Keys in the YAML config file
// match the yaml tags.
type Config struct {
	Concurrency  int           `yaml:"concurrency"`
	Timeout      time.Duration `yaml:"timeout"`
	AbortOnError bool          `yaml:"abort-on-error"`
	Progress     bool          `yaml:"progress"`
	MetricsAddr  string        `yaml:"metrics-addr"`

	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	FilePath   string `yaml:"file-path"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
}

// bindFlags registers the command's flags on flagSet and binds each one to its
// config key in v.
func bindFlags(flagSet *pflag.FlagSet, v *viper.Viper) error {
	flagSet.IntP("concurrency", "c", queue.DefaultMaxConcurrency, "Maximum number of tasks running at once.")
	flagSet.Duration("timeout", 30*time.Second, "Per-request timeout; 0 disables it.")
	flagSet.Bool("abort-on-error", false, "Cancel every task that has not started once any task fails.")
	flagSet.Bool("progress", true, "Show a progress bar on stderr.")
	flagSet.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090.")
	flagSet.String("log-level", "WARNING", "Log severity: TRACE, DEBUG, INFO, WARNING, ERROR or OFF.")
	flagSet.String("log-format", "text", "Log format: text or json.")
	flagSet.String("log-file", "", "Write logs to this file instead of stderr.")
	flagSet.Int("log-max-size-mb", 100, "Rotate the log file once it reaches this size.")
	flagSet.Int("log-max-backups", 3, "Number of rotated log files to keep.")

	bindings := []struct{ key, flag string }{
		{"concurrency", "concurrency"},
		{"timeout", "timeout"},
		{"abort-on-error", "abort-on-error"},
		{"progress", "progress"},
		{"metrics-addr", "metrics-addr"},
		{"logging.level", "log-level"},
		{"logging.format", "log-format"},
		{"logging.file-path", "log-file"},
		{"logging.max-size-mb", "log-max-size-mb"},
		{"logging.max-backups", "log-max-backups"},
	}
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, flagSet.Lookup(b.flag)); err != nil {
			return fmt.Errorf("binding flag %q: %w", b.flag, err)
		}
	}
	return nil
}

// loadConfig reads cfgFile, if given, and decodes the merged settings of v.
func loadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error while reading the config file: %w", err)
		}
	}

	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(decodeHook()), func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.ErrorUnused = true
	})
	if err != nil {
		return Config{}, fmt.Errorf("error while decoding the config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Validate rejects settings the command cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout can't be negative, got %s", c.Timeout))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) loggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.FilePath,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}
