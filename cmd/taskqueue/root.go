package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runFunc does the actual work once flags, environment and config file have
// been merged into a Config.
type runFunc func(ctx context.Context, c Config, urls []string) error

func newRootCmd(run runFunc) (*cobra.Command, error) {
	v := viper.New()
	v.SetEnvPrefix("TASKQUEUE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var cfgFile string

	root := &cobra.Command{
		Use:   "taskqueue",
		Short: "Run named tasks with bounded concurrency",
		Long: `taskqueue runs a set of named tasks on a bounded worker pool and reports
every task's result once all of them have completed, failed or been cancelled.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config-file", "", "YAML config file; flags and TASKQUEUE_* variables override it")
	if err := bindFlags(root.PersistentFlags(), v); err != nil {
		return nil, err
	}

	fetch := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Fetch URLs concurrently and print a preview of each body",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, args)
		},
	}
	root.AddCommand(fetch)

	return root, nil
}
