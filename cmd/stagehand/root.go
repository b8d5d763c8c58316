package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dshills/stagehand/internal/app"
	"github.com/dshills/stagehand/internal/config"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	pluginDir  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "stagehand",
		Short: "Import, inspect and export ECML slide documents",
		Long: `stagehand rebuilds the stages of an ECML document, resolving its plugins
from a local plugin repository, and writes the scene back out.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"config file (TOML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.pluginDir, "plugin-dir", "",
		"directory holding <id>-<ver> plugin bundles")

	cmd.AddCommand(
		newRoundtripCmd(flags),
		newStagesCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// withApp starts an application for the duration of fn.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.pluginDir != "" {
		cfg.PluginDir = flags.pluginDir
	}

	a, err := app.New(app.Options{
		Config:    cfg,
		LogLevel:  flags.logLevel,
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	err = fn(ctx, a)

	a.Shutdown()
	cancel()
	if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) && err == nil {
		err = runErr
	}
	return err
}
