package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pipeline daemon",
	Long:  "Run the full pipeline on a schedule; blocks until SIGINT/SIGTERM. Config changes are picked up without a restart.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"data_dir", cfg.Scan.DataDir,
		"store", cfg.Scan.Store,
		"workers", cfg.Scan.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Each cycle snapshots the current config, so an edit mid-cycle only
	// affects the next one.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	go func() {
		err := config.Watch(ctx, resolveConfigPath(cfgPath), logger, func(updated *config.Config) {
			current.Store(updated)
			logger.Info("config reloaded", "schedule", updated.Schedule)
		})
		if err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()

	sched := scheduler.New(cfg.Schedule, func(ctx context.Context) error {
		return runPipeline(ctx, current.Load(), logger)
	}, logger)

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	<-ctx.Done()
	sched.Stop()
	logger.Info("goodbye")
	return nil
}
