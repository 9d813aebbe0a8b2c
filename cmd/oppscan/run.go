package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	Long:  "Scan, score, and qualify in sequence, then exit.",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runPipeline(ctx, cfg, logger)
}

// runPipeline executes scan, score, and qualify in order. A later stage
// still runs on earlier listings even when an earlier stage failed this
// cycle, since each stage reads whatever its input log holds.
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	start := time.Now()

	var firstErr error
	for _, stage := range []func(context.Context, *config.Config, *slog.Logger) error{
		scanOnce, scoreOnce, qualifyOnce,
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stage(ctx, cfg, logger); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	logger.Info("pipeline finished", "duration", durationSince(start))
	return firstErr
}
