package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scan once, print findings, exit",
	Long:  "One-shot scan: fetches every enabled source, reports what would be discovered, exits. Does not write events or mark listings as seen.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// nopSink discards events; check mode must leave no trace.
type nopSink struct{}

func (nopSink) Publish(any) error { return nil }
func (nopSink) Flush() error      { return nil }
func (nopSink) Close() error      { return nil }

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("check mode: nothing will be persisted")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := newScanner(cfg, store.NewMemoryStore(), nopSink{}, logger)
	summary, err := sc.Run(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		return err
	}

	logger.Info("check complete",
		"fetched", summary.Fetched,
		"after_dedup", summary.AfterDedup,
		"would_publish", summary.New)
	return nil
}
