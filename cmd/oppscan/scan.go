package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch, dedup, and record new listings",
	Long:  "Scan all enabled sources once, merge duplicates, and append an OpportunityDiscovered event for every listing not seen before.",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return scanOnce(ctx, cfg, logger)
}

// scanOnce runs one discovery pass. Individual source failures are logged
// inside the scanner; only a fully failed run returns an error.
func scanOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	start := time.Now()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	sink, err := event.OpenJSONL(discoveredPath(cfg))
	if err != nil {
		logger.Error("failed to open event log", "error", err)
		return err
	}
	defer sink.Close()

	sc := newScanner(cfg, st, sink, logger)
	summary, err := sc.Run(ctx)
	if err != nil {
		logger.Error("scan failed", "error", err)
		return err
	}

	logger.Info("scan finished",
		"new_listings", summary.New,
		"duration", durationSince(start))
	return nil
}
