package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/scorer"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score discovered listings",
	Long:  "Evaluate every discovered listing that has not been scored yet and append an OpportunityScored event for each.",
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return scoreOnce(ctx, cfg, logger)
}

func scoreOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	discovered, skipped, err := event.ReadDiscovered(discoveredPath(cfg))
	if err != nil {
		logger.Error("failed to read discovery log", "error", err)
		return err
	}
	if skipped > 0 {
		logger.Warn("skipped malformed discovery events", "count", skipped)
	}

	scored, _, err := event.ReadScored(scoredPath(cfg))
	if err != nil {
		logger.Error("failed to read score log", "error", err)
		return err
	}
	alreadyScored := make(map[string]struct{}, len(scored))
	for _, s := range scored {
		alreadyScored[s.Payload.ListingID] = struct{}{}
	}

	sink, err := event.OpenJSONL(scoredPath(cfg))
	if err != nil {
		logger.Error("failed to open score log", "error", err)
		return err
	}
	defer sink.Close()

	stage := &scorer.Stage{
		Engine: scorer.NewEngine(cfg.Scoring, logger),
		Sink:   sink,
		Logger: logger,
	}
	summary, err := stage.Run(ctx, discovered, alreadyScored)
	if err != nil {
		logger.Error("scoring failed", "error", err)
		return err
	}

	logger.Info("scoring finished",
		"evaluated", summary.Evaluated,
		"accepted", summary.Accepted,
		"rejected", summary.Rejected,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return nil
}
