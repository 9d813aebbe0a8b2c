package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/qualifier"
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Qualify scored listings into application candidates",
	Long:  "Turn scored listings that pass the qualification threshold into ApplicationCandidate records and notify about new ones.",
	RunE:  runQualify,
}

func init() {
	rootCmd.AddCommand(qualifyCmd)
}

func runQualify(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return qualifyOnce(ctx, cfg, logger)
}

func qualifyOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	scored, skipped, err := event.ReadScored(scoredPath(cfg))
	if err != nil {
		logger.Error("failed to read score log", "error", err)
		return err
	}
	if skipped > 0 {
		logger.Warn("skipped malformed score events", "count", skipped)
	}

	existing, _, err := qualifier.ReadCandidates(candidatesPath(cfg))
	if err != nil {
		logger.Error("failed to read candidate file", "error", err)
		return err
	}
	alreadyQualified := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		alreadyQualified[c.ListingID] = struct{}{}
	}

	sink, err := event.OpenJSONL(candidatesPath(cfg))
	if err != nil {
		logger.Error("failed to open candidate file", "error", err)
		return err
	}
	defer sink.Close()

	stage := &qualifier.Stage{
		Qualifier: qualifier.New(cfg.Qualifier, logger),
		Sink:      sink,
		Logger:    logger,
	}
	summary, err := stage.Run(ctx, scored, alreadyQualified)
	if err != nil {
		logger.Error("qualification failed", "error", err)
		return err
	}

	logger.Info("qualification finished",
		"considered", summary.Considered,
		"qualified", summary.Qualified,
		"dropped", summary.Dropped,
		"skipped", summary.Skipped)

	if summary.Qualified > 0 {
		if err := notifyNewCandidates(cfg, alreadyQualified, logger); err != nil {
			logger.Error("notification failed", "error", err)
		}
	}
	return nil
}

// notifyNewCandidates announces candidates written by this pass, which are
// the ones not present before the stage ran.
func notifyNewCandidates(cfg *config.Config, before map[string]struct{}, logger *slog.Logger) error {
	all, _, err := qualifier.ReadCandidates(candidatesPath(cfg))
	if err != nil {
		return err
	}

	var fresh []qualifier.Candidate
	for _, c := range all {
		if _, ok := before[c.ListingID]; !ok {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	return setupNotifier(cfg, httpClient, logger).Notify(fresh)
}
