package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/model"
	"github.com/oppscan/oppscan/internal/notify"
	"github.com/oppscan/oppscan/internal/ratelimit"
	"github.com/oppscan/oppscan/internal/retry"
	"github.com/oppscan/oppscan/internal/scanner"
	"github.com/oppscan/oppscan/internal/source"
	"github.com/oppscan/oppscan/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "oppscan",
	Short:         "Opportunity radar for AI/ML roles",
	Long:          "Oppscan discovers remote AI/ML job listings, scores them against your profile, and surfaces the ones worth applying to.",
	SilenceUsage:  true,
	SilenceErrors: true,
	// Default to `start` so that `oppscan` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: OPPSCAN_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// resolveConfigPath resolves the config location.
// Priority: explicit path arg > OPPSCAN_CONFIG env var > "./config.yaml"
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("OPPSCAN_CONFIG"); env != "" {
		return env
	}
	return "config.yaml"
}

func loadConfig(path string) (*config.Config, error) {
	return config.Load(resolveConfigPath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) notify.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notify.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notify.NewLogNotifier(logger)
	}
}

// openStore opens the seen-set backend named in the config.
func openStore(ctx context.Context, cfg *config.Config) (model.SeenStore, error) {
	switch cfg.Scan.Store {
	case "redis":
		return store.NewRedisStore(ctx, cfg.Scan.RedisURL, cfg.Scan.RedisKey)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewSQLiteStore(cfg.Scan.SQLitePath)
	}
}

// buildSources constructs the enabled source adapters, each wrapped with
// retry.
func buildSources(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.Source {
	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.MinDelay)

	var sources []model.Source
	add := func(s model.Source) {
		sources = append(sources, retry.Wrap(s, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger))
		logger.Info("registered source", "source", s.Name())
	}

	if cfg.Sources.HackerNews {
		add(source.NewHackerNewsSource(httpClient, limiter))
	}
	if cfg.Sources.WorkingNomads {
		add(source.NewWorkingNomadsSource(cfg.Scan.FetchTimeout))
	}
	if cfg.Sources.AIJobs {
		add(source.NewAIJobsSource(httpClient))
	}
	return sources
}

func newScanner(cfg *config.Config, st model.SeenStore, sink event.Sink, logger *slog.Logger) *scanner.Scanner {
	httpClient := &http.Client{Timeout: cfg.Scan.FetchTimeout}
	sources := buildSources(cfg, httpClient, logger)
	return scanner.New(sources, st, sink, cfg.Scan.FetchTimeout, cfg.Scan.Workers, logger)
}

// Event log and candidate file locations under the data dir.

func discoveredPath(cfg *config.Config) string {
	return filepath.Join(cfg.Scan.DataDir, "discovered.jsonl")
}

func scoredPath(cfg *config.Config) string {
	return filepath.Join(cfg.Scan.DataDir, "scored.jsonl")
}

func candidatesPath(cfg *config.Config) string {
	return filepath.Join(cfg.Scan.DataDir, "candidates.jsonl")
}

func durationSince(start time.Time) string {
	return fmt.Sprintf("%.1fs", time.Since(start).Seconds())
}
