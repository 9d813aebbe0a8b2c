package main

import (
	"github.com/spf13/cobra"

	"github.com/oppscan/oppscan/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse qualified candidates interactively",
	Long:  "Open a terminal browser over the candidate file, sorted by score.",
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	return review.Run(candidatesPath(cfg))
}
