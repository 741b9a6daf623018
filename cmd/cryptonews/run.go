package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deusflow/cryptonews/internal/app"
	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Post the latest article once",
	Long:  "Runs the whole pipeline once. Exits non-zero when configuration is missing or a stage fails the run.",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

var runDryRun bool

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the post instead of sending it to Telegram")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("❌ Отсутствуют необходимые переменные окружения.", "error", err)
		return fmt.Errorf("configuration: %w", err)
	}

	ctx := context.Background()
	pipeline := app.New(ctx, cfg, app.Options{DryRun: runDryRun, Out: cmd.OutOrStdout()})
	defer pipeline.Close()

	report := pipeline.Run(ctx)
	stats := report.GetStats()
	logger.Info("run finished",
		"run_id", stats["run_id"],
		"status", stats["status"],
		"post_kind", stats["post_kind"],
		"stages", stats["stages"],
		"took_ms", stats["processing_time_ms"],
	)

	if report.Status() == metrics.StatusFailure {
		return fmt.Errorf("run %s failed: %w", report.RunID, report.Err())
	}
	return nil
}
