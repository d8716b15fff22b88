package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runWithDashboard bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one search pass and exit",
	Long:  "Search → extract → save → notify, once. Exits non-zero only on a configuration error or a failed search.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runWithDashboard, "dashboard", false, "regenerate the dashboard after the run")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	if err := cfg.RequireSearchSecrets(); err != nil {
		logger.Error("missing required environment variables", "error", err)
		return err
	}

	st, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer closeStore()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	n := setupNotifier(cfg, httpClient, logger)
	runner := buildRunner(cfg, st, n, httpClient, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if runWithDashboard {
		if _, err := setupDashboard(cfg, st, logger).Generate(ctx); err != nil {
			logger.Error("dashboard generation failed", "error", err)
		}
	}

	fmt.Println(sum.String())
	return nil
}
