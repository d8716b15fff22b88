package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/notifier"
	"github.com/amishk599/jobpulse/internal/pipeline"
	"github.com/amishk599/jobpulse/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Search once, print what would be added, exit",
	Long:  "Dry run: searches and extracts as usual but never writes to the store and only logs notifications.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	logger.Info("check mode: the store will not be modified")

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	runner := pipeline.NewRunner(
		setupSearcher(cfg, httpClient, logger),
		setupExtractor(cfg, logger),
		setupFilter(cfg),
		store.NewDryRunStore(st, cfg.Store.Retention),
		notifier.NewLogNotifier(logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("check complete")
	fmt.Println(sum.String())
	return nil
}
