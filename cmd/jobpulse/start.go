package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the search daemon",
	Long:  "Runs a search pass and regenerates the dashboard every polling interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
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

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"sites", len(cfg.Search.Sites),
		"roles", len(cfg.Search.Roles),
		"locations", len(cfg.Search.Locations),
		"store", cfg.Store.Type,
		"notifier", cfg.Notification.Type,
	)

	st, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer closeStore()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	n := setupNotifier(cfg, httpClient, logger)
	runner := buildRunner(cfg, st, n, httpClient, logger)
	gen := setupDashboard(cfg, st, logger)

	tasks := []scheduler.Task{
		{Name: "search", Run: func(ctx context.Context) error {
			_, err := runner.Run(ctx)
			return err
		}},
		{Name: "dashboard", Run: func(ctx context.Context) error {
			_, err := gen.Generate(ctx)
			return err
		}},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(tasks, cfg.PollingInterval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
