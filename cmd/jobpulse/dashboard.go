package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Regenerate the static dashboard",
	Long:  "Renders index.html and jobs.json from the listing store. Makes no network calls.",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	st, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer closeStore()

	stats, err := setupDashboard(cfg, st, logger).Generate(context.Background())
	if err != nil {
		logger.Error("dashboard generation failed", "error", err)
		return err
	}

	fmt.Printf("Dashboard generated with %d jobs (%d new today)\n", stats.TotalJobs, stats.NewToday)
	fmt.Printf("Tracking %d companies across %d cities\n", stats.Companies, stats.Cities)
	return nil
}
