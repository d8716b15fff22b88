package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/search"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured ATS sites and search terms",
	Long:  "Reads the config and prints the ATS domains, role phrases, locations and the composed query.",
	RunE:  runSites,
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	fmt.Printf("%-4s %s\n", "#", "ATS Domain")
	fmt.Println(strings.Repeat("─", 40))
	for i, s := range cfg.Search.Sites {
		fmt.Printf("%-4d %s\n", i+1, s)
	}

	fmt.Printf("\nRoles:     %s\n", strings.Join(cfg.Search.Roles, ", "))
	fmt.Printf("Locations: %s\n", strings.Join(cfg.Search.Locations, ", "))
	fmt.Printf("Recency:   %s\n", cfg.Search.Recency)
	fmt.Printf("\nQuery:\n%s\n", search.BuildQuery(cfg.Search.Sites, cfg.Search.Roles, cfg.Search.Locations))

	fmt.Printf("\nTotal: %d sites, %d roles, %d locations\n", len(cfg.Search.Sites), len(cfg.Search.Roles), len(cfg.Search.Locations))
	return nil
}
