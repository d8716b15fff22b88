package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/browse"
	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/dashboard"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/store"
)

var (
	browseStored bool
	browseLive   bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse listings in an interactive TUI",
	Long: "Opens a two-pane terminal browser. --stored shows the listing store with today's finds; " +
		"--live runs a search without saving and shows which results are new.",
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&browseStored, "stored", false, "browse the listing store")
	browseCmd.Flags().BoolVar(&browseLive, "live", false, "run a search and browse the results without saving")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The TUI owns the terminal; log lines would tear the layout.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, closeStore, err := setupStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	live := browseLive
	if !browseStored && !browseLive {
		choice, err := browse.RunPicker("What do you want to browse?", []string{
			"Stored listings",
			"Live search (nothing is saved)",
		})
		if errors.Is(err, browse.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		live = choice == 1
	}

	var left, right browse.Pane
	if live {
		left, right, err = livePanes(cfg, st, logger)
	} else {
		left, right, err = storedPanes(cfg, st)
	}
	if errors.Is(err, browse.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	return browse.RunBrowser(left, right)
}

func storedPanes(cfg *config.Config, st model.ListingStore) (browse.Pane, browse.Pane, error) {
	listings, err := st.Load(context.Background())
	if err != nil {
		return browse.Pane{}, browse.Pane{}, fmt.Errorf("load listings: %w", err)
	}
	all := dashboard.SortNewestFirst(listings)

	today := model.FormatDate(time.Now().In(cfg.Location))
	var fresh []model.Listing
	for _, l := range all {
		if l.DateFound == today {
			fresh = append(fresh, l)
		}
	}

	return browse.Pane{Title: fmt.Sprintf("All listings (%d)", len(all)), Listings: all},
		browse.Pane{Title: fmt.Sprintf("Found today (%d)", len(fresh)), Listings: fresh},
		nil
}

func livePanes(cfg *config.Config, st model.ListingStore, logger *slog.Logger) (browse.Pane, browse.Pane, error) {
	if err := cfg.RequireSearchSecrets(); err != nil {
		return browse.Pane{}, browse.Pane{}, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	searcher := setupSearcher(cfg, httpClient, logger)
	extractor := setupExtractor(cfg, logger)
	lf := setupFilter(cfg)

	results, err := browse.RunLoader("Searching ATS sites", func(ctx context.Context) ([]model.Listing, error) {
		raw, err := searcher.Search(ctx)
		if err != nil {
			return nil, err
		}
		listings, err := extractor.Extract(ctx, raw)
		if err != nil {
			return nil, err
		}
		return lf.Apply(listings), nil
	})
	if err != nil {
		return browse.Pane{}, browse.Pane{}, err
	}

	added, err := store.NewDryRunStore(st, cfg.Store.Retention).Merge(context.Background(), results)
	if err != nil {
		return browse.Pane{}, browse.Pane{}, fmt.Errorf("compare with store: %w", err)
	}

	return browse.Pane{Title: fmt.Sprintf("Search results (%d)", len(results)), Listings: results},
		browse.Pane{Title: fmt.Sprintf("Not yet stored (%d)", len(added)), Listings: added},
		nil
}
