package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/ai"
	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/dashboard"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/notifier"
	"github.com/amishk599/jobpulse/internal/pipeline"
	"github.com/amishk599/jobpulse/internal/ratelimit"
	"github.com/amishk599/jobpulse/internal/retry"
	"github.com/amishk599/jobpulse/internal/search"
	"github.com/amishk599/jobpulse/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "Daily ATS job search with LLM extraction",
	Long: "jobpulse searches ATS career sites for matching roles, extracts listings with an LLM, " +
		"keeps a bounded listing store and publishes new finds to chat and a static dashboard.",
	// Default to `run` so that a bare `jobpulse` in cron performs one search pass.
	RunE:          runRun,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBPULSE_CONFIG env var or ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env (if present), resolves the config path and parses it.
// Priority: explicit path arg > JOBPULSE_CONFIG env var > "./config.yaml" if it
// exists > built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if path == "" {
		if env := os.Getenv("JOBPULSE_CONFIG"); env != "" {
			path = env
		} else if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	opts := notifier.MessageOptions{
		Label:        cfg.Search.Label,
		MaxListed:    cfg.Notification.MaxListed,
		TitleMaxLen:  cfg.Notification.TitleMaxLen,
		DashboardURL: cfg.Notification.DashboardURL,
	}

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, opts, httpClient, logger)
	case "telegram":
		if !cfg.TelegramConfigured() {
			logger.Warn("telegram credentials missing, notifications will only be logged",
				"token_env", config.TelegramTokenEnv,
				"chat_env", config.TelegramChatIDEnv,
			)
			return notifier.NewLogNotifier(logger)
		}
		logger.Info("using telegram notifier")
		return notifier.NewTelegramNotifier(
			cfg.Notification.TelegramURL,
			cfg.Notification.BotToken,
			cfg.Notification.ChatID,
			opts, httpClient, logger,
		).WithLimiter(ratelimit.NewLimiter(time.Second))
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupStore opens the configured listing store. The returned close func is
// always non-nil.
func setupStore(cfg *config.Config, logger *slog.Logger) (model.ListingStore, func() error, error) {
	switch cfg.Store.Type {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := store.NewSQLiteStore(cfg.Store.Path, cfg.Store.Retention, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return store.NewJSONStore(cfg.Store.Path, cfg.Store.Retention, logger), func() error { return nil }, nil
	}
}

func setupSearcher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Searcher {
	client := search.NewSerpAPIClient(cfg.Search, httpClient)
	logger.Debug("search query", "q", client.Query())
	return retry.NewRetrySearcher(client, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
}

func setupExtractor(cfg *config.Config, logger *slog.Logger) model.Extractor {
	provider := ai.NewOpenAIProvider(
		cfg.AI.BaseURL,
		cfg.AI.APIKey,
		cfg.AI.Model,
		cfg.AI.Temperature,
		cfg.AI.MaxTokens,
		&http.Client{Timeout: cfg.AI.Timeout},
	)
	return ai.NewLLMExtractor(provider, ai.ExtractListingsTemplate, ai.ExtractorOptions{
		Label:          cfg.Search.Label,
		Roles:          cfg.Search.Roles,
		Locations:      cfg.Search.Locations,
		MaxResults:     cfg.AI.MaxResults,
		MaxPromptChars: cfg.AI.MaxPromptChars,
		Location:       cfg.Location,
	}, logger)
}

func setupFilter(cfg *config.Config) *filter.ListingFilter {
	return filter.NewListingFilter(
		cfg.Filters.TitleKeywords,
		cfg.Filters.TitleExcludeKeywords,
		cfg.Filters.ExcludeDomains,
	)
}

func setupDashboard(cfg *config.Config, st model.ListingStore, logger *slog.Logger) *dashboard.Generator {
	return dashboard.NewGenerator(st, cfg.Dashboard.OutputDir, dashboard.Options{
		MaxListings:    cfg.Dashboard.MaxListings,
		MaxAPIListings: cfg.Dashboard.MaxAPIListings,
		Title:          cfg.Dashboard.Title,
		Subtitle:       cfg.Dashboard.Subtitle,
		SourceURL:      cfg.Dashboard.SourceURL,
	}, cfg.Location, logger)
}

func buildRunner(cfg *config.Config, st model.ListingStore, n model.Notifier, httpClient *http.Client, logger *slog.Logger) *pipeline.Runner {
	return pipeline.NewRunner(
		setupSearcher(cfg, httpClient, logger),
		setupExtractor(cfg, logger),
		setupFilter(cfg),
		st,
		n,
		logger,
	)
}
