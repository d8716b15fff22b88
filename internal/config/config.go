package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that carry secrets or deployment details.
const (
	SearchAPIKeyEnv     = "SERPAPI_KEY"
	ModelAPIKeyEnv      = "GROQ_API_KEY"
	TelegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	TelegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	GitHubRepositoryEnv = "GITHUB_REPOSITORY"
)

// Config is the root configuration for jobpulse. It is built once at startup
// and handed to each stage explicitly.
type Config struct {
	PollingInterval time.Duration
	Location        *time.Location // timezone used for "today" and timestamps
	HTTPTimeout     time.Duration
	Search          SearchConfig
	AI              AIConfig
	Store           StoreConfig
	Filters         FilterConfig
	Notification    NotificationConfig
	Dashboard       DashboardConfig
	Retry           RetryConfig
}

// SearchConfig describes the search provider call and the query terms.
type SearchConfig struct {
	Endpoint  string
	APIKey    string // from SERPAPI_KEY
	Engine    string
	Num       int
	Country   string
	Language  string
	Recency   string // provider time filter, "qdr:d" = last 24 hours
	Label     string // human role label used in prompts and messages
	Sites     []string
	Roles     []string
	Locations []string
}

// AIConfig controls the listing extraction model.
type AIConfig struct {
	BaseURL        string // OpenAI-compatible base URL
	Model          string
	APIKey         string // from GROQ_API_KEY
	Temperature    float64
	MaxTokens      int
	MaxResults     int // raw results handed to the model
	MaxPromptChars int // cap on the serialized results embedded in the prompt
	Timeout        time.Duration
}

// StoreConfig selects the listing store backend.
type StoreConfig struct {
	Type      string // "json" or "sqlite"
	Path      string
	Retention int
}

// FilterConfig holds the local keyword guard applied after extraction.
type FilterConfig struct {
	TitleKeywords        []string
	TitleExcludeKeywords []string
	ExcludeDomains       []string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type         string // "telegram", "slack" or "log"
	BotToken     string // from TELEGRAM_BOT_TOKEN
	ChatID       string // from TELEGRAM_CHAT_ID
	TelegramURL  string // bot API base URL
	WebhookURL   string // required if type is "slack"
	MaxListed    int
	TitleMaxLen  int
	DashboardURL string
}

// DashboardConfig controls the generated static artifacts.
type DashboardConfig struct {
	OutputDir      string
	MaxListings    int
	MaxAPIListings int
	Title          string
	Subtitle       string
	SourceURL      string // footer link to the repository
}

// RetryConfig controls retries of the search call.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	PollingInterval string                `yaml:"polling_interval"`
	Timezone        string                `yaml:"timezone"`
	HTTPTimeout     string                `yaml:"http_timeout"`
	Search          rawSearchConfig       `yaml:"search"`
	AI              rawAIConfig           `yaml:"ai"`
	Store           rawStoreConfig        `yaml:"store"`
	Filters         rawFilterConfig       `yaml:"filters"`
	Notification    rawNotificationConfig `yaml:"notification"`
	Dashboard       rawDashboardConfig    `yaml:"dashboard"`
	Retry           rawRetryConfig        `yaml:"retry"`
}

type rawSearchConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Engine    string   `yaml:"engine"`
	Num       int      `yaml:"num"`
	Country   string   `yaml:"country"`
	Language  string   `yaml:"language"`
	Recency   string   `yaml:"recency"`
	Label     string   `yaml:"label"`
	Sites     []string `yaml:"sites"`
	Roles     []string `yaml:"roles"`
	Locations []string `yaml:"locations"`
}

type rawAIConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	MaxResults     int     `yaml:"max_results"`
	MaxPromptChars int     `yaml:"max_prompt_chars"`
	Timeout        string  `yaml:"timeout"`
}

type rawStoreConfig struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	Retention int    `yaml:"retention"`
}

type rawFilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	ExcludeDomains       []string `yaml:"exclude_domains"`
}

type rawNotificationConfig struct {
	Type         string `yaml:"type"`
	TelegramURL  string `yaml:"telegram_url"`
	WebhookURL   string `yaml:"webhook_url"`
	MaxListed    int    `yaml:"max_listed"`
	TitleMaxLen  int    `yaml:"title_max_len"`
	DashboardURL string `yaml:"dashboard_url"`
}

type rawDashboardConfig struct {
	OutputDir      string `yaml:"output_dir"`
	MaxListings    int    `yaml:"max_listings"`
	MaxAPIListings int    `yaml:"max_api_listings"`
	Title          string `yaml:"title"`
	Subtitle       string `yaml:"subtitle"`
	SourceURL      string `yaml:"source_url"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load builds the configuration. When path is non-empty the YAML file at path
// is read and layered over the defaults; secrets always come from the
// environment.
func Load(path string) (*Config, error) {
	raw := defaultRaw()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg, err := raw.resolve()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw rawConfig) resolve() (*Config, error) {
	interval, err := time.ParseDuration(raw.PollingInterval)
	if err != nil {
		return nil, fmt.Errorf("parse polling_interval %q: %w", raw.PollingInterval, err)
	}

	httpTimeout, err := time.ParseDuration(raw.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse http_timeout %q: %w", raw.HTTPTimeout, err)
	}

	aiTimeout, err := time.ParseDuration(raw.AI.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
	}

	baseDelay, err := time.ParseDuration(raw.Retry.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
	}

	loc, err := time.LoadLocation(raw.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", raw.Timezone, err)
	}

	maxRetries := 2
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	return &Config{
		PollingInterval: interval,
		Location:        loc,
		HTTPTimeout:     httpTimeout,
		Search: SearchConfig{
			Endpoint:  raw.Search.Endpoint,
			Engine:    raw.Search.Engine,
			Num:       raw.Search.Num,
			Country:   raw.Search.Country,
			Language:  raw.Search.Language,
			Recency:   raw.Search.Recency,
			Label:     raw.Search.Label,
			Sites:     raw.Search.Sites,
			Roles:     raw.Search.Roles,
			Locations: raw.Search.Locations,
		},
		AI: AIConfig{
			BaseURL:        strings.TrimRight(raw.AI.BaseURL, "/"),
			Model:          raw.AI.Model,
			Temperature:    raw.AI.Temperature,
			MaxTokens:      raw.AI.MaxTokens,
			MaxResults:     raw.AI.MaxResults,
			MaxPromptChars: raw.AI.MaxPromptChars,
			Timeout:        aiTimeout,
		},
		Store: StoreConfig{
			Type:      strings.ToLower(raw.Store.Type),
			Path:      raw.Store.Path,
			Retention: raw.Store.Retention,
		},
		Filters: FilterConfig{
			TitleKeywords:        raw.Filters.TitleKeywords,
			TitleExcludeKeywords: raw.Filters.TitleExcludeKeywords,
			ExcludeDomains:       raw.Filters.ExcludeDomains,
		},
		Notification: NotificationConfig{
			Type:         strings.ToLower(raw.Notification.Type),
			TelegramURL:  strings.TrimRight(raw.Notification.TelegramURL, "/"),
			WebhookURL:   raw.Notification.WebhookURL,
			MaxListed:    raw.Notification.MaxListed,
			TitleMaxLen:  raw.Notification.TitleMaxLen,
			DashboardURL: raw.Notification.DashboardURL,
		},
		Dashboard: DashboardConfig{
			OutputDir:      raw.Dashboard.OutputDir,
			MaxListings:    raw.Dashboard.MaxListings,
			MaxAPIListings: raw.Dashboard.MaxAPIListings,
			Title:          raw.Dashboard.Title,
			Subtitle:       raw.Dashboard.Subtitle,
			SourceURL:      raw.Dashboard.SourceURL,
		},
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  baseDelay,
		},
	}, nil
}

// applyEnv copies secrets from the process environment into cfg.
func (c *Config) applyEnv() {
	c.Search.APIKey = strings.TrimSpace(os.Getenv(SearchAPIKeyEnv))
	c.AI.APIKey = strings.TrimSpace(os.Getenv(ModelAPIKeyEnv))
	c.Notification.BotToken = strings.TrimSpace(os.Getenv(TelegramTokenEnv))
	c.Notification.ChatID = strings.TrimSpace(os.Getenv(TelegramChatIDEnv))

	if c.Notification.DashboardURL == "" {
		c.Notification.DashboardURL = DashboardURLFromRepository(os.Getenv(GitHubRepositoryEnv))
	}
	if c.Dashboard.SourceURL == "" {
		if repo := strings.TrimSpace(os.Getenv(GitHubRepositoryEnv)); strings.Contains(repo, "/") {
			c.Dashboard.SourceURL = "https://github.com/" + repo
		}
	}
}

// DashboardURLFromRepository derives the GitHub Pages URL for an "owner/repo" slug.
// Returns "" for an empty or malformed slug.
func DashboardURLFromRepository(repo string) string {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.github.io/%s", owner, name)
}

// RequireSearchSecrets reports the environment variables a search run needs
// but that are unset.
func (c *Config) RequireSearchSecrets() error {
	var missing []string
	if c.Search.APIKey == "" {
		missing = append(missing, SearchAPIKeyEnv)
	}
	if c.AI.APIKey == "" {
		missing = append(missing, ModelAPIKeyEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Warnings reports settings that are valid but degrade the output.
func (c *Config) Warnings() []string {
	var out []string
	if c.Notification.Type != "log" && c.Notification.DashboardURL == "" {
		out = append(out, fmt.Sprintf(
			"no dashboard link in notifications: set notification.dashboard_url or %s=owner/repo",
			GitHubRepositoryEnv,
		))
	}
	return out
}

// TelegramConfigured reports whether both Telegram credentials are present.
func (c *Config) TelegramConfigured() bool {
	return c.Notification.BotToken != "" && c.Notification.ChatID != ""
}

func validate(cfg *Config) error {
	if cfg.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %v", cfg.PollingInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}

	if cfg.Search.Endpoint == "" {
		return fmt.Errorf("search.endpoint is required")
	}
	if len(cfg.Search.Sites) == 0 || len(cfg.Search.Roles) == 0 {
		return fmt.Errorf("search.sites and search.roles must not be empty")
	}

	if cfg.AI.BaseURL == "" || cfg.AI.Model == "" {
		return fmt.Errorf("ai.base_url and ai.model are required")
	}
	if cfg.AI.MaxResults <= 0 || cfg.AI.MaxPromptChars <= 0 || cfg.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_results, ai.max_prompt_chars and ai.max_tokens must be positive")
	}

	switch cfg.Store.Type {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.type must be \"json\" or \"sqlite\", got %q", cfg.Store.Type)
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if cfg.Store.Retention <= 0 {
		return fmt.Errorf("store.retention must be positive, got %d", cfg.Store.Retention)
	}

	switch cfg.Notification.Type {
	case "telegram", "log":
	case "slack":
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/ when type is \"slack\"")
		}
	default:
		return fmt.Errorf("notification.type must be \"telegram\", \"slack\" or \"log\", got %q", cfg.Notification.Type)
	}
	if cfg.Notification.MaxListed <= 0 || cfg.Notification.TitleMaxLen <= 0 {
		return fmt.Errorf("notification.max_listed and notification.title_max_len must be positive")
	}

	if cfg.Dashboard.OutputDir == "" {
		return fmt.Errorf("dashboard.output_dir is required")
	}
	if cfg.Dashboard.MaxListings <= 0 || cfg.Dashboard.MaxAPIListings <= 0 {
		return fmt.Errorf("dashboard.max_listings and dashboard.max_api_listings must be positive")
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	return nil
}
