package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, k := range []string{SearchAPIKeyEnv, ModelAPIKeyEnv, TelegramTokenEnv, TelegramChatIDEnv, GitHubRepositoryEnv} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 24*time.Hour {
		t.Errorf("PollingInterval = %v, want 24h", cfg.PollingInterval)
	}
	if cfg.Store.Retention != 200 || cfg.Store.Path != "data/jobs.json" || cfg.Store.Type != "json" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.AI.MaxResults != 30 || cfg.AI.MaxPromptChars != 4000 {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.Notification.MaxListed != 5 || cfg.Notification.TitleMaxLen != 50 {
		t.Errorf("Notification = %+v", cfg.Notification)
	}
	if cfg.Dashboard.MaxListings != 100 || cfg.Dashboard.MaxAPIListings != 50 {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
	if cfg.Search.Recency != "qdr:d" {
		t.Errorf("Recency = %q, want qdr:d", cfg.Search.Recency)
	}
	if cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("Location = %v, want Asia/Kolkata", cfg.Location)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Retry.MaxRetries)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearSecrets(t)
	path := writeConfig(t, `
polling_interval: 6h
search:
  label: Data Engineer
  roles:
    - data engineer
store:
  type: sqlite
  path: data/jobs.db
  retention: 50
retry:
  max_retries: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollingInterval != 6*time.Hour {
		t.Errorf("PollingInterval = %v, want 6h", cfg.PollingInterval)
	}
	if len(cfg.Search.Roles) != 1 || cfg.Search.Roles[0] != "data engineer" {
		t.Errorf("Roles = %v", cfg.Search.Roles)
	}
	if len(cfg.Search.Sites) == 0 {
		t.Error("Sites should keep defaults when not set in file")
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Retention != 50 {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.Retry.MaxRetries)
	}
}

func TestLoad_SecretsFromEnvironment(t *testing.T) {
	clearSecrets(t)
	t.Setenv(SearchAPIKeyEnv, "serp-key")
	t.Setenv(ModelAPIKeyEnv, "groq-key")
	t.Setenv(TelegramTokenEnv, "bot-token")
	t.Setenv(TelegramChatIDEnv, "12345")
	t.Setenv(GitHubRepositoryEnv, "octo/pm-jobs")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.APIKey != "serp-key" || cfg.AI.APIKey != "groq-key" {
		t.Errorf("api keys = %q / %q", cfg.Search.APIKey, cfg.AI.APIKey)
	}
	if !cfg.TelegramConfigured() {
		t.Error("expected telegram to be configured")
	}
	if cfg.Notification.DashboardURL != "https://octo.github.io/pm-jobs" {
		t.Errorf("DashboardURL = %q", cfg.Notification.DashboardURL)
	}
	if cfg.Dashboard.SourceURL != "https://github.com/octo/pm-jobs" {
		t.Errorf("SourceURL = %q", cfg.Dashboard.SourceURL)
	}
	if err := cfg.RequireSearchSecrets(); err != nil {
		t.Errorf("RequireSearchSecrets: %v", err)
	}
}

func TestRequireSearchSecrets_ReportsMissing(t *testing.T) {
	clearSecrets(t)
	t.Setenv(SearchAPIKeyEnv, "serp-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.RequireSearchSecrets()
	if err == nil {
		t.Fatal("expected error for missing model key")
	}
	if !strings.Contains(err.Error(), ModelAPIKeyEnv) || strings.Contains(err.Error(), SearchAPIKeyEnv) {
		t.Errorf("error = %q, want only %s listed", err, ModelAPIKeyEnv)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "polling_interval: [broken")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero polling interval", "polling_interval: 0s\n"},
		{"unknown store type", "store:\n  type: redis\n"},
		{"zero retention", "store:\n  retention: 0\n"},
		{"slack without webhook", "notification:\n  type: slack\n"},
		{"unknown notifier", "notification:\n  type: email\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"empty roles", "search:\n  roles: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSecrets(t)
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("Load: expected validation error")
			}
		})
	}
}

func TestDashboardURLFromRepository(t *testing.T) {
	tests := map[string]string{
		"owner/repo": "https://owner.github.io/repo",
		"":           "",
		"noslash":    "",
		"/repo":      "",
	}
	for in, want := range tests {
		if got := DashboardURLFromRepository(in); got != want {
			t.Errorf("DashboardURLFromRepository(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWarnings_MissingDashboardURL(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	warnings := cfg.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], GitHubRepositoryEnv) {
		t.Errorf("Warnings() = %v, want one dashboard link warning", warnings)
	}

	t.Setenv(GitHubRepositoryEnv, "octo/pm-jobs")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w := cfg.Warnings(); len(w) != 0 {
		t.Errorf("Warnings() = %v, want none when the repository is set", w)
	}
}

func TestWarnings_ExplicitDashboardURL(t *testing.T) {
	clearSecrets(t)
	path := writeConfig(t, "notification:\n  dashboard_url: https://jobs.example.com\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if w := cfg.Warnings(); len(w) != 0 {
		t.Errorf("Warnings() = %v, want none", w)
	}
}
