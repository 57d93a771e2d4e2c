package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// withTempConfig points XDG_CONFIG_HOME at a temp dir for the test.
func withTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	withTempConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if cfg.AI.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.AI.MaxRetries)
	}
	if cfg.Insights.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want default 90", cfg.Insights.RetentionDays)
	}
	if cfg.Appearance.Theme != "flexoki-dark" {
		t.Errorf("Theme = %q", cfg.Appearance.Theme)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	withTempConfig(t)

	cfg := DefaultConfig()
	cfg.AI.Model = "claude-test-model"
	cfg.AI.MaxTokens = 120
	cfg.Insights.RetentionDays = 30

	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AI.Model != "claude-test-model" || loaded.AI.MaxTokens != 120 {
		t.Errorf("AI section round trip mismatch: %+v", loaded.AI)
	}
	if loaded.Insights.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want 30", loaded.Insights.RetentionDays)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := withTempConfig(t)

	path := filepath.Join(dir, "focuslog", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[ai]\nmodel = \"custom\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AI.Model != "custom" {
		t.Errorf("Model = %q, want custom", cfg.AI.Model)
	}
	// Unspecified fields keep their defaults.
	if cfg.AI.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.AI.MaxRetries)
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.APIKey = "from-config"

	t.Setenv("FOCUSLOG_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	if got := APIKey(cfg); got != "from-config" {
		t.Errorf("APIKey = %q, want config value", got)
	}

	t.Setenv("ANTHROPIC_API_KEY", "from-anthropic-env")
	if got := APIKey(cfg); got != "from-anthropic-env" {
		t.Errorf("APIKey = %q, want ANTHROPIC_API_KEY", got)
	}

	t.Setenv("FOCUSLOG_API_KEY", "from-focuslog-env")
	if got := APIKey(cfg); got != "from-focuslog-env" {
		t.Errorf("APIKey = %q, want FOCUSLOG_API_KEY first", got)
	}
}

func TestTextgenConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.BaseDelayMs = 500
	cfg.AI.MinIntervalMs = 2000

	tc := TextgenConfig(cfg)
	if tc.BaseDelay.Milliseconds() != 500 {
		t.Errorf("BaseDelay = %v", tc.BaseDelay)
	}
	if tc.MinInterval.Milliseconds() != 2000 {
		t.Errorf("MinInterval = %v", tc.MinInterval)
	}
}

func TestInsightPolicyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Insights.DailyMaxAgeHours = 6
	cfg.Insights.ActivityMaxAgeHours = 48

	p := InsightPolicy(cfg)
	if p.Daily != 6*time.Hour {
		t.Errorf("Daily = %v, want 6h", p.Daily)
	}
	if p.Activity != 48*time.Hour {
		t.Errorf("Activity = %v, want 48h", p.Activity)
	}
	// Untouched windows keep their defaults.
	if p.Weekly != 7*24*time.Hour {
		t.Errorf("Weekly = %v, want 168h", p.Weekly)
	}
}
