// Package config loads and persists focuslog configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/airraman/focuslog/internal/insight"
	"github.com/airraman/focuslog/internal/textgen"
)

// Config holds all focuslog configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	AI         AIConfig         `toml:"ai"`
	Insights   InsightsConfig   `toml:"insights"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	// DataDir overrides where the session database lives.
	DataDir string `toml:"data_dir,omitempty"`
	// DefaultActivity preselects an activity for `focuslog log`.
	DefaultActivity string `toml:"default_activity,omitempty"`
}

// AIConfig holds text-generation service settings. The API key can also come
// from FOCUSLOG_API_KEY or ANTHROPIC_API_KEY, which take precedence.
type AIConfig struct {
	APIKey             string  `toml:"api_key,omitempty"`
	BaseURL            string  `toml:"base_url,omitempty"`
	Model              string  `toml:"model,omitempty"`
	MaxTokens          int     `toml:"max_tokens,omitempty"`
	Temperature        float64 `toml:"temperature,omitempty"`
	MaxRetries         int     `toml:"max_retries,omitempty"`
	BaseDelayMs        int     `toml:"base_delay_ms,omitempty"`
	MinIntervalMs      int     `toml:"min_interval_ms,omitempty"`
	RequestTimeoutSecs int     `toml:"request_timeout_secs,omitempty"`
}

// InsightsConfig holds cache lifecycle settings.
type InsightsConfig struct {
	// RetentionDays bounds how long generated insights stay in the cache
	// before the prune sweep removes them.
	RetentionDays int `toml:"retention_days"`
	// Freshness window overrides, in hours. Zero keeps the default for
	// that insight type.
	DailyMaxAgeHours    int `toml:"daily_max_age_hours,omitempty"`
	WeeklyMaxAgeHours   int `toml:"weekly_max_age_hours,omitempty"`
	MonthlyMaxAgeHours  int `toml:"monthly_max_age_hours,omitempty"`
	ActivityMaxAgeHours int `toml:"activity_max_age_hours,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			Model:         "claude-3-5-haiku-latest",
			MaxTokens:     300,
			Temperature:   0.7,
			MaxRetries:    3,
			BaseDelayMs:   1000,
			MinIntervalMs: 1000,
		},
		Insights: InsightsConfig{
			RetentionDays: 90,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "focuslog")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "focuslog")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding the session database, honoring the
// config override, then XDG, then the home fallback.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return c.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "focuslog")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "focuslog")
}

// DBPath returns the full path to the session database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir(), "focuslog.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// APIKey returns the credential from env vars or config, in that order.
func APIKey(cfg Config) string {
	if key := os.Getenv("FOCUSLOG_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	return cfg.AI.APIKey
}

// TextgenConfig converts the AI section into the client's config shape.
func TextgenConfig(cfg Config) textgen.Config {
	return textgen.Config{
		APIKey:         APIKey(cfg),
		BaseURL:        cfg.AI.BaseURL,
		Model:          cfg.AI.Model,
		MaxTokens:      cfg.AI.MaxTokens,
		Temperature:    cfg.AI.Temperature,
		MaxRetries:     cfg.AI.MaxRetries,
		BaseDelay:      time.Duration(cfg.AI.BaseDelayMs) * time.Millisecond,
		MinInterval:    time.Duration(cfg.AI.MinIntervalMs) * time.Millisecond,
		RequestTimeout: time.Duration(cfg.AI.RequestTimeoutSecs) * time.Second,
	}
}

// InsightPolicy converts the insights section into freshness windows,
// keeping the defaults where no override is set.
func InsightPolicy(cfg Config) insight.Policy {
	p := insight.DefaultPolicy()
	if h := cfg.Insights.DailyMaxAgeHours; h > 0 {
		p.Daily = time.Duration(h) * time.Hour
	}
	if h := cfg.Insights.WeeklyMaxAgeHours; h > 0 {
		p.Weekly = time.Duration(h) * time.Hour
	}
	if h := cfg.Insights.MonthlyMaxAgeHours; h > 0 {
		p.Monthly = time.Duration(h) * time.Hour
	}
	if h := cfg.Insights.ActivityMaxAgeHours; h > 0 {
		p.Activity = time.Duration(h) * time.Hour
	}
	return p
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
