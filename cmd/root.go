// Package cmd implements the focuslog CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/airraman/focuslog/internal/config"
	"github.com/airraman/focuslog/internal/insight"
	"github.com/airraman/focuslog/internal/store"
	"github.com/airraman/focuslog/internal/textgen"

	"github.com/spf13/cobra"
)

var (
	flagDataDir string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "focuslog",
	Short: "Focus session tracker with AI insights",
	Long:  "Track focus sessions, review your time, and get short AI-generated reflections on your patterns.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Override the data directory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	return cfg, nil
}

// openStore opens the session database for the configured data directory.
// The caller owns the returned store and must Close it.
func openStore(cfg config.Config) (*store.Store, error) {
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", cfg.DBPath(), err)
	}
	return db, nil
}

// buildGenerator wires the insight pipeline over the store and the text
// service. Requires a configured API key.
func buildGenerator(cfg config.Config, db *store.Store) (*insight.Generator, error) {
	if config.APIKey(cfg) == "" {
		return nil, insight.ErrNoAPIKey
	}
	client := textgen.NewClient(config.TextgenConfig(cfg))
	return insight.New(db, db, client, config.InsightPolicy(cfg)), nil
}
