package cmd

import (
	"fmt"

	"github.com/airraman/focuslog/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory:   %s\n", cfg.DataDir())
	if cfg.General.DefaultActivity != "" {
		fmt.Printf("    Default activity: %s\n", cfg.General.DefaultActivity)
	} else {
		fmt.Println("    Default activity: not set")
	}
	fmt.Println()

	fmt.Println("  [AI]")
	apiKey := config.APIKey(cfg)
	if apiKey != "" {
		fmt.Printf("    API key:     %s\n", maskAPIKey(apiKey))
	} else {
		fmt.Println("    API key:     not configured")
	}
	fmt.Printf("    Model:       %s\n", cfg.AI.Model)
	fmt.Printf("    Max tokens:  %d\n", cfg.AI.MaxTokens)
	fmt.Printf("    Temperature: %.1f\n", cfg.AI.Temperature)
	fmt.Println()

	fmt.Println("  [Insights]")
	fmt.Printf("    Retention: %d days\n", cfg.Insights.RetentionDays)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `focuslog setup` to reconfigure.")
	return nil
}
