package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/airraman/focuslog/internal/config"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to focuslog!")
	fmt.Println()

	// 1. API key
	fmt.Println("  1. Anthropic API key")
	fmt.Println("     Needed for AI-generated insights. Sessions work without it.")
	existing := config.APIKey(cfg)
	if existing != "" {
		fmt.Printf("     Current: %s\n", maskAPIKey(existing))
	}
	fmt.Print("     > ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	fmt.Println()

	// 2. Model
	fmt.Println("  2. Insight model")
	fmt.Println("     (1) claude-3-5-haiku-latest [default, fast]")
	fmt.Println("     (2) claude-sonnet-4-5")
	fmt.Print("     > ")
	modelChoice, _ := reader.ReadString('\n')
	modelChoice = strings.TrimSpace(modelChoice)
	switch modelChoice {
	case "2":
		cfg.AI.Model = "claude-sonnet-4-5"
	default:
		cfg.AI.Model = "claude-3-5-haiku-latest"
	}
	fmt.Println()

	// 3. Default activity
	fmt.Println("  3. Default activity for `focuslog log`")
	if cfg.General.DefaultActivity != "" {
		fmt.Printf("     Current: %s\n", cfg.General.DefaultActivity)
	}
	fmt.Print("     > ")
	activity, _ := reader.ReadString('\n')
	activity = strings.TrimSpace(activity)
	if activity != "" {
		cfg.General.DefaultActivity = activity
	}
	fmt.Println()

	// 4. Theme
	fmt.Println("  4. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Catppuccin Mocha")
	fmt.Println("     (3) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	themeChoice = strings.TrimSpace(themeChoice)
	switch themeChoice {
	case "2":
		cfg.Appearance.Theme = "catppuccin-mocha"
	case "3":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `focuslog setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
