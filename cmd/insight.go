package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/airraman/focuslog/internal/cli"
	"github.com/airraman/focuslog/internal/insight"
	"github.com/airraman/focuslog/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagInsightForce    bool
	flagInsightAt       string
	flagInsightActivity string
)

var insightCmd = &cobra.Command{
	Use:   "insight [daily|weekly|monthly|activity <name>]",
	Short: "Generate an AI reflection on your focus patterns",
	Long: "Generate a short reflection for a time period. Results are cached and\n" +
		"reused while the underlying sessions are unchanged; --force regenerates.",
	Args: cobra.RangeArgs(0, 2),
	RunE: runInsight,
}

var insightListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the latest cached insight per type",
	RunE:  runInsightList,
}

var insightPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached insights past the retention window",
	RunE:  runInsightPrune,
}

func init() {
	insightCmd.Flags().BoolVarP(&flagInsightForce, "force", "f", false, "Regenerate even if a fresh cache entry exists")
	insightCmd.Flags().StringVar(&flagInsightAt, "at", "", "Resolve the period against this instant (RFC 3339) instead of now")
	insightCmd.Flags().StringVarP(&flagInsightActivity, "activity", "a", "", "Shorthand for `insight activity <name>`")
	insightCmd.AddCommand(insightListCmd)
	insightCmd.AddCommand(insightPruneCmd)
	rootCmd.AddCommand(insightCmd)
}

// insightTypeFromArgs maps CLI arguments to an insight type.
func insightTypeFromArgs(args []string) (model.InsightType, error) {
	if len(args) == 0 {
		return model.InsightWeekly, nil
	}
	switch strings.ToLower(args[0]) {
	case "daily":
		return model.InsightDaily, nil
	case "weekly":
		return model.InsightWeekly, nil
	case "monthly":
		return model.InsightMonthly, nil
	case "activity":
		if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
			return "", errors.New("usage: focuslog insight activity <name>")
		}
		return model.ActivityInsightType(args[1]), nil
	default:
		return "", fmt.Errorf("unknown insight period %q (want daily, weekly, monthly, or activity)", args[0])
	}
}

func runInsight(cmd *cobra.Command, args []string) error {
	var t model.InsightType
	var err error
	if flagInsightActivity != "" && len(args) == 0 {
		t = model.ActivityInsightType(flagInsightActivity)
	} else {
		t, err = insightTypeFromArgs(args)
		if err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	gen, err := buildGenerator(cfg, db)
	if err != nil {
		if errors.Is(err, insight.ErrNoAPIKey) {
			fmt.Println()
			fmt.Println("  No API key configured.")
			fmt.Println("  Set ANTHROPIC_API_KEY, or run `focuslog setup`.")
			fmt.Println()
			return nil
		}
		return err
	}

	opts := insight.GenerateOptions{Force: flagInsightForce}
	if flagInsightAt != "" {
		opts.Reference, err = time.Parse(time.RFC3339, flagInsightAt)
		if err != nil {
			return fmt.Errorf("parsing --at: %w", err)
		}
	}

	if !flagQuiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "  Generating insight...")
	}

	result, err := gen.Generate(cmd.Context(), t, opts)
	if err != nil {
		return err
	}

	title := insightTitle(t)
	fmt.Println()
	fmt.Println(cli.RenderInsight(title, result.Metadata.TimePeriod.Label, result.Text, result.Metadata.FromCache))
	fmt.Println()

	if !result.Success {
		return fmt.Errorf("insight generation degraded: %s", result.Metadata.Err)
	}
	return nil
}

func insightTitle(t model.InsightType) string {
	if a, ok := t.Activity(); ok {
		return strings.ToUpper(a) + " · WEEKLY"
	}
	switch t {
	case model.InsightDaily:
		return "DAILY REFLECTION"
	case model.InsightWeekly:
		return "WEEKLY REFLECTION"
	case model.InsightMonthly:
		return "MONTHLY REFLECTION"
	default:
		return strings.ToUpper(string(t))
	}
}

func runInsightList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	insights, err := db.LatestInsights()
	if err != nil {
		return err
	}
	if len(insights) == 0 {
		fmt.Println("\n  No cached insights yet. Run `focuslog insight` first.")
		return nil
	}

	rows := make([][]string, 0, len(insights))
	for _, ci := range insights {
		rows = append(rows, []string{
			string(ci.InsightType),
			ci.GeneratedAt.Local().Format("Jan 02 15:04"),
			cli.Truncate(ci.InsightText, 48),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Type", "Generated", "Text"},
		Rows:    rows,
	}))
	return nil
}

func runInsightPrune(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	retention := cfg.Insights.RetentionDays
	if retention <= 0 {
		retention = 90
	}
	cutoff := time.Now().AddDate(0, 0, -retention)

	removed, err := db.PruneInsights(cutoff)
	if err != nil {
		return fmt.Errorf("pruning insights: %w", err)
	}

	if !flagQuiet {
		fmt.Printf("  Removed %d cached insights older than %d days\n", removed, retention)
	}
	return nil
}
