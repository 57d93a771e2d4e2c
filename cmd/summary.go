package cmd

import (
	"fmt"
	"time"

	"github.com/airraman/focuslog/internal/cli"
	"github.com/airraman/focuslog/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryDays int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Focus time summary with trends",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVarP(&summaryDays, "days", "n", 7, "Time window in days")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if summaryDays <= 0 {
		summaryDays = 7
	}

	now := time.Now()
	since := now.AddDate(0, 0, -summaryDays)
	prevSince := since.AddDate(0, 0, -summaryDays)

	sessions, err := db.SessionsByRange(since, now, "")
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions in the selected time range.")
		fmt.Println("  Record one with `focuslog log <activity> --minutes 25`.")
		return nil
	}

	previous, err := db.SessionsByRange(prevSince, since, "")
	if err != nil {
		return err
	}

	summary := pipeline.Aggregate(sessions, pipeline.AggregateOptions{
		WithTrends:     len(previous) > 0,
		PreviousPeriod: previous,
	})

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FOCUS TIME  Last %dd", summaryDays)))
	fmt.Println()

	rows := [][]string{
		{"Sessions", cli.FormatNumber(int64(summary.TotalSessions))},
		{"Total Time", cli.FormatHours(summary.TotalHours)},
		{"Avg Session", fmt.Sprintf("%.0fm", summary.AvgSessionMins)},
		{"With Notes", cli.FormatPercent(summary.DescriptionDensity)},
	}

	if summary.Trends != nil {
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{
			"vs Previous",
			fmt.Sprintf("%s sessions, %s (%+.1f%%)",
				cli.FormatSignedCount(summary.Trends.SessionCountChange),
				cli.FormatSignedHours(summary.Trends.HoursChange),
				summary.Trends.PercentageChange,
			),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(summary.TopActivities) > 0 {
		fmt.Println()
		actRows := make([][]string, 0, len(summary.TopActivities))
		maxHours := summary.TopActivities[0].Hours
		for _, a := range summary.TopActivities {
			stats := summary.Activities[a.Activity]
			count := 0
			if stats != nil {
				count = stats.SessionCount
			}
			actRows = append(actRows, []string{
				cli.Truncate(a.Activity, 14),
				cli.FormatNumber(int64(count)),
				cli.FormatHours(a.Hours),
				cli.RenderHorizontalBar(a.Activity, a.Hours, maxHours, 16),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Top Activities",
			Headers: []string{"Activity", "Sessions", "Hours", ""},
			Rows:    actRows,
		}))
	}

	return nil
}
