package cmd

import (
	"errors"
	"fmt"

	"github.com/airraman/focuslog/internal/cli"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent focus sessions",
	RunE:  runSessions,
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a session by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRm,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	sessionsCmd.AddCommand(sessionsRmCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sessions, err := db.RecentSessions(sessionsLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions logged yet. Record one with `focuslog log`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  most recent %d", len(sessions))))
	fmt.Println()

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			cli.FormatTimeRange(s.StartTime.Local(), s.EndTime.Local()),
			cli.Truncate(s.ActivityType, 14),
			cli.FormatDuration(s.DurationSecs),
			cli.Truncate(s.Description, 32),
			cli.Truncate(s.ID, 8),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"When", "Activity", "Duration", "Note", "ID"},
		Rows:    rows,
	}))

	return nil
}

func runSessionsRm(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	id := args[0]
	if id == "" {
		return errors.New("empty session id")
	}
	if err := db.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}

	if !flagQuiet {
		fmt.Printf("  Deleted session %s\n", id)
	}
	return nil
}
