package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/airraman/focuslog/internal/cli"
	"github.com/airraman/focuslog/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	flagLogMinutes int
	flagLogNote    string
	flagLogEnd     string
)

var logCmd = &cobra.Command{
	Use:   "log [activity]",
	Short: "Record a completed focus session",
	Long: "Record a focus session that just finished. The activity defaults to the\n" +
		"configured default_activity; --end backdates the session end time.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVarP(&flagLogMinutes, "minutes", "m", 25, "Session length in minutes")
	logCmd.Flags().StringVar(&flagLogNote, "note", "", "What the session was spent on")
	logCmd.Flags().StringVar(&flagLogEnd, "end", "", "Session end time (RFC 3339), defaults to now")
	rootCmd.AddCommand(logCmd)
}

func runLog(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	activity := cfg.General.DefaultActivity
	if len(args) > 0 {
		activity = strings.TrimSpace(args[0])
	}
	if activity == "" {
		return errors.New("no activity given and no default_activity configured")
	}
	if flagLogMinutes <= 0 {
		return fmt.Errorf("invalid session length: %d minutes", flagLogMinutes)
	}

	end := time.Now()
	if flagLogEnd != "" {
		end, err = time.Parse(time.RFC3339, flagLogEnd)
		if err != nil {
			return fmt.Errorf("parsing --end: %w", err)
		}
	}

	duration := time.Duration(flagLogMinutes) * time.Minute
	sess := model.Session{
		ID:           uuid.NewString(),
		ActivityType: activity,
		DurationSecs: int64(duration.Seconds()),
		StartTime:    end.Add(-duration),
		EndTime:      end,
		CreatedAt:    time.Now(),
		Description:  strings.TrimSpace(flagLogNote),
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.SaveSession(sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	if !flagQuiet {
		fmt.Printf("  Logged %s of %s (%s)\n",
			cli.FormatDuration(sess.DurationSecs),
			sess.ActivityType,
			cli.FormatTimeRange(sess.StartTime.Local(), sess.EndTime.Local()),
		)
	}
	return nil
}
