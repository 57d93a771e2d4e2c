package cmd

import (
	"fmt"
	"os"

	"github.com/airraman/focuslog/internal/cli"
	"github.com/airraman/focuslog/internal/source"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <export.jsonl>",
	Short: "Import sessions from a JSONL export",
	Long: "Import sessions from a line-delimited JSON export, one session per line.\n" +
		"Existing sessions with the same ID are overwritten; malformed lines are skipped.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	result := source.ParseFile(args[0])
	if result.Err != nil {
		return fmt.Errorf("reading %s: %w", args[0], result.Err)
	}

	saved := 0
	failed := 0
	for _, rec := range result.Sessions {
		if err := db.SaveSession(rec.ToSession()); err != nil {
			failed++
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  line %d: %v\n", rec.Line, err)
			}
			continue
		}
		saved++
	}

	if !flagQuiet {
		fmt.Printf("  Imported %s sessions from %s\n", cli.FormatNumber(int64(saved)), args[0])
		if result.ParseErrors > 0 {
			fmt.Fprintf(os.Stderr, "  %d lines could not be parsed\n", result.ParseErrors)
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "  %d sessions could not be saved\n", failed)
		}
	}
	return nil
}
