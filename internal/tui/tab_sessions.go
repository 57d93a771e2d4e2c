package tui

import (
	"fmt"
	"strings"

	"github.com/airraman/focuslog/internal/cli"
	"github.com/airraman/focuslog/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSessionsTab(cw, contentH int) string {
	t := theme.Active

	if len(a.recent) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).
			Render("\n  No sessions logged yet. Record one with `focuslog log`.")
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(true)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	// Visible window around the cursor
	rows := contentH - 2
	if rows < 3 {
		rows = 3
	}
	offset := 0
	if a.sessCursor >= rows {
		offset = a.sessCursor - rows + 1
	}
	end := offset + rows
	if end > len(a.recent) {
		end = len(a.recent)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(" %-20s %-14s %-9s %s", "When", "Activity", "Duration", "Note")))
	b.WriteString("\n")

	for i := offset; i < end; i++ {
		s := a.recent[i]
		noteW := cw - 50
		if noteW < 8 {
			noteW = 8
		}
		line := fmt.Sprintf(" %-20s %-14s %-9s ",
			cli.FormatTimeRange(s.StartTime.Local(), s.EndTime.Local()),
			cli.Truncate(s.ActivityType, 14),
			cli.FormatDuration(s.DurationSecs),
		)

		if i == a.sessCursor {
			b.WriteString(selectedStyle.Render(line + cli.Truncate(s.Description, noteW)))
		} else {
			b.WriteString(rowStyle.Render(line))
			b.WriteString(noteStyle.Render(cli.Truncate(s.Description, noteW)))
		}
		b.WriteString("\n")
	}

	return b.String()
}
