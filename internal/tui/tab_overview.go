package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/airraman/focuslog/internal/cli"
	"github.com/airraman/focuslog/internal/model"
	"github.com/airraman/focuslog/internal/tui/components"
	"github.com/airraman/focuslog/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary

	var b strings.Builder

	// Metric cards for the trailing 7 days
	sessionsDelta := ""
	hoursDelta := ""
	if s.Trends != nil {
		sessionsDelta = cli.FormatSignedCount(s.Trends.SessionCountChange) + " vs prev 7d"
		hoursDelta = cli.FormatSignedHours(s.Trends.HoursChange) + " vs prev 7d"
	}

	cards := []struct{ Label, Value, Delta string }{
		{"Sessions (7d)", cli.FormatNumber(int64(s.TotalSessions)), sessionsDelta},
		{"Focus time", cli.FormatHours(s.TotalHours), hoursDelta},
		{"Avg session", fmt.Sprintf("%.0fm", s.AvgSessionMins), ""},
		{"With notes", cli.FormatPercent(s.DescriptionDensity), ""},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Daily hours over the last 14 days
	daily := dailyHours(a.sessions, 14)
	spark := components.Sparkline(daily, t.Accent)
	sparkBody := spark + "\n" +
		lipgloss.NewStyle().Foreground(t.TextDim).Render("14 days ago → today")
	b.WriteString(components.ContentCard("Daily Focus Hours", sparkBody, cw))
	b.WriteString("\n")

	// Activity breakdown
	if len(s.TopActivities) > 0 {
		entries := make([]components.HBarEntry, 0, len(s.TopActivities))
		for _, act := range s.TopActivities {
			entries = append(entries, components.HBarEntry{
				Label: act.Activity,
				Value: act.Hours,
				Text:  cli.FormatHours(act.Hours),
			})
		}
		barW := components.CardInnerWidth(cw) - 22
		if barW < 10 {
			barW = 10
		}
		bars := components.HorizontalBars(entries, 14, barW, t.Green)
		b.WriteString(components.ContentCard("Top Activities (7d)", bars, cw))
	} else {
		empty := lipgloss.NewStyle().Foreground(t.TextMuted).
			Render("No sessions this week. Record one with `focuslog log`.")
		b.WriteString(components.ContentCard("Top Activities (7d)", empty, cw))
	}

	return b.String()
}

// dailyHours buckets session durations into per-day totals, oldest first.
func dailyHours(sessions []model.Session, days int) []float64 {
	now := time.Now()
	totals := make([]float64, days)

	for _, s := range sessions {
		day := int(now.Sub(s.StartTime).Hours() / 24)
		if day < 0 || day >= days {
			continue
		}
		totals[days-1-day] += float64(s.DurationSecs) / 3600
	}
	return totals
}
