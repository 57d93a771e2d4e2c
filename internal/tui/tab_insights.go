package tui

import (
	"errors"
	"strings"

	"github.com/airraman/focuslog/internal/insight"
	"github.com/airraman/focuslog/internal/model"
	"github.com/airraman/focuslog/internal/tui/components"
	"github.com/airraman/focuslog/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderInsightsTab(cw int) string {
	t := theme.Active

	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)

	var b strings.Builder
	b.WriteString(hintStyle.Render(" [1]daily  [2]weekly  [3]monthly to generate"))
	b.WriteString("\n")

	if a.generating {
		b.WriteString(" ")
		b.WriteString(a.spinner.View())
		b.WriteString(mutedStyle.Render(" Generating " + insightLabel(a.genType) + " insight..."))
		b.WriteString("\n")
	}
	if a.genErr != nil {
		msg := a.genErr.Error()
		if errors.Is(a.genErr, insight.ErrNoAPIKey) {
			msg = "No API key configured. Set one in Settings."
		}
		b.WriteString(errStyle.Render(" " + msg))
		b.WriteString("\n")
	}
	if notice := genNotice(a.lastGen); notice != "" {
		style := mutedStyle
		if !a.lastGen.Success {
			style = errStyle
		} else if a.lastGen.Metadata.Fallback {
			style = lipgloss.NewStyle().Foreground(t.Orange)
		}
		b.WriteString(style.Render(" " + notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(a.insights) == 0 {
		empty := mutedStyle.Render("No insights yet. Press 2 to generate your weekly reflection.")
		b.WriteString(components.ContentCard("Insights", empty, cw))
		return b.String()
	}

	inner := components.CardInnerWidth(cw)
	for _, ci := range a.insights {
		title := insightLabel(ci.InsightType) + " · " + ci.GeneratedAt.Local().Format("Jan 02 15:04")
		body := wrapInsight(ci.InsightText, inner)
		b.WriteString(components.ContentCard(title, body, cw))
		b.WriteString("\n")
	}

	return b.String()
}

// genNotice summarizes the most recent generation when it needs attention.
func genNotice(res *model.Insight) string {
	switch {
	case res == nil:
		return ""
	case !res.Success:
		return "Generation failed; showing the last cached insights."
	case res.Metadata.Fallback:
		return "Text service unavailable; a fallback reflection was saved."
	case res.Metadata.IsEmpty:
		return "No sessions in that period yet."
	default:
		return ""
	}
}

func insightLabel(t model.InsightType) string {
	if a, ok := t.Activity(); ok {
		return a + " (weekly)"
	}
	switch t {
	case model.InsightDaily:
		return "Daily"
	case model.InsightWeekly:
		return "Weekly"
	case model.InsightMonthly:
		return "Monthly"
	default:
		return string(t)
	}
}

// wrapInsight word-wraps prose to the card's inner width.
func wrapInsight(s string, width int) string {
	if width <= 0 {
		return s
	}

	var out strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(s) {
		wl := len([]rune(word))
		if i > 0 {
			if lineLen+1+wl > width {
				out.WriteByte('\n')
				lineLen = 0
			} else {
				out.WriteByte(' ')
				lineLen++
			}
		}
		out.WriteString(word)
		lineLen += wl
	}
	return out.String()
}
