package components

import (
	"fmt"
	"strings"

	"github.com/airraman/focuslog/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// HBarEntry is one labeled row in a horizontal bar chart.
type HBarEntry struct {
	Label string
	Value float64
	Text  string // value rendered as text after the bar
}

// HorizontalBars renders labeled horizontal bars scaled to the largest value.
// labelW fixes the label column; barW bounds the widest bar.
func HorizontalBars(entries []HBarEntry, labelW, barW int, color lipgloss.Color) string {
	if len(entries) == 0 {
		return ""
	}
	t := theme.Active

	peak := entries[0].Value
	for _, e := range entries[1:] {
		if e.Value > peak {
			peak = e.Value
		}
	}
	if peak == 0 {
		peak = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	barStyle := lipgloss.NewStyle().Foreground(color)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		n := int(e.Value / peak * float64(barW))
		if n < 1 && e.Value > 0 {
			n = 1
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s ", labelW, clip(e.Label, labelW))))
		b.WriteString(barStyle.Render(strings.Repeat("█", n)))
		if e.Text != "" {
			b.WriteString(textStyle.Render(" " + e.Text))
		}
	}
	return b.String()
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
