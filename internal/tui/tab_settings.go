package tui

import (
	"strconv"
	"strings"

	"github.com/airraman/focuslog/internal/config"
	"github.com/airraman/focuslog/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Settings fields, in display order.
const (
	settingAPIKey = iota
	settingActivity
	settingRetention
	settingTheme
	settingsFieldCount
)

// settingsState tracks cursor and edit state for the settings tab.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model

	apiKey    string
	activity  string
	retention int
	themeName string
	saveErr   error
}

func newSettingsState(cfg config.Config) settingsState {
	return settingsState{
		apiKey:    cfg.AI.APIKey,
		activity:  cfg.General.DefaultActivity,
		retention: cfg.Insights.RetentionDays,
		themeName: theme.ByName(cfg.Appearance.Theme).Name,
	}
}

func (a App) updateSettingsKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		return a.settingsActivate()
	}
	return a, nil
}

// settingsActivate starts editing the selected field, or cycles the theme.
func (a App) settingsActivate() (tea.Model, tea.Cmd) {
	if a.settings.cursor == settingTheme {
		idx := 0
		for i, t := range theme.All {
			if t.Name == a.settings.themeName {
				idx = i
				break
			}
		}
		a.settings.themeName = theme.All[(idx+1)%len(theme.All)].Name
		theme.SetActive(a.settings.themeName)
		a.settingsSave()
		return a, nil
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	switch a.settings.cursor {
	case settingAPIKey:
		ti.Placeholder = "sk-ant-..."
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(a.settings.apiKey)
	case settingActivity:
		ti.Placeholder = "coding"
		ti.SetValue(a.settings.activity)
	case settingRetention:
		ti.Placeholder = "90"
		ti.CharLimit = 4
		ti.SetValue(strconv.Itoa(a.settings.retention))
	}

	ti.Focus()
	a.settings.editing = true
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		val := strings.TrimSpace(a.settings.input.Value())
		switch a.settings.cursor {
		case settingAPIKey:
			a.settings.apiKey = val
		case settingActivity:
			a.settings.activity = val
		case settingRetention:
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				a.settings.retention = n
			}
		}
		a.settings.editing = false
		a.settingsSave()
		return a, nil

	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsSave() {
	cfg := a.cfg
	cfg.AI.APIKey = a.settings.apiKey
	cfg.General.DefaultActivity = a.settings.activity
	cfg.Insights.RetentionDays = a.settings.retention
	cfg.Appearance.Theme = a.settings.themeName

	a.settings.saveErr = config.Save(cfg)
	if a.settings.saveErr == nil {
		a.cfg = cfg
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selectedStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	errStyle := lipgloss.NewStyle().Foreground(t.Red)

	fields := []struct {
		label string
		value string
	}{
		{"API key", maskKey(a.settings.apiKey)},
		{"Default activity", orUnset(a.settings.activity)},
		{"Insight retention", strconv.Itoa(a.settings.retention) + " days"},
		{"Theme", a.settings.themeName},
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, f := range fields {
		marker := "  "
		style := valueStyle
		if i == a.settings.cursor {
			marker = "> "
			style = selectedStyle
		}

		b.WriteString(" ")
		b.WriteString(style.Render(marker))
		b.WriteString(labelStyle.Render(padRight(f.label+":", 20)))

		if a.settings.editing && i == a.settings.cursor {
			b.WriteString(a.settings.input.View())
		} else {
			b.WriteString(style.Render(f.value))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if a.settings.editing {
		b.WriteString(hintStyle.Render("  Enter to save, Esc to cancel"))
	} else {
		b.WriteString(hintStyle.Render("  j/k to select, Enter to edit (Theme cycles)"))
	}

	if a.settings.saveErr != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("  Could not save: " + a.settings.saveErr.Error()))
	}

	_ = cw
	return b.String()
}

func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) > 12 {
		return key[:6] + "..." + key[len(key)-4:]
	}
	return "****"
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}
