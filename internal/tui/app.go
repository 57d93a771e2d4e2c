// Package tui provides the interactive Bubble Tea dashboard for focuslog.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/airraman/focuslog/internal/config"
	"github.com/airraman/focuslog/internal/insight"
	"github.com/airraman/focuslog/internal/model"
	"github.com/airraman/focuslog/internal/pipeline"
	"github.com/airraman/focuslog/internal/store"
	"github.com/airraman/focuslog/internal/textgen"
	"github.com/airraman/focuslog/internal/tui/components"
	"github.com/airraman/focuslog/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// dataLoadedMsg is sent when the store read finishes.
type dataLoadedMsg struct {
	sessions []model.Session // trailing 14 days
	recent   []model.Session // most recent first, for the sessions tab
	insights []model.CachedInsight
	loadTime time.Duration
	err      error
}

// insightDoneMsg is sent when a background insight generation completes.
type insightDoneMsg struct {
	result   *model.Insight
	insights []model.CachedInsight
	err      error
}

// setupValues collects first-run form answers.
type setupValues struct {
	APIKey   string
	Activity string
	Theme    string
}

// App is the root Bubble Tea model.
type App struct {
	cfg config.Config

	// Data
	sessions []model.Session
	recent   []model.Session
	insights []model.CachedInsight
	summary  model.Summary
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// UI state
	width      int
	height     int
	activeTab  int
	showHelp   bool
	refreshing bool

	// Per-tab state
	sessCursor int
	settings   settingsState

	// Insight generation state
	generating bool
	genType    model.InsightType
	genErr     error
	lastGen    *model.Insight

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 120
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(cfg config.Config) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		cfg:       cfg,
		needSetup: !config.Exists(),
		spinner:   sp,
		settings:  newSettingsState(cfg),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadDataCmd(a.cfg),
		a.spinner.Tick,
	)
}

func (a *App) recompute() {
	now := time.Now()
	since := now.AddDate(0, 0, -7)
	prevSince := since.AddDate(0, 0, -7)

	current := pipeline.FilterByTime(a.sessions, since, now)
	previous := pipeline.FilterByTime(a.sessions, prevSince, since)

	a.summary = pipeline.Aggregate(current, pipeline.AggregateOptions{
		WithTrends:     len(previous) > 0,
		PreviousPeriod: previous,
	})

	if a.sessCursor >= len(a.recent) {
		a.sessCursor = len(a.recent) - 1
	}
	if a.sessCursor < 0 {
		a.sessCursor = 0
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)

	case dataLoadedMsg:
		a.loaded = true
		a.loadErr = msg.err
		a.loadTime = msg.loadTime
		if msg.err == nil {
			a.sessions = msg.sessions
			a.recent = msg.recent
			a.insights = msg.insights
			a.recompute()
		}
		a.refreshing = false

		// Activate first-run setup after data loads
		if a.needSetup {
			a.setupForm = newSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case insightDoneMsg:
		a.generating = false
		a.genErr = msg.err
		a.lastGen = msg.result
		if msg.insights != nil {
			a.insights = msg.insights
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.generating || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Settings edit mode intercepts all keys
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(loadDataCmd(a.cfg), a.spinner.Tick)
		}
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			// 's' doubles as a tab key; it never conflicts because the
			// sessions tab has no single-letter actions of its own.
			a.activeTab = idx
			return a, nil
		}
	}

	switch a.activeTab {
	case tabInsights:
		return a.updateInsightsKeys(key)
	case tabSessions:
		return a.updateSessionsKeys(key)
	case tabSettings:
		return a.updateSettingsKeys(key)
	}

	return a, nil
}

func (a App) updateSessionsKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if a.sessCursor < len(a.recent)-1 {
			a.sessCursor++
		}
	case "k", "up":
		if a.sessCursor > 0 {
			a.sessCursor--
		}
	case "g":
		a.sessCursor = 0
	case "G":
		if len(a.recent) > 0 {
			a.sessCursor = len(a.recent) - 1
		}
	}
	return a, nil
}

func (a App) updateInsightsKeys(key string) (tea.Model, tea.Cmd) {
	if a.generating {
		return a, nil
	}

	var t model.InsightType
	switch key {
	case "1":
		t = model.InsightDaily
	case "2":
		t = model.InsightWeekly
	case "3":
		t = model.InsightMonthly
	default:
		return a, nil
	}

	a.generating = true
	a.genType = t
	a.genErr = nil
	a.lastGen = nil
	return a, tea.Batch(generateInsightCmd(a.cfg, t), a.spinner.Tick)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	if a.setupForm.State == huh.StateCompleted {
		a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	if a.setupForm.State == huh.StateAborted {
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

// newSetupForm builds the first-run form.
func newSetupForm(v *setupValues) *huh.Form {
	themeNames := make([]string, len(theme.All))
	for i, t := range theme.All {
		themeNames[i] = t.Name
	}
	v.Theme = theme.Active.Name

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Anthropic API key").
				Description("Needed for AI insights. Leave blank to skip.").
				EchoMode(huh.EchoModePassword).
				Value(&v.APIKey),
			huh.NewInput().
				Title("Default activity").
				Description("Preselected activity for `focuslog log`.").
				Value(&v.Activity),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(themeNames...)...).
				Value(&v.Theme),
		),
	)
}

func (a *App) saveSetupConfig() {
	cfg := a.cfg

	if key := strings.TrimSpace(a.setupVals.APIKey); key != "" {
		cfg.AI.APIKey = key
	}
	if activity := strings.TrimSpace(a.setupVals.Activity); activity != "" {
		cfg.General.DefaultActivity = activity
	}
	if a.setupVals.Theme != "" {
		cfg.Appearance.Theme = a.setupVals.Theme
		theme.SetActive(cfg.Appearance.Theme)
	}

	// Best-effort; the session keeps the in-memory values either way.
	_ = config.Save(cfg)
	a.cfg = cfg
	a.settings = newSettingsState(cfg)
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := "\n  Terminal too narrow.\n\n  focuslog needs at least 60 columns.\n"
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ focuslog"))
	b.WriteString(subtitleStyle.Render(" · Focus Sessions"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading sessions..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim)

	bindings := []struct{ key, desc string }{
		{"o i s x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Navigate sessions"},
		{"1 2 3", "Generate daily / weekly / monthly insight"},
		{"Enter", "Edit setting"},
		{"r", "Reload data"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		b.WriteString("  ")
		b.WriteString(keyStyle.Render(padRight(bind.key, 10)))
		b.WriteString("  ")
		b.WriteString(descStyle.Render(bind.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab) + "\n"

	right := ""
	if a.loadTime > 0 {
		right = "Loaded in " + a.loadTime.Round(time.Millisecond).String()
	}
	if a.refreshing {
		right = a.spinner.View() + " refreshing"
	}
	statusBar := components.RenderStatusBar(w, right)

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabInsights:
		content = a.renderInsightsTab(cw)
	case tabSessions:
		content = a.renderSessionsTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// Tab indexes, matching components.Tabs order.
const (
	tabOverview = iota
	tabInsights
	tabSessions
	tabSettings
)

// loadDataCmd reads everything the dashboard needs from the store.
func loadDataCmd(cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		db, err := store.Open(cfg.DBPath())
		if err != nil {
			return dataLoadedMsg{err: err, loadTime: time.Since(start)}
		}
		defer func() { _ = db.Close() }()

		now := time.Now()
		sessions, err := db.SessionsByRange(now.AddDate(0, 0, -14), now, "")
		if err != nil {
			return dataLoadedMsg{err: err, loadTime: time.Since(start)}
		}

		recent, err := db.RecentSessions(200)
		if err != nil {
			return dataLoadedMsg{err: err, loadTime: time.Since(start)}
		}

		insights, err := db.LatestInsights()
		if err != nil {
			return dataLoadedMsg{err: err, loadTime: time.Since(start)}
		}

		return dataLoadedMsg{
			sessions: sessions,
			recent:   recent,
			insights: insights,
			loadTime: time.Since(start),
		}
	}
}

// generateInsightCmd runs the insight pipeline off the UI thread.
func generateInsightCmd(cfg config.Config, t model.InsightType) tea.Cmd {
	return func() tea.Msg {
		if config.APIKey(cfg) == "" {
			return insightDoneMsg{err: insight.ErrNoAPIKey}
		}

		db, err := store.Open(cfg.DBPath())
		if err != nil {
			return insightDoneMsg{err: err}
		}
		defer func() { _ = db.Close() }()

		client := textgen.NewClient(config.TextgenConfig(cfg))
		gen := insight.New(db, db, client, config.InsightPolicy(cfg))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := gen.Generate(ctx, t, insight.GenerateOptions{})
		if err != nil {
			return insightDoneMsg{err: err}
		}

		insights, err := db.LatestInsights()
		if err != nil {
			insights = nil
		}
		return insightDoneMsg{result: &result, insights: insights}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
