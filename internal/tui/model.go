// Package tui renders the latest MultiPlatformState snapshot. It never
// touches the driver's internals: each frame reads the current snapshot
// pointer and formats what it finds.
package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/arvindn/genaicost/internal/monitor"
	"github.com/arvindn/genaicost/internal/record"
)

const burnHistoryLen = 60

type tickMsg time.Time

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	driver   *monitor.Driver
	styles   styles
	location *time.Location
	refresh  time.Duration

	width  int
	height int

	// burnHistory keeps the recent tokens-per-minute samples per
	// provider for the sparkline.
	burnHistory map[record.Provider][]float64
}

// NewModel returns a dashboard model reading snapshots from driver.
func NewModel(driver *monitor.Driver, theme Theme, location *time.Location, refresh time.Duration) Model {
	return Model{
		driver:      driver,
		styles:      newStyles(theme),
		location:    location,
		refresh:     refresh,
		burnHistory: make(map[record.Provider][]float64),
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.recordBurnSamples()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) recordBurnSamples() {
	snap := m.driver.Snapshot()
	if snap == nil {
		return
	}
	for provider, state := range snap.Platforms {
		h := append(m.burnHistory[provider], state.BurnRate.TokensPerMinute)
		if len(h) > burnHistoryLen {
			h = h[len(h)-burnHistoryLen:]
		}
		m.burnHistory[provider] = h
	}
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	snap := m.driver.Snapshot()
	if snap == nil {
		return m.styles.dim.Render("waiting for first tick...")
	}

	var sections []string
	sections = append(sections, m.renderHeader(snap, width))

	for _, provider := range orderedProviders(snap) {
		sections = append(sections, m.renderProvider(snap.Platforms[provider], width))
	}

	sections = append(sections, m.styles.dim.Render("q quit"))
	return strings.Join(sections, "\n")
}

func orderedProviders(snap *monitor.MultiPlatformState) []record.Provider {
	providers := make([]record.Provider, 0, len(snap.Platforms))
	for p := range snap.Platforms {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

func (m Model) renderHeader(snap *monitor.MultiPlatformState, width int) string {
	title := m.styles.title.Render("genaicost")
	summary := m.styles.label.Render(fmt.Sprintf(
		"  total %s tokens · $%.2f · updated %s",
		formatTokens(snap.TotalTokens()), snap.TotalCost(),
		snap.Generated.In(m.location).Format("15:04:05"),
	))
	return fitWidth(title+summary, width)
}

func (m Model) renderProvider(state monitor.MonitorState, width int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	gaugeW := inner / 2

	var b strings.Builder

	b.WriteString(m.styles.header.Render(strings.ToUpper(string(state.Provider))))
	b.WriteString(m.styles.label.Render(fmt.Sprintf("  plan %s", state.Plan.Name)))
	if !state.SourceHealthy {
		b.WriteString("  " + m.styles.banner.Render("SOURCE ERROR, stats may be stale"))
	}
	if state.ParseDropRateHigh {
		b.WriteString("  " + m.styles.alertWarn.Render(fmt.Sprintf("dropped %d malformed lines", state.SkippedLinesLastTick)))
	}
	b.WriteString("\n")

	// Session block usage against the plan's token limit.
	if !state.Plan.TokenLimitUnlimited && state.Plan.TokenLimit > 0 {
		b.WriteString(m.styles.label.Render("session ") +
			RenderP90Bar(m.styles.theme, state.CurrentBlock.Tokens.Total(), state.Plan.TokenLimit, gaugeW))
	} else {
		b.WriteString(m.styles.label.Render("session ") +
			m.styles.value.Render(formatTokens(state.CurrentBlock.Tokens.Total())+" tokens (no limit)"))
	}
	b.WriteString("\n")

	if !state.Plan.CostLimitUnlimited && state.Plan.CostLimit > 0 {
		pct := 100 * state.CurrentBlock.Cost / state.Plan.CostLimit
		b.WriteString(m.styles.label.Render("cost    ") +
			RenderUsageGauge(m.styles.theme, pct, gaugeW) +
			m.styles.label.Render(fmt.Sprintf(" $%.2f / $%.2f", state.CurrentBlock.Cost, state.Plan.CostLimit)))
		b.WriteString("\n")
	}

	b.WriteString(m.renderBurnLine(state, gaugeW))
	b.WriteString("\n")
	b.WriteString(m.renderStatsLine(state))

	if state.P90.Limit > 0 && state.Plan.Name == "custom" {
		b.WriteString("\n" + m.styles.dim.Render(fmt.Sprintf(
			"p90 limit %s (%s, confidence %.0f%%)",
			formatTokens(state.P90.Limit), state.P90.Source, state.P90.Confidence*100)))
	}

	for _, a := range state.Alerts {
		b.WriteString("\n" + m.styles.alertStyle(a.Level.String()).Render("▲ "+a.Message))
		b.WriteString("\n  " + m.styles.dim.Render(a.RecommendedAction))
	}
	if state.ShouldResetSession {
		b.WriteString("\n" + m.styles.banner.Render("RESET RECOMMENDED: "+state.ResetReason))
	}

	panel := m.styles.panel.Width(inner).Render(b.String())
	return fitBlockWidth(panel, width)
}

func (m Model) renderBurnLine(state monitor.MonitorState, gaugeW int) string {
	rate := state.BurnRate
	line := m.styles.label.Render("burn    ") + m.styles.value.Render(fmt.Sprintf(
		"%.0f tok/min · $%.3f/min", rate.TokensPerMinute, rate.CostPerMinute))

	if !math.IsInf(rate.EstimatedTimeToLimit, 1) {
		line += m.styles.label.Render(fmt.Sprintf(" · ~%.0f min to limit", rate.EstimatedTimeToLimit))
	}

	if spark := RenderBurnSparkline(m.styles.theme, m.burnHistory[state.Provider], gaugeW/2); spark != "" {
		line += "  " + spark
	}
	return line
}

func (m Model) renderStatsLine(state monitor.MonitorState) string {
	s := state.Last24h
	parts := []string{
		fmt.Sprintf("today %s tok $%.2f", formatTokens(state.Daily.Tokens.Total()), state.Daily.Cost),
		fmt.Sprintf("24h %s tok $%.2f", formatTokens(s.Tokens.Total()), s.Cost),
		fmt.Sprintf("7d $%.2f", state.Last7d.Cost),
		fmt.Sprintf("calls %d", state.CurrentBlock.CallCount),
	}
	if hit := state.CurrentBlock.CacheHitRate(); hit > 0 {
		parts = append(parts, fmt.Sprintf("cache hit %.0f%% (saved $%.2f)", hit*100, state.CurrentBlock.CacheSavings))
	}
	parts = append(parts, fmt.Sprintf("health %.0f", state.HealthScore))
	if state.SkippedLinesLastTick > 0 {
		parts = append(parts, fmt.Sprintf("skipped %d", state.SkippedLinesLastTick))
	}
	return m.styles.dim.Render(strings.Join(parts, " · "))
}

// fitWidth truncates one line to width, keeping ANSI sequences intact.
func fitWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Cut(s, 0, width)
}

func fitBlockWidth(block string, width int) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = fitWidth(line, width)
	}
	return strings.Join(lines, "\n")
}
