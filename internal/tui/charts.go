package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

// RenderBurnSparkline draws the recent tokens-per-minute history as a
// one-row sparkline.
func RenderBurnSparkline(theme Theme, history []float64, width int) string {
	if len(history) == 0 || width < 4 {
		return ""
	}

	sl := sparkline.New(width, 1,
		sparkline.WithStyle(lipgloss.NewStyle().Foreground(theme.Blue)))
	sl.PushAll(history)
	sl.Draw()
	return sl.View()
}

// RenderP90Bar shows the current block's tokens against a token limit
// as a labelled bar gauge. The dashboard passes the plan's token limit,
// which is the P90 result only on the custom plan without an override.
func RenderP90Bar(theme Theme, currentTokens, limit int64, width int) string {
	if limit <= 0 {
		return ""
	}
	pct := 100 * float64(currentTokens) / float64(limit)
	bar := RenderUsageGauge(theme, pct, width)
	label := lipgloss.NewStyle().Foreground(theme.Subtext).
		Render(fmt.Sprintf(" %s / %s tokens", formatTokens(currentTokens), formatTokens(limit)))
	return bar + label
}

func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
