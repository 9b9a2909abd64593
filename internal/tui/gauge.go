package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderUsageGauge produces a text gauge that fills left to right as
// usage increases. Colors track the alert ladder: green below 75%,
// yellow from 75%, red from 90%.
func RenderUsageGauge(theme Theme, usedPercent float64, width int) string {
	if width < 5 {
		width = 5
	}

	if usedPercent < 0 {
		track := lipgloss.NewStyle().Foreground(theme.Surface1)
		dim := lipgloss.NewStyle().Foreground(theme.Dim)
		return track.Render(strings.Repeat("─", width)) + dim.Render(" N/A")
	}

	shown := usedPercent
	if shown > 100 {
		shown = 100
	}

	filled := int(shown / 100 * float64(width))
	empty := width - filled

	var color lipgloss.Color
	switch {
	case usedPercent >= 90:
		color = theme.Red
	case usedPercent >= 75:
		color = theme.Yellow
	default:
		color = theme.Green
	}

	filledStyle := lipgloss.NewStyle().Foreground(color)
	trackStyle := lipgloss.NewStyle().Foreground(theme.Surface1)

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		trackStyle.Render(strings.Repeat("━", empty))

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return fmt.Sprintf("%s %s", bar, pctStyle.Render(fmt.Sprintf("%5.1f%%", usedPercent)))
}
