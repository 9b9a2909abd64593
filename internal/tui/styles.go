package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name string

	Base, Surface1     lipgloss.Color
	Text, Subtext, Dim lipgloss.Color
	Accent, Blue       lipgloss.Color
	Green, Yellow, Red lipgloss.Color
	Peach              lipgloss.Color
}

var gruvbox = Theme{
	Name: "Gruvbox",
	Base: "#282828", Surface1: "#504945",
	Text: "#EBDBB2", Subtext: "#D5C4A1", Dim: "#665C54",
	Accent: "#D3869B", Blue: "#83A598",
	Green: "#B8BB26", Yellow: "#FABD2F", Red: "#FB4934",
	Peach: "#FE8019",
}

var catppuccinMocha = Theme{
	Name: "Catppuccin Mocha",
	Base: "#1E1E2E", Surface1: "#45475A",
	Text: "#CDD6F4", Subtext: "#A6ADC8", Dim: "#585B70",
	Accent: "#CBA6F7", Blue: "#89B4FA",
	Green: "#A6E3A1", Yellow: "#F9E2AF", Red: "#F38BA8",
	Peach: "#FAB387",
}

var themes = map[string]Theme{
	gruvbox.Name:         gruvbox,
	catppuccinMocha.Name: catppuccinMocha,
}

// ThemeByName returns the named theme, falling back to Gruvbox.
func ThemeByName(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return gruvbox
}

type styles struct {
	theme Theme

	title     lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	dim       lipgloss.Style
	banner    lipgloss.Style
	panel     lipgloss.Style
	alertWarn lipgloss.Style
	alertCrit lipgloss.Style
	alertInfo lipgloss.Style
}

func newStyles(theme Theme) styles {
	return styles{
		theme:     theme,
		title:     lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
		header:    lipgloss.NewStyle().Foreground(theme.Blue).Bold(true),
		label:     lipgloss.NewStyle().Foreground(theme.Subtext),
		value:     lipgloss.NewStyle().Foreground(theme.Text),
		dim:       lipgloss.NewStyle().Foreground(theme.Dim),
		banner:    lipgloss.NewStyle().Foreground(theme.Base).Background(theme.Red).Bold(true).Padding(0, 1),
		panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.Surface1).Padding(0, 1),
		alertWarn: lipgloss.NewStyle().Foreground(theme.Yellow),
		alertCrit: lipgloss.NewStyle().Foreground(theme.Peach).Bold(true),
		alertInfo: lipgloss.NewStyle().Foreground(theme.Blue),
	}
}

func (s styles) alertStyle(level string) lipgloss.Style {
	switch level {
	case "DANGER":
		return lipgloss.NewStyle().Foreground(s.theme.Red).Bold(true)
	case "CRITICAL":
		return s.alertCrit
	case "WARNING":
		return s.alertWarn
	default:
		return s.alertInfo
	}
}
