package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText     lipgloss.Color = "#cdd6f4"
	colorMuted    lipgloss.Color = "#a6adc8"
	colorBorder   lipgloss.Color = "#585b70"
	colorAccent   lipgloss.Color = "#89b4fa"
	colorSuccess  lipgloss.Color = "#a6e3a1"
	colorError    lipgloss.Color = "#f38ba8"
	colorSurface0 lipgloss.Color = "#313244"
)

var (
	headerStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	crumbSepStyle  = lipgloss.NewStyle().Foreground(colorBorder)
	hiddenStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	focusStyle     = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	linkStyle      = lipgloss.NewStyle().Foreground(colorAccent)
	keyStyle       = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	helpDescStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	statusBarStyle = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface0)
	errTitleStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	errCardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorError).Padding(1, 2)
)
