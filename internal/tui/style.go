package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#15202b")).Background(lipgloss.Color("#f56a96")).Padding(0, 1)

	buttonStyle       = lipgloss.NewStyle().Padding(0, 2).MarginRight(2).Border(lipgloss.RoundedBorder())
	activeButtonStyle = buttonStyle.BorderForeground(lipgloss.Color("#f56a96")).Bold(true)

	statusMessageStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f56a96", Dark: "#f23a74"}).Render
	completeMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#56FF4E")).Render
	errorMessageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4E4E")).Render
	helpStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Render
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)
