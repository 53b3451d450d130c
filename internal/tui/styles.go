package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	fgColor        = lipgloss.Color("#F9FAFB") // Light

	AppStyle    = lipgloss.NewStyle().Padding(1, 2)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)

	// Menu
	MenuPanelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)
	SelectedItemStyle = lipgloss.NewStyle().Background(primaryColor).Foreground(fgColor).Bold(true).Padding(0, 1)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(fgColor).Padding(0, 1)

	// Prompts and results
	PromptStyle    = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	HintStyle      = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(errorColor)
	SuccessStyle   = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	LabelStyle     = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(10)
	DateStyle      = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	ResultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(0, 1)

	// Help bar
	HelpStyle    = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
)
