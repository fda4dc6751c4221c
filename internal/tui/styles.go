package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle is used for the header line.
	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	// SelectedRowStyle is used for the highlighted tree row.
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	// NormalRowStyle is used for non-selected tree rows.
	NormalRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// DimStyle is used for secondary text (counts, hints, status bar).
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// ErrorStyle is used for error messages and toasts.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// RefreshStyle marks a panel that is showing cached data while a
	// fetch is in flight.
	RefreshStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// Severity bar segment styles.
	HighSevStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
	MediumSevStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
	LowSevStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	// PanelStyle frames the detail panel.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	// HelpStyle frames the full key reference, matching the panel chrome.
	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)
)
