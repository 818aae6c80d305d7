// Package ui renders the human-facing output of jjline's auxiliary commands:
// the doctor report and highlighted config listings. The prompt itself never
// goes through this package.
package ui

import "charm.land/lipgloss/v2"

// Color palette - Purple + Cyan/Teal theme
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	OKStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSuccess)

	WarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	FailStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)
)
