package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#017CEE")
	success = lipgloss.Color("#04B575")
	warning = lipgloss.Color("#F5A623")
	failure = lipgloss.Color("#FF0000")
	subtle  = lipgloss.Color("#888888")

	// Paths and versions inside messages
	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	// Success styling
	SuccessStyle = lipgloss.NewStyle().
			Foreground(success).
			Bold(true)

	// Warning styling
	WarningStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true)

	// Error styling
	ErrorStyle = lipgloss.NewStyle().
			Foreground(failure).
			Bold(true)
)

// NewHuhTheme returns the form theme used by every prompt.
func NewHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(accent).Bold(true)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(accent).Foreground(lipgloss.Color("#FFFFFF"))
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(subtle)
	t.Blurred = t.Focused
	t.Blurred.Title = t.Blurred.Title.Foreground(subtle)

	return t
}
