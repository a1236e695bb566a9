package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")

	// User message style
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Assistant message style
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	// Timestamps and secondary text
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	// Log view summary line
	LogStatusStyle = lipgloss.NewStyle().
			Foreground(highlightColor)
)

// FormatFooter formats alternating keys and descriptions, rendering the
// descriptions in assistant blue.
// Usage: FormatFooter("y", "Download", "n", "Decline")
func FormatFooter(parts ...string) string {
	return formatKeys(lipgloss.NewStyle().Foreground(accentColor).Bold(true), parts...)
}

// formatStatusKeys is FormatFooter for the main chat status bar, which uses
// user green.
func formatStatusKeys(parts ...string) string {
	return formatKeys(lipgloss.NewStyle().Foreground(successColor).Bold(true), parts...)
}

func formatKeys(descStyle lipgloss.Style, parts ...string) string {
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}
