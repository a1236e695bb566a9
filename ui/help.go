package ui

import (
	"github.com/charmbracelet/lipgloss"
)

func renderHelpModal(width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)
	blue := lipgloss.NewStyle().Foreground(accentColor)

	title := green.Render("logchat - Keyboard Shortcuts")

	chat := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat"),
		"• Enter         Send question",
		"• Alt+Enter     New line",
		"• PgUp/PgDn     Scroll conversation",
		"• Ctrl+S        Save last answer as a finding",
		"• Ctrl+Y        Copy last answer",
		"• Ctrl+E        Export transcript",
	)

	backends := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Model"),
		"• Ctrl+B        Switch backend (hosted, on-device, download)",
		"• Ctrl+T        Switch hosted tier",
	)

	global := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global"),
		"• F1            Toggle this help",
		"• Ctrl+C        Quit",
	)

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Tips"),
		"• Saved findings are shared with the assistant on every question.",
		"• The line above the input shows the filters the assistant applied.",
	)

	body := lipgloss.JoinVertical(lipgloss.Left, title, "", chat, "", backends, "", global, "", tips, "", DimStyle.Render("Esc or F1 to close"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}
