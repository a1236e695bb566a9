package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
)

func renderCredentialModal(input textinput.Model, errorMsg string, width, height int) string {
	modalWidth := modalWidthFor(70, width)

	lines := []string{
		centerTextLine("The hosted model needs an API key.", modalWidth),
		centerTextLine("Your question is sent as soon as the key is saved.", modalWidth),
		strings.Repeat(" ", modalWidth),
		centerTextLine(input.View(), modalWidth),
	}
	if errorMsg != "" {
		lines = append(lines, strings.Repeat(" ", modalWidth), centerTextLine(ErrorStyle.Render("⚠ "+errorMsg), modalWidth))
	}

	return RenderThreeSectionModal("API Key Required", lines, FormatFooter("Enter", "Save", "Esc", "Later"), ModalTypeInfo, modalWidth, width, height)
}

func renderConsentModal(model string, width, height int) string {
	modalWidth := modalWidthFor(64, width)

	text := "Running the assistant locally needs a one-time download of the model " +
		model + ". The download can take several minutes.\n\nDownload it now?"
	var lines []string
	for _, line := range strings.Split(wordWrap(text, modalWidth-4), "\n") {
		lines = append(lines, centerTextLine(line, modalWidth))
	}

	return RenderThreeSectionModal("Download Local Model", lines, FormatFooter("y", "Download", "n", "Decline", "Esc", "Later"), ModalTypeWarning, modalWidth, width, height)
}

func renderProgressModal(spinnerView, progress string, width, height int) string {
	modalWidth := modalWidthFor(50, width)
	lines := []string{centerTextLine(spinnerView+" "+progress, modalWidth)}
	return RenderThreeSectionModal("Preparing Local Model", lines, FormatFooter("Ctrl+C", "Quit"), ModalTypeInfo, modalWidth, width, height)
}
