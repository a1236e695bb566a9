package ui

import (
	"fmt"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"

	"logchat/config"
	"logchat/model"
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	width := max(a.width-4, 20)
	if width != a.renderedWidth {
		a.rendered = map[string]string{}
		a.renderedWidth = width
	}

	var content strings.Builder
	for _, msg := range a.conv.History() {
		content.WriteString(a.renderMessage(msg, width))
	}
	if a.running {
		content.WriteString(fmt.Sprintf("%s %s\n", a.spinner.View(), DimStyle.Render("Thinking...")))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a *AppView) renderMessage(msg model.Message, width int) string {
	timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

	switch {
	case msg.Role == model.RoleUser:
		return formatUserMessage(timestamp, UserStyle.Render("You"), wordWrap(msg.Text, width-2))
	case msg.IsError:
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, ErrorStyle.Bold(true).Render("Error"), ErrorStyle.Render(wordWrap(msg.Text, width)))
	case msg.IsWarning:
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, WarningStyle.Bold(true).Render("Notice"), WarningStyle.Render(wordWrap(msg.Text, width)))
	}

	rendered, ok := a.rendered[msg.ID]
	if !ok {
		rendered = renderMarkdown(msg.Text, width)
		a.rendered[msg.ID] = rendered
	}
	return fmt.Sprintf("%s %s\n%s\n\n", timestamp, AssistantStyle.Render("Assistant"), rendered)
}

// formatUserMessage draws user messages behind a green bar.
func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")
	return result.String()
}

func renderMarkdown(content string, width int) string {
	start := time.Now()
	rendered := strings.TrimRight(string(markdown.Render(content, width, 0)), "\n")
	config.DebugLog.Debugf("[AppView] Markdown rendered in %v (%d chars)", time.Since(start), len(content))
	if strings.TrimSpace(rendered) == "" {
		return content
	}
	return rendered
}
