package provider

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// buildToolInstructions is prepended to the system prompt for vendors whose
// models tend to narrate instead of calling tools. Tool calls and results
// travel as plain text for these vendors, so the model is told what they
// look like.
func buildToolInstructions(tools []mcptypes.Tool) string {
	toolNames := make([]string, 0, len(tools))
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name)
	}

	return strings.Join([]string{
		"TOOLS: " + strings.Join(toolNames, ", "),
		"",
		"When answering a question about the logs:",
		"1. Call a tool whenever the answer depends on log contents",
		"2. Call one tool at a time and wait for its result",
		"3. Messages starting with \"Result of <tool>:\" are tool output, not the user",
		"4. Answer in plain language once you have enough evidence",
		"",
		"DO NOT:",
		"- List available tools",
		"- Invent log ids or counts",
	}, "\n")
}
