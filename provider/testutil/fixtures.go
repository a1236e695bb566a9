package testutil

import (
	"fmt"
	"time"

	"logchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// FixtureStart is the timestamp of the first fixture log entry.
var FixtureStart = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// LogEntries returns n entries one second apart, cycling through a few
// daemons and levels. Every fifth entry is an error.
func LogEntries(n int) []model.LogEntry {
	daemons := []string{"kernel", "wifid", "powerd"}
	entries := make([]model.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		level := model.LevelInfo
		msg := fmt.Sprintf("heartbeat %d ok", i)
		if i%5 == 4 {
			level = model.LevelError
			msg = fmt.Sprintf("request %d failed: timeout", i)
		}
		entries = append(entries, model.LogEntry{
			ID:        fmt.Sprintf("log-%d", i),
			Timestamp: FixtureStart.Add(time.Duration(i) * time.Second),
			Level:     level,
			Daemon:    daemons[i%len(daemons)],
			Message:   msg,
		})
	}
	return entries
}

// ChatMessages returns a short transcript that includes a tool exchange.
func ChatMessages() []model.ChatMessage {
	call := &model.ToolCall{Name: "search_logs", Arguments: map[string]any{"keywords": []any{"timeout"}}}
	return []model.ChatMessage{
		{Role: model.ChatRoleUser, Content: "Why is wifi dropping?"},
		{Role: model.ChatRoleAssistant, ToolCall: call},
		{Role: model.ChatRoleTool, ToolName: "search_logs", Content: `{"total_matches":2}`},
		{Role: model.ChatRoleAssistant, Content: "Two timeouts were found."},
	}
}

// SingleUserMessage returns a one-entry transcript.
func SingleUserMessage(content string) []model.ChatMessage {
	return []model.ChatMessage{{Role: model.ChatRoleUser, Content: content}}
}

// TestMCPTools returns a sample tool declaration.
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "search_logs",
			Description: "Search the log corpus",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"keywords": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				Required: []string{"keywords"},
			},
		},
	}
}
