package model

import "encoding/json"

// ToolCall is a structured tool invocation proposed by a model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult is the structured record a tool returns to the transcript.
// It is never shown to the user verbatim.
type ToolResult map[string]any

// ErrorResult builds a result carrying only an error description.
func ErrorResult(message string) ToolResult {
	return ToolResult{"error": message}
}

// IsError reports whether the result carries an error field.
func (r ToolResult) IsError() bool {
	_, ok := r["error"]
	return ok
}

// JSON encodes the result for the provider-facing transcript.
func (r ToolResult) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"error":"unencodable tool result"}`
	}
	return string(data)
}

// ConversationState is the focus of the assistant within a turn.
type ConversationState int

const (
	StateIdle ConversationState = iota
	StateAnalyzing
)

func (s ConversationState) String() string {
	switch s {
	case StateAnalyzing:
		return "ANALYZING"
	default:
		return "IDLE"
	}
}
