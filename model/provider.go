package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ChatClient abstracts a vendor chat API (Gemini, OpenAI, Anthropic, Ollama)
// using provider-agnostic transcript types.
//
// This interface is defined in the model package (not provider package) to
// avoid import cycles: provider implementations import model, and the agent
// works against model interfaces only.
type ChatClient interface {
	// Chat sends messages and streams responses back via callback.
	Chat(ctx context.Context, messages []ChatMessage, callback StreamCallback) error

	// ChatWithTools sends messages with available tools and streams responses.
	ChatWithTools(ctx context.Context, messages []ChatMessage, tools []mcptypes.Tool, callback StreamCallback) error

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)
}

// StreamCallback is called for each chunk of streamed response.
type StreamCallback func(chunk string, toolCalls []ToolCall) error

// BackendKind identifies one of the closed set of backend variants.
type BackendKind string

const (
	KindHosted       BackendKind = "hosted"
	KindOnDevice     BackendKind = "ondevice"
	KindDownloadable BackendKind = "downloadable"
)

// StepRequest is one inference step: the transcript so far plus the tools
// legal in the current conversation state.
type StepRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []mcptypes.Tool

	// Tier is the admitted hosted tier name. Ignored by other kinds.
	Tier string
}

// StepResult is either final text or one or more proposed tool calls.
type StepResult struct {
	Text      string
	ToolCalls []ToolCall
}

// Backend runs one inference step. Every backend kind implements it.
type Backend interface {
	Kind() BackendKind

	// Ready reports whether the backend can dispatch now. It returns one of
	// the provider precondition errors when it cannot.
	Ready() error

	Step(ctx context.Context, req StepRequest) (*StepResult, error)

	// Close releases long-lived resources. Safe to call more than once.
	Close() error
}
