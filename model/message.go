package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a visible conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message represents a chat message in the conversation.
//
// The visible history is append-only. Warning and error messages are rendered
// like any other model message but never sent back to a provider.
type Message struct {
	ID        string
	Role      Role
	Text      string
	IsError   bool
	IsWarning bool
	Timestamp time.Time
}

// NewMessage creates a message with a fresh identifier.
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewErrorMessage creates a model message flagged as an error.
func NewErrorMessage(text string) Message {
	msg := NewMessage(RoleModel, text)
	msg.IsError = true
	return msg
}

// NewWarningMessage creates a model message flagged as a warning.
func NewWarningMessage(text string) Message {
	msg := NewMessage(RoleModel, text)
	msg.IsWarning = true
	return msg
}

// ChatRole is the role of an entry in the provider-facing transcript.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleTool      ChatRole = "tool"
)

// ChatMessage is one entry of the transcript handed to a chat client.
//
// An assistant entry with a non-nil ToolCall records a tool invocation; the
// following tool entry carries the JSON-encoded result in Content and the
// invoked tool in ToolName.
type ChatMessage struct {
	Role     ChatRole
	Content  string
	ToolCall *ToolCall
	ToolName string
}
