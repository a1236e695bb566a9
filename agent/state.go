package agent

import (
	"logchat/model"
	"logchat/tools"
)

// StateMachine tracks the assistant's focus within a turn.
//
// The state is ANALYZING exactly when the latest successful search_logs
// result carried at least one example id. Any state returns to IDLE on a
// final answer or a new turn.
type StateMachine struct {
	state model.ConversationState
}

func NewStateMachine() *StateMachine {
	return &StateMachine{state: model.StateIdle}
}

func (m *StateMachine) State() model.ConversationState {
	return m.state
}

// Reset is called when a new user turn begins.
func (m *StateMachine) Reset() {
	m.state = model.StateIdle
}

// FinalAnswer is called when a step produced text instead of a tool call.
func (m *StateMachine) FinalAnswer() {
	m.state = model.StateIdle
}

// Observe inspects an executed tool's result. A search that found no
// examples drops an earlier focus; a failed search leaves the state alone.
func (m *StateMachine) Observe(toolName string, result model.ToolResult) {
	if toolName != tools.SearchLogs || result.IsError() {
		return
	}
	if exampleCount(result) > 0 {
		m.state = model.StateAnalyzing
	} else {
		m.state = model.StateIdle
	}
}

func exampleCount(result model.ToolResult) int {
	switch ids := result["example_ids"].(type) {
	case []string:
		return len(ids)
	case []any:
		return len(ids)
	default:
		return 0
	}
}
