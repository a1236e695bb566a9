package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"logchat/model"
	"logchat/tools"
)

func TestStateMachineTransitions(t *testing.T) {
	withExamples := model.ToolResult{"total_matches": 2, "example_ids": []string{"a", "b"}}
	decoded := model.ToolResult{"example_ids": []any{"a"}}
	noExamples := model.ToolResult{"total_matches": 0, "example_ids": []string{}}
	failed := model.ToolResult{"error": "bad", "example_ids": []string{"a"}}

	tests := []struct {
		name  string
		steps func(m *StateMachine)
		want  model.ConversationState
	}{
		{"initial", func(m *StateMachine) {}, model.StateIdle},
		{"search with examples", func(m *StateMachine) { m.Observe(tools.SearchLogs, withExamples) }, model.StateAnalyzing},
		{"decoded example ids", func(m *StateMachine) { m.Observe(tools.SearchLogs, decoded) }, model.StateAnalyzing},
		{"search without examples", func(m *StateMachine) { m.Observe(tools.SearchLogs, noExamples) }, model.StateIdle},
		{"error result", func(m *StateMachine) { m.Observe(tools.SearchLogs, failed) }, model.StateIdle},
		{"other tool with example ids", func(m *StateMachine) { m.Observe(tools.TraceErrorOrigin, withExamples) }, model.StateIdle},
		{"empty search drops focus", func(m *StateMachine) {
			m.Observe(tools.SearchLogs, withExamples)
			m.Observe(tools.SearchLogs, noExamples)
		}, model.StateIdle},
		{"failed search keeps focus", func(m *StateMachine) {
			m.Observe(tools.SearchLogs, withExamples)
			m.Observe(tools.SearchLogs, failed)
		}, model.StateAnalyzing},
		{"trace keeps focus", func(m *StateMachine) {
			m.Observe(tools.SearchLogs, withExamples)
			m.Observe(tools.TraceErrorOrigin, noExamples)
		}, model.StateAnalyzing},
		{"final answer resets", func(m *StateMachine) {
			m.Observe(tools.SearchLogs, withExamples)
			m.FinalAnswer()
		}, model.StateIdle},
		{"new turn resets", func(m *StateMachine) {
			m.Observe(tools.SearchLogs, withExamples)
			m.Reset()
		}, model.StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine()
			tt.steps(m)
			assert.Equal(t, tt.want, m.State())
		})
	}
}
