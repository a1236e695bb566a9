package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"logchat/model"
)

func names(state model.ConversationState) []string {
	var out []string
	for _, d := range Available(state) {
		out = append(out, d.Name)
	}
	return out
}

func TestAvailableByState(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{SearchLogs, FindLogPatterns, UpdateFilters, ScrollToLog, SuggestSolution},
		names(model.StateIdle))
	assert.ElementsMatch(t,
		[]string{TraceErrorOrigin, SuggestSolution, ScrollToLog, SearchLogs},
		names(model.StateAnalyzing))

	assert.False(t, IsAvailable(model.StateAnalyzing, UpdateFilters))
	assert.False(t, IsAvailable(model.StateIdle, TraceErrorOrigin))
}

func TestDeclarationsHaveSchemas(t *testing.T) {
	for _, d := range All() {
		assert.NotEmpty(t, d.Description, d.Name)
		assert.Equal(t, "object", d.InputSchema.Type, d.Name)
		for _, req := range d.InputSchema.Required {
			assert.Contains(t, d.InputSchema.Properties, req, "%s: required %s not declared", d.Name, req)
		}
	}
}

func TestValidateArguments(t *testing.T) {
	decl, ok := Lookup(SearchLogs)
	assert.True(t, ok)

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"valid", map[string]any{"keywords": []any{"a"}, "match_mode": "AND"}, false},
		{"valid with null optional", map[string]any{"keywords": []any{"a"}, "limit": nil}, false},
		{"missing required", map[string]any{"match_mode": "AND"}, true},
		{"bad enum", map[string]any{"keywords": []any{"a"}, "match_mode": "XOR"}, true},
		{"enum is case-insensitive", map[string]any{"keywords": []any{"a"}, "match_mode": "and"}, false},
		{"bad item type", map[string]any{"keywords": []any{1.0}}, true},
		{"bad number", map[string]any{"keywords": []any{"a"}, "limit": "ten"}, true},
		{"unknown extra ignored", map[string]any{"keywords": []any{"a"}, "verbose": true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArguments(decl, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
