// Package tools implements the deterministic tools the assistant can call
// while answering a question about the log corpus, together with their
// declarations and the per-state availability policy.
//
// Every tool reads the full corpus, not the user's filtered view. Only
// update_filters and scroll_to_log reach outside the package, through the
// filter and navigation sinks. Tools never fail: anything unexpected is
// reported in the result's "error" field so the model can recover.
package tools

import (
	"context"
	"fmt"

	"logchat/config"
	"logchat/model"
)

// Advisor answers a single free-form question without tools.
// The hosted backend implements it for suggest_solution.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Deps are the collaborators an Engine works against. Any of them may be nil.
type Deps struct {
	Corpus    model.Corpus
	Daemons   model.DaemonLister
	Filters   model.FilterSink
	Navigator model.Navigator
	Advisor   Advisor
}

// Engine executes tool calls.
type Engine struct {
	deps Deps
}

// NewEngine creates an engine over deps.
func NewEngine(deps Deps) *Engine {
	return &Engine{deps: deps}
}

// SetAdvisor replaces the advisor used by suggest_solution.
func (e *Engine) SetAdvisor(a Advisor) {
	e.deps.Advisor = a
}

// Execute validates and runs a tool call. It never panics and never
// returns an error; failures are encoded in the result.
func (e *Engine) Execute(ctx context.Context, call model.ToolCall) (result model.ToolResult) {
	decl, ok := Lookup(call.Name)
	if !ok {
		return failure(ReasonUnknownTool, fmt.Errorf("tool %q is not defined", call.Name))
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	if err := ValidateArguments(decl, call.Arguments); err != nil {
		return failure(ReasonInvalidArguments, err)
	}

	defer func() {
		if r := recover(); r != nil {
			config.DebugLog.Errorf("[Tools] %s panicked: %v", call.Name, r)
			result = failure(ReasonInternal, fmt.Errorf("%v", r))
		}
	}()

	config.DebugLog.Debugf("[Tools] Executing %s args=%v", call.Name, call.Arguments)

	switch call.Name {
	case SearchLogs:
		return e.searchLogs(call.Arguments)
	case FindLogPatterns:
		return e.findLogPatterns(call.Arguments)
	case TraceErrorOrigin:
		return e.traceErrorOrigin(call.Arguments)
	case UpdateFilters:
		return e.updateFilters(call.Arguments)
	case ScrollToLog:
		return e.scrollToLog(call.Arguments)
	case SuggestSolution:
		return e.suggestSolution(ctx, call.Arguments)
	default:
		return failure(ReasonUnknownTool, fmt.Errorf("tool %q has no implementation", call.Name))
	}
}

// Unavailable builds the result for a declared tool the model called
// outside the set offered in the current state.
func Unavailable(name string, state model.ConversationState) model.ToolResult {
	return failure(ReasonUnavailable, fmt.Errorf("tool %q is not available while %s", name, state))
}

func failure(reason FailureReason, err error) model.ToolResult {
	return model.ToolResult{
		"error":  err.Error(),
		"reason": string(reason),
	}
}

func (e *Engine) snapshot() []model.LogEntry {
	if e.deps.Corpus == nil {
		return nil
	}
	return e.deps.Corpus.Snapshot()
}

func levelHistogram(entries []model.LogEntry) map[string]int {
	counts := make(map[string]int)
	for _, entry := range entries {
		counts[string(entry.Level)]++
	}
	return counts
}
