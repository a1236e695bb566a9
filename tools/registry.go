package tools

import (
	"logchat/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

const (
	SearchLogs       = "search_logs"
	FindLogPatterns  = "find_log_patterns"
	TraceErrorOrigin = "trace_error_origin"
	UpdateFilters    = "update_filters"
	ScrollToLog      = "scroll_to_log"
	SuggestSolution  = "suggest_solution"
)

var declarations = []mcptypes.Tool{
	mcptypes.NewTool(SearchLogs,
		mcptypes.WithDescription("Search the full log corpus for entries containing keywords (case-insensitive). "+
			"Returns the number of matches, a count per log level and up to 3 example log ids."),
		mcptypes.WithArray("keywords",
			mcptypes.Required(),
			mcptypes.Description("Keywords to look for in the log message or timestamp"),
			mcptypes.Items(map[string]any{"type": "string"}),
		),
		mcptypes.WithString("match_mode",
			mcptypes.Description("AND requires every keyword, OR requires any keyword"),
			mcptypes.Enum(string(model.MatchAll), string(model.MatchAny)),
			mcptypes.DefaultString(string(model.MatchAny)),
		),
		mcptypes.WithNumber("limit",
			mcptypes.Description("Maximum number of matching entries to consider"),
			mcptypes.DefaultNumber(defaultSearchLimit),
		),
	),
	mcptypes.NewTool(FindLogPatterns,
		mcptypes.WithDescription("Find patterns in the logs: the most frequent repeating error messages "+
			"(numbers normalized) or minutes with an unusual spike in log volume."),
		mcptypes.WithString("pattern_type",
			mcptypes.Required(),
			mcptypes.Description("Which analysis to run"),
			mcptypes.Enum(patternRepeatingError, patternFrequencySpike),
		),
		mcptypes.WithNumber("time_window_minutes",
			mcptypes.Description("Only analyze the trailing N minutes, measured from the last log entry"),
		),
	),
	mcptypes.NewTool(TraceErrorOrigin,
		mcptypes.WithDescription("Look at everything logged in the seconds leading up to a specific log entry "+
			"to find what may have caused it."),
		mcptypes.WithString("error_log_id",
			mcptypes.Required(),
			mcptypes.Description("Id of the log entry to trace back from"),
		),
		mcptypes.WithNumber("trace_window_seconds",
			mcptypes.Description("How many seconds before the entry to include"),
			mcptypes.DefaultNumber(defaultTraceWindowSeconds),
		),
	),
	mcptypes.NewTool(UpdateFilters,
		mcptypes.WithDescription("Change the filters of the user's log view to show relevant entries."),
		mcptypes.WithArray("log_levels",
			mcptypes.Description("Log levels to show, e.g. ERROR, WARNING"),
			mcptypes.Items(map[string]any{"type": "string"}),
		),
		mcptypes.WithArray("daemons",
			mcptypes.Description("Daemons (processes) to show"),
			mcptypes.Items(map[string]any{"type": "string"}),
		),
		mcptypes.WithArray("search_keywords",
			mcptypes.Description("Keywords the visible entries must contain"),
			mcptypes.Items(map[string]any{"type": "string"}),
		),
		mcptypes.WithString("keyword_match_mode",
			mcptypes.Enum(string(model.MatchAll), string(model.MatchAny)),
			mcptypes.DefaultString(string(model.MatchAny)),
		),
		mcptypes.WithBoolean("reset_before_applying",
			mcptypes.Description("Clear existing filters before applying these"),
			mcptypes.DefaultBool(true),
		),
	),
	mcptypes.NewTool(ScrollToLog,
		mcptypes.WithDescription("Scroll the user's log view to a specific log entry."),
		mcptypes.WithString("log_id",
			mcptypes.Required(),
			mcptypes.Description("Id of the log entry"),
		),
	),
	mcptypes.NewTool(SuggestSolution,
		mcptypes.WithDescription("Ask for likely causes and remedies for an error message."),
		mcptypes.WithString("error_message",
			mcptypes.Required(),
			mcptypes.Description("The error message to explain"),
		),
	),
}

var availability = map[model.ConversationState][]string{
	model.StateIdle:      {SearchLogs, FindLogPatterns, UpdateFilters, ScrollToLog, SuggestSolution},
	model.StateAnalyzing: {SearchLogs, TraceErrorOrigin, ScrollToLog, SuggestSolution},
}

// All returns every tool declaration.
func All() []mcptypes.Tool {
	return append([]mcptypes.Tool(nil), declarations...)
}

// Lookup returns the declaration for a tool name.
func Lookup(name string) (mcptypes.Tool, bool) {
	for _, d := range declarations {
		if d.Name == name {
			return d, true
		}
	}
	return mcptypes.Tool{}, false
}

// Available returns the tools legal in state, in declaration order.
// While analyzing, the set narrows to tools that deepen on a finding.
func Available(state model.ConversationState) []mcptypes.Tool {
	allowed := make(map[string]bool)
	for _, name := range availability[state] {
		allowed[name] = true
	}
	out := make([]mcptypes.Tool, 0, len(allowed))
	for _, d := range declarations {
		if allowed[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// IsAvailable reports whether name is legal in state.
func IsAvailable(state model.ConversationState, name string) bool {
	for _, n := range availability[state] {
		if n == name {
			return true
		}
	}
	return false
}
