package tools

import (
	"fmt"
	"time"

	"logchat/model"
)

const (
	defaultTraceWindowSeconds = 60
	maxTraceIDs               = 5
)

func (e *Engine) traceErrorOrigin(args map[string]any) model.ToolResult {
	id := stringArg(args, "error_log_id", "")
	seconds := numberArg(args, "trace_window_seconds", defaultTraceWindowSeconds)
	if seconds < 0 {
		seconds = defaultTraceWindowSeconds
	}

	entries := e.snapshot()
	window, ok := TraceWindow(entries, id, time.Duration(seconds*float64(time.Second)))
	if !ok {
		return model.ToolResult{
			"found":   false,
			"summary": fmt.Sprintf("Log %q was not found.", id),
		}
	}

	last := make([]string, 0, maxTraceIDs)
	start := len(window) - maxTraceIDs
	if start < 0 {
		start = 0
	}
	for _, entry := range window[start:] {
		last = append(last, entry.ID)
	}

	return model.ToolResult{
		"found":          true,
		"target_id":      id,
		"window_seconds": seconds,
		"total":          len(window),
		"level_counts":   levelHistogram(window),
		"last_ids":       last,
		"summary":        fmt.Sprintf("%d logs in the %gs before %s.", len(window), seconds, id),
	}
}

// TraceWindow returns, in corpus order, the entries whose timestamp lies in
// [target-d, target]. The target itself is included. It returns false if no
// entry has the given id.
func TraceWindow(entries []model.LogEntry, id string, d time.Duration) ([]model.LogEntry, bool) {
	var target *model.LogEntry
	for i := range entries {
		if entries[i].ID == id {
			target = &entries[i]
			break
		}
	}
	if target == nil {
		return nil, false
	}

	from := target.Timestamp.Add(-d)
	var out []model.LogEntry
	for _, entry := range entries {
		if entry.Timestamp.Before(from) || entry.Timestamp.After(target.Timestamp) {
			continue
		}
		out = append(out, entry)
	}
	return out, true
}
