package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"logchat/model"
)

func (e *Engine) updateFilters(args map[string]any) model.ToolResult {
	var filters model.Filters
	applied := map[string]any{}

	if levels, ok := stringsArg(args, "log_levels"); ok {
		filters.Levels = make([]model.Level, 0, len(levels))
		names := make([]string, 0, len(levels))
		for _, l := range levels {
			lvl := model.ParseLevel(l)
			filters.Levels = append(filters.Levels, lvl)
			names = append(names, string(lvl))
		}
		applied["log_levels"] = names
	}
	if daemons, ok := stringsArg(args, "daemons"); ok {
		filters.Daemons = e.resolveDaemons(daemons)
		applied["daemons"] = filters.Daemons
	}
	if keywords, ok := stringsArg(args, "search_keywords"); ok {
		filters.Keywords = keywords
		applied["search_keywords"] = keywords
	}
	filters.MatchMode = model.MatchMode(strings.ToUpper(stringArg(args, "keyword_match_mode", string(model.MatchAny))))
	applied["keyword_match_mode"] = string(filters.MatchMode)
	reset := boolArg(args, "reset_before_applying", true)
	applied["reset_before_applying"] = reset

	if e.deps.Filters != nil {
		e.deps.Filters.ApplyFilters(filters, reset)
	}
	return model.ToolResult{
		"success": true,
		"applied": applied,
	}
}

// resolveDaemons maps model-supplied daemon names onto known daemons. Exact
// (case-insensitive) matches win, then the best fuzzy match. Names that
// match nothing are kept as given.
func (e *Engine) resolveDaemons(names []string) []string {
	if e.deps.Daemons == nil {
		return names
	}
	known := e.deps.Daemons.Daemons()
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, resolveDaemon(name, known))
	}
	return out
}

func resolveDaemon(name string, known []string) string {
	for _, k := range known {
		if strings.EqualFold(k, name) {
			return k
		}
	}
	if matches := fuzzy.Find(name, known); len(matches) > 0 {
		return matches[0].Str
	}
	return name
}

func (e *Engine) scrollToLog(args map[string]any) model.ToolResult {
	id := stringArg(args, "log_id", "")
	if e.deps.Navigator != nil {
		e.deps.Navigator.ScrollTo(id)
	}
	return model.ToolResult{"success": true, "log_id": id}
}

func (e *Engine) suggestSolution(ctx context.Context, args map[string]any) model.ToolResult {
	msg := stringArg(args, "error_message", "")
	if e.deps.Advisor == nil {
		return model.ErrorResult("cannot suggest a solution without a model")
	}

	answer, err := e.deps.Advisor.Advise(ctx, SolutionPrompt(msg))
	if err != nil {
		return model.ErrorResult(fmt.Sprintf("failed to get a suggestion: %v", err))
	}
	return model.ToolResult{"suggestion": answer}
}

// SolutionPrompt is the single question sent to the advisor.
func SolutionPrompt(errorMessage string) string {
	return strings.Join([]string{
		"A system log contains the following error:",
		"",
		errorMessage,
		"",
		"List the most likely causes and concrete steps to fix or investigate it. Be concise.",
	}, "\n")
}
