package tools

import (
	"fmt"
	"strings"

	"logchat/model"
)

const (
	defaultSearchLimit = 100
	maxExamples        = 3
)

func (e *Engine) searchLogs(args map[string]any) model.ToolResult {
	keywords, _ := stringsArg(args, "keywords")
	if len(keywords) == 0 {
		return failure(ReasonInvalidArguments, fmt.Errorf("at least one non-empty keyword is required"))
	}
	mode := model.MatchMode(strings.ToUpper(stringArg(args, "match_mode", string(model.MatchAny))))
	limit := int(numberArg(args, "limit", defaultSearchLimit))
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	all := Search(e.snapshot(), keywords, mode)
	total := len(all)
	matches := all
	if len(matches) > limit {
		matches = matches[:limit]
	}

	if total == 0 {
		return model.ToolResult{
			"total_matches": 0,
			"returned":      0,
			"level_counts":  map[string]int{},
			"example_ids":   []string{},
			"summary":       fmt.Sprintf("No logs matched %s (%s).", strings.Join(keywords, ", "), mode),
		}
	}

	examples := make([]string, 0, maxExamples)
	for _, entry := range matches {
		if len(examples) == maxExamples {
			break
		}
		examples = append(examples, entry.ID)
	}

	return model.ToolResult{
		"total_matches": total,
		"returned":      len(matches),
		"level_counts":  levelHistogram(all),
		"example_ids":   examples,
		"summary":       fmt.Sprintf("Found %d matching logs.", total),
	}
}

// Search returns the entries whose message or formatted timestamp contains
// the keywords, case-insensitively. MatchAll requires every keyword,
// anything else requires at least one.
func Search(entries []model.LogEntry, keywords []string, mode model.MatchMode) []model.LogEntry {
	needles := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			needles = append(needles, k)
		}
	}
	if len(needles) == 0 {
		return nil
	}

	var out []model.LogEntry
	for _, entry := range entries {
		haystack := strings.ToLower(entry.Message + " " + entry.FormattedTimestamp())
		if matchKeywords(haystack, needles, mode) {
			out = append(out, entry)
		}
	}
	return out
}

func matchKeywords(haystack string, needles []string, mode model.MatchMode) bool {
	if mode == model.MatchAll {
		for _, n := range needles {
			if !strings.Contains(haystack, n) {
				return false
			}
		}
		return true
	}
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
