package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"logchat/config"
	"logchat/model"
	"logchat/tools"
)

// LogView holds the user's log view state: the active filters and the
// focused entry. The assistant changes it through ApplyFilters and ScrollTo
// from the turn goroutine while the UI reads it, so access is locked.
type LogView struct {
	corpus model.Corpus

	mu       sync.Mutex
	levels   []model.Level
	daemons  []string
	keywords []string
	mode     model.MatchMode
	focused  string
}

// NewLogView creates an unfiltered view over corpus.
func NewLogView(corpus model.Corpus) *LogView {
	return &LogView{corpus: corpus, mode: model.MatchAny}
}

// ApplyFilters implements model.FilterSink. With reset, every filter is
// cleared first. A nil slice leaves its filter untouched.
func (v *LogView) ApplyFilters(f model.Filters, reset bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if reset {
		v.levels, v.daemons, v.keywords = nil, nil, nil
		v.mode = model.MatchAny
	}
	if f.Levels != nil {
		v.levels = append([]model.Level(nil), f.Levels...)
	}
	if f.Daemons != nil {
		v.daemons = append([]string(nil), f.Daemons...)
	}
	if f.Keywords != nil {
		v.keywords = append([]string(nil), f.Keywords...)
	}
	if f.MatchMode != "" {
		v.mode = f.MatchMode
	}

	config.DebugLog.Debugf("[LogView] Filters applied (reset=%v): %s", reset, v.describeLocked())
}

// ScrollTo implements model.Navigator.
func (v *LogView) ScrollTo(logID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused = logID
	config.DebugLog.Debugf("[LogView] Focused log %s", logID)
}

// Focused returns the id of the focused entry, or "".
func (v *LogView) Focused() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused
}

// Visible returns the corpus entries that pass the active filters.
func (v *LogView) Visible() []model.LogEntry {
	if v.corpus == nil {
		return nil
	}
	v.mu.Lock()
	levels, daemons, keywords, mode := v.levels, v.daemons, v.keywords, v.mode
	v.mu.Unlock()

	entries := v.corpus.Snapshot()
	if len(keywords) > 0 {
		entries = tools.Search(entries, keywords, mode)
	}

	out := make([]model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if len(levels) > 0 && !containsLevel(levels, e.Level) {
			continue
		}
		if len(daemons) > 0 && !containsFold(daemons, e.Daemon) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Describe summarizes the active filters, or returns "no filters".
func (v *LogView) Describe() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.describeLocked()
}

func (v *LogView) describeLocked() string {
	var parts []string
	if len(v.levels) > 0 {
		names := make([]string, len(v.levels))
		for i, l := range v.levels {
			names[i] = string(l)
		}
		parts = append(parts, "levels: "+strings.Join(names, ","))
	}
	if len(v.daemons) > 0 {
		parts = append(parts, "daemons: "+strings.Join(v.daemons, ","))
	}
	if len(v.keywords) > 0 {
		parts = append(parts, fmt.Sprintf("keywords: %s (%s)", strings.Join(v.keywords, ","), v.mode))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " | ")
}

// StatusLine renders the one-line log view summary shown above the input,
// truncated to width.
func (v *LogView) StatusLine(width int) string {
	total := 0
	if v.corpus != nil {
		total = len(v.corpus.Snapshot())
	}
	line := fmt.Sprintf("Logs %d/%d | %s", len(v.Visible()), total, v.Describe())

	if id := v.Focused(); id != "" {
		line += " | at " + id
		if entry, ok := v.entry(id); ok {
			line += fmt.Sprintf(" %s [%s] %s", entry.FormattedTimestamp(), entry.Daemon, entry.Message)
		}
	}
	if width > 0 {
		line = runewidth.Truncate(line, width, "…")
	}
	return line
}

func (v *LogView) entry(id string) (model.LogEntry, bool) {
	if v.corpus == nil {
		return model.LogEntry{}, false
	}
	for _, e := range v.corpus.Snapshot() {
		if e.ID == id {
			return e, true
		}
	}
	return model.LogEntry{}, false
}

func containsLevel(levels []model.Level, l model.Level) bool {
	for _, x := range levels {
		if x == l {
			return true
		}
	}
	return false
}

func containsFold(values []string, s string) bool {
	for _, x := range values {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
