package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"logchat/model"
	"logchat/provider/testutil"
)

type sliceCorpus []model.LogEntry

func (c sliceCorpus) Snapshot() []model.LogEntry { return c }

func ids(entries []model.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestLogViewFilters(t *testing.T) {
	view := NewLogView(sliceCorpus(testutil.LogEntries(10)))
	assert.Len(t, view.Visible(), 10)
	assert.Equal(t, "no filters", view.Describe())

	view.ApplyFilters(model.Filters{Levels: []model.Level{model.LevelError}}, true)
	assert.Equal(t, []string{"log-4", "log-9"}, ids(view.Visible()))

	// Without reset the level filter stays and the daemon filter narrows it.
	view.ApplyFilters(model.Filters{Daemons: []string{"WIFID"}}, false)
	assert.Equal(t, []string{"log-4"}, ids(view.Visible()))
	assert.Equal(t, "levels: ERROR | daemons: WIFID", view.Describe())

	view.ApplyFilters(model.Filters{Keywords: []string{"heartbeat 3", "heartbeat 6"}, MatchMode: model.MatchAny}, true)
	assert.Equal(t, []string{"log-3", "log-6"}, ids(view.Visible()))

	view.ApplyFilters(model.Filters{}, true)
	assert.Len(t, view.Visible(), 10)
}

func TestLogViewStatusLine(t *testing.T) {
	view := NewLogView(sliceCorpus(testutil.LogEntries(5)))
	view.ApplyFilters(model.Filters{Levels: []model.Level{model.LevelError}}, true)
	view.ScrollTo("log-4")

	line := view.StatusLine(0)
	assert.True(t, strings.HasPrefix(line, "Logs 1/5 | levels: ERROR | at log-4"), line)
	assert.Contains(t, line, "request 4 failed: timeout")
	assert.Equal(t, "log-4", view.Focused())

	short := view.StatusLine(12)
	assert.LessOrEqual(t, len([]rune(short)), 12)
	assert.True(t, strings.HasSuffix(short, "…"))
}

func TestLogViewWithoutCorpus(t *testing.T) {
	view := NewLogView(nil)
	view.ScrollTo("missing")
	assert.Empty(t, view.Visible())
	assert.Equal(t, "Logs 0/0 | no filters | at missing", view.StatusLine(0))
}
