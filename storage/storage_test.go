package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logchat/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "logchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

const sampleJSONL = `
{"id":"b","timestamp":"2025-03-14T09:00:02Z","level":"err","daemon":"wifid","message":"link down"}
{"id":"a","timestamp":"2025-03-14T09:00:01Z","level":"info","daemon":"kernel","message":"boot"}

{"timestamp":"2025-03-14 09:00:02.000","level":"WARN","daemon":"wifid","message":"retrying"}
`

func TestLogStoreImportAndSnapshot(t *testing.T) {
	db := openTestDB(t)
	store, err := NewLogStore(db)
	require.NoError(t, err)
	assert.Empty(t, store.Snapshot())

	added, err := store.ImportJSONL(strings.NewReader(sampleJSONL))
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	entries := store.Snapshot()
	require.Len(t, entries, 3)

	// Ordered by timestamp, then insertion.
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "retrying", entries[2].Message)
	assert.NotEmpty(t, entries[2].ID)

	assert.Equal(t, model.LevelError, entries[1].Level)
	assert.Equal(t, model.LevelWarning, entries[2].Level)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 0, 1, 0, time.UTC), entries[0].Timestamp)

	assert.Equal(t, []string{"kernel", "wifid"}, store.Daemons())
	assert.Equal(t, 3, store.Count())
}

func TestLogStoreSnapshotIsStable(t *testing.T) {
	store, err := NewLogStore(openTestDB(t))
	require.NoError(t, err)
	_, err = store.ImportJSONL(strings.NewReader(sampleJSONL))
	require.NoError(t, err)

	before := store.Snapshot()
	_, err = store.ImportJSONL(strings.NewReader(`{"id":"c","timestamp":"2025-03-14T08:00:00Z","level":"info","daemon":"powerd","message":"early"}`))
	require.NoError(t, err)

	assert.Len(t, before, 3)
	assert.Equal(t, "a", before[0].ID)
	assert.Equal(t, "c", store.Snapshot()[0].ID)
}

func TestLogStoreDaemonsReturnsCopy(t *testing.T) {
	store, err := NewLogStore(openTestDB(t))
	require.NoError(t, err)
	_, err = store.ImportJSONL(strings.NewReader(sampleJSONL))
	require.NoError(t, err)

	daemons := store.Daemons()
	require.NotEmpty(t, daemons)
	want := daemons[0]
	daemons[0] = "overwritten"

	assert.Equal(t, want, store.Daemons()[0])
}

func TestLogStoreImportSkipsDuplicateIDs(t *testing.T) {
	store, err := NewLogStore(openTestDB(t))
	require.NoError(t, err)

	line := `{"id":"x","timestamp":"2025-03-14T09:00:00Z","level":"info","daemon":"kernel","message":"m"}`
	added, err := store.ImportJSONL(strings.NewReader(line + "\n" + line))
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestLogStoreImportIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad json", "{\"id\":\"a\",\"timestamp\":\"2025-03-14T09:00:00Z\"}\n{not json", "line 2"},
		{"bad timestamp", `{"id":"a","timestamp":"yesterday"}`, "unrecognized timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewLogStore(openTestDB(t))
			require.NoError(t, err)

			_, err = store.ImportJSONL(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, store.Snapshot())
		})
	}
}

func TestLogStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logchat.db")
	db, err := Open(path)
	require.NoError(t, err)
	store, err := NewLogStore(db)
	require.NoError(t, err)
	_, err = store.ImportJSONL(strings.NewReader(sampleJSONL))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	store, err = NewLogStore(db)
	require.NoError(t, err)
	assert.Len(t, store.Snapshot(), 3)
}

func TestFindingsStore(t *testing.T) {
	findings := NewFindingsStore(openTestDB(t))

	got, err := findings.Findings()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, findings.Append("wifid drops the link every 30 minutes"))
	require.NoError(t, findings.Append("  kernel warns about thermal throttling  "))
	assert.Error(t, findings.Append("   "))

	got, err = findings.Findings()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"wifid drops the link every 30 minutes",
		"kernel warns about thermal throttling",
	}, got)
}

func TestTranscriptStorageSaveLoadList(t *testing.T) {
	dataDir := t.TempDir()
	ts, err := NewTranscriptStorage(dataDir)
	require.NoError(t, err)

	messages := []model.Message{
		model.NewMessage(model.RoleModel, "Welcome"),
		model.NewMessage(model.RoleUser, "Why does wifi/drop?"),
		model.NewErrorMessage("Something went wrong"),
	}
	path, err := ts.Save(messages)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.NotContains(t, filepath.Base(path), "/")

	loaded, err := ts.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Why does wifi/drop?", loaded.Name)
	require.Len(t, loaded.Messages, 3)
	assert.True(t, loaded.Messages[2].IsError)
	assert.Equal(t, messages[1].ID, loaded.Messages[1].ID)

	list, err := ts.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].MessageCount)
	assert.Equal(t, path, list[0].Path)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"simple":          "simple",
		"a/b:c":           "a-b-c",
		"  ..":            "transcript",
		"":                "transcript",
		"why is it slow?": "why-is-it-slow",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}

func TestGenerateTranscriptName(t *testing.T) {
	assert.Equal(t, "short question", GenerateTranscriptName("short\nquestion"))
	assert.Equal(t, strings.Repeat("x", 30)+"...", GenerateTranscriptName(strings.Repeat("x", 40)))
	assert.True(t, strings.HasPrefix(GenerateTranscriptName(""), "Conversation "))
}
