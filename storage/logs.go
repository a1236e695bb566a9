package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"logchat/config"
	"logchat/model"
)

// LogStore is the log corpus. Entries are cached in memory in corpus order
// (timestamp, then insertion) and the cache is replaced, never mutated,
// when new entries are imported.
type LogStore struct {
	db *DB

	mu      sync.RWMutex
	entries []model.LogEntry
	daemons []string
}

// NewLogStore loads the corpus already in db.
func NewLogStore(db *DB) (*LogStore, error) {
	s := &LogStore{db: db}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns every entry in corpus order. The slice is shared with
// every other reader and must not be modified; later imports replace it
// rather than writing to it.
func (s *LogStore) Snapshot() []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// Daemons returns a copy of the distinct daemon names, sorted.
func (s *LogStore) Daemons() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.daemons...)
}

// Count returns the number of entries in the corpus.
func (s *LogStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *LogStore) reload() error {
	rows, err := s.db.db.Query(`SELECT id, ts, level, daemon, message FROM logs ORDER BY ts, seq`)
	if err != nil {
		return fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	seen := make(map[string]bool)
	var daemons []string

	for rows.Next() {
		var e model.LogEntry
		var ts int64
		var level string
		if err := rows.Scan(&e.ID, &ts, &level, &e.Daemon, &e.Message); err != nil {
			return fmt.Errorf("failed to scan log row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Level = model.Level(level)
		entries = append(entries, e)

		if e.Daemon != "" && !seen[e.Daemon] {
			seen[e.Daemon] = true
			daemons = append(daemons, e.Daemon)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	sort.Strings(daemons)

	s.mu.Lock()
	s.entries = entries
	s.daemons = daemons
	s.mu.Unlock()
	return nil
}

// jsonlEntry is one line of an import file.
type jsonlEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Daemon    string `json:"daemon"`
	Message   string `json:"message"`
}

// timestampLayouts are tried in order when parsing imported timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	model.TimestampLayout,
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// maxLineSize bounds a single JSONL line.
const maxLineSize = 1 << 20

// ImportJSONL adds pre-structured entries, one JSON object per line. Blank
// lines are skipped. Entries without an id get a generated one; entries
// whose id already exists are ignored. The import is all or nothing: a
// malformed line aborts it. Returns the number of entries added.
func (s *LogStore) ImportJSONL(r io.Reader) (int, error) {
	tx, err := s.db.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO logs (id, ts, level, daemon, message) VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	added := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var raw jsonlEntry
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return 0, fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if raw.ID == "" {
			raw.ID = uuid.New().String()
		}

		res, err := stmt.Exec(raw.ID, ts.UnixNano(), string(model.ParseLevel(raw.Level)), raw.Daemon, raw.Message)
		if err != nil {
			return 0, fmt.Errorf("line %d: failed to insert: %w", line, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	config.DebugLog.Infof("[Storage] Imported %d log entries (%d lines)", added, line)

	if err := s.reload(); err != nil {
		return added, err
	}
	return added, nil
}
