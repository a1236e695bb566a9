package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"logchat/config"
	"logchat/model"
)

// TranscriptMessage is one exported chat message.
type TranscriptMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	IsError   bool      `json:"is_error,omitempty"`
	IsWarning bool      `json:"is_warning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is an exported conversation.
type Transcript struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	SavedAt  time.Time           `json:"saved_at"`
	Messages []TranscriptMessage `json:"messages"`
}

// TranscriptMetadata is a lightweight version of Transcript for listing
type TranscriptMetadata struct {
	ID           string
	Name         string
	Path         string
	SavedAt      time.Time
	MessageCount int
}

// TranscriptStorage writes transcripts as JSON files under the data directory.
type TranscriptStorage struct {
	dir string
}

// NewTranscriptStorage creates the transcripts directory if needed.
func NewTranscriptStorage(dataDir string) (*TranscriptStorage, error) {
	dir := config.TranscriptsDir(dataDir)

	// 0700 - transcripts quote log contents
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create transcripts directory: %w", err)
	}

	return &TranscriptStorage{dir: dir}, nil
}

// Save writes messages to a new transcript file and returns its path.
func (s *TranscriptStorage) Save(messages []model.Message) (string, error) {
	t := Transcript{
		ID:       uuid.New().String(),
		Name:     GenerateTranscriptName(firstUserText(messages)),
		SavedAt:  time.Now(),
		Messages: make([]TranscriptMessage, 0, len(messages)),
	}
	for _, m := range messages {
		t.Messages = append(t.Messages, TranscriptMessage{
			ID:        m.ID,
			Role:      string(m.Role),
			Text:      m.Text,
			IsError:   m.IsError,
			IsWarning: m.IsWarning,
			Timestamp: m.Timestamp,
		})
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%s.json", t.SavedAt.Format("20060102-150405"), SanitizeFilename(t.Name), t.ID[:8])
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write transcript file: %w", err)
	}

	config.DebugLog.Infof("[Storage] Saved transcript %s (%d messages)", path, len(messages))
	return path, nil
}

// Load reads a transcript file.
func (s *TranscriptStorage) Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

// List returns metadata for all transcripts, newest first.
func (s *TranscriptStorage) List() ([]TranscriptMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcripts directory: %w", err)
	}

	var list []TranscriptMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		t, err := s.Load(path)
		if err != nil {
			continue // Skip corrupted files
		}
		list = append(list, TranscriptMetadata{
			ID:           t.ID,
			Name:         t.Name,
			Path:         path,
			SavedAt:      t.SavedAt,
			MessageCount: len(t.Messages),
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].SavedAt.After(list[j].SavedAt)
	})
	return list, nil
}

func firstUserText(messages []model.Message) string {
	for _, m := range messages {
		if m.Role == model.RoleUser {
			return m.Text
		}
	}
	return ""
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\n', '\r', '\t':
			return '-'
		}
		return r
	}, name)

	name = strings.Trim(name, "-.")

	if len(name) > 50 {
		name = strings.TrimRight(name[:50], "-.")
	}

	if name == "" {
		name = "transcript"
	}
	return name
}

// GenerateTranscriptName generates a name from the first user message
func GenerateTranscriptName(firstMessage string) string {
	name := strings.Join(strings.Fields(firstMessage), " ")
	if name == "" {
		return fmt.Sprintf("Conversation %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	if r := []rune(name); len(r) > 30 {
		name = string(r[:30]) + "..."
	}
	return name
}
