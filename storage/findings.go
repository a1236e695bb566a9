package storage

import (
	"fmt"
	"strings"
	"time"
)

// FindingsStore is the append-only list of findings the user saved.
type FindingsStore struct {
	db *DB
}

func NewFindingsStore(db *DB) *FindingsStore {
	return &FindingsStore{db: db}
}

// Append saves a finding. Blank text is rejected.
func (s *FindingsStore) Append(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("finding is empty")
	}
	_, err := s.db.db.Exec(`INSERT INTO findings (text, created_at) VALUES (?, ?)`, text, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save finding: %w", err)
	}
	return nil
}

// Findings returns every saved finding, oldest first.
func (s *FindingsStore) Findings() ([]string, error) {
	rows, err := s.db.db.Query(`SELECT text FROM findings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, text)
	}
	return findings, rows.Err()
}
