package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// ConsentStore remembers whether the user agreed to download the model
// used by the downloadable backend.
type ConsentStore struct {
	mu    sync.RWMutex
	path  string
	state consentFile
}

type consentFile struct {
	DownloadConsent bool      `toml:"download_consent"`
	UpdatedAt       time.Time `toml:"updated_at,omitempty"`
}

// LoadConsentStore reads <dataDir>/consent.toml. A missing file means no
// consent was given.
func LoadConsentStore(dataDir string) (*ConsentStore, error) {
	s := &ConsentStore{path: filepath.Join(dataDir, "consent.toml")}
	if !FileExists(s.path) {
		return s, nil
	}
	if _, err := toml.DecodeFile(s.path, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse consent file: %w", err)
	}
	return s, nil
}

func (s *ConsentStore) Consented() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DownloadConsent
}

func (s *ConsentStore) SetConsent(granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := consentFile{DownloadConsent: granted, UpdatedAt: time.Now().UTC()}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create consent file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(next); err != nil {
		return fmt.Errorf("failed to encode consent: %w", err)
	}

	s.state = next
	DebugLog.Debugf("[ConsentStore] Download consent set to %v", granted)
	return nil
}
