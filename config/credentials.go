package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines the credential storage method
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// CredentialStore holds the hosted API key for each vendor. A saved key
// takes precedence over the environment default.
type CredentialStore struct {
	mu          sync.RWMutex
	dataDir     string
	method      SecurityMethod
	sshKeyPath  string
	passphrase  string
	vendor      string
	envDefault  string
	credentials map[string]string // vendor → API key
}

// NewCredentialStore creates a store for vendor's key under dataDir.
// Call Load before use.
func NewCredentialStore(dataDir string, method SecurityMethod, sshKeyPath, vendor, envDefault string) *CredentialStore {
	if method == "" {
		method = SecurityPlainText
	}
	return &CredentialStore{
		dataDir:     dataDir,
		method:      method,
		sshKeyPath:  sshKeyPath,
		vendor:      vendor,
		envDefault:  strings.TrimSpace(envDefault),
		credentials: make(map[string]string),
	}
}

// SetPassphrase sets the passphrase for an encrypted SSH key.
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passphrase = passphrase
}

// Credential returns the effective key for the current vendor, or "".
func (c *CredentialStore) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if key := c.credentials[c.vendor]; key != "" {
		return key
	}
	return c.envDefault
}

// SetCredential saves key for the current vendor and persists the store.
func (c *CredentialStore) SetCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("credential must not be empty")
	}

	c.mu.Lock()
	c.credentials[c.vendor] = key
	c.mu.Unlock()

	DebugLog.Debugf("[CredentialStore] Saved credential for %s", c.vendor)
	return c.Save()
}

// Load reads credentials from disk. A missing file is not an error.
func (c *CredentialStore) Load() error {
	var (
		creds map[string]string
		err   error
	)
	switch c.method {
	case SecurityPlainText:
		creds, err = loadPlainText(c.dataDir)
	case SecuritySSHKey:
		creds, err = c.loadSealed()
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
	if err != nil {
		return err
	}
	if creds == nil {
		creds = make(map[string]string)
	}

	c.mu.Lock()
	c.credentials = creds
	c.mu.Unlock()
	return nil
}

// Save writes credentials to disk with 0600 permissions.
func (c *CredentialStore) Save() error {
	c.mu.RLock()
	creds := make(map[string]string, len(c.credentials))
	for k, v := range c.credentials {
		creds[k] = v
	}
	c.mu.RUnlock()

	switch c.method {
	case SecurityPlainText:
		return savePlainText(c.dataDir, creds)
	case SecuritySSHKey:
		return c.saveSealed(creds)
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func sealedCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

func loadPlainText(dataDir string) (map[string]string, error) {
	path := credentialsPath(dataDir)
	if !FileExists(path) {
		return nil, nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return cf.Credentials, nil
}

func savePlainText(dataDir string, creds map[string]string) error {
	f, err := os.OpenFile(credentialsPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: creds}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return nil
}

func (c *CredentialStore) newSealer() (*sealer, error) {
	c.mu.RLock()
	keyPath, passphrase := c.sshKeyPath, c.passphrase
	c.mu.RUnlock()
	if keyPath == "" {
		return nil, fmt.Errorf("ssh_key credential method requires ssh_key_path")
	}
	return newSealer(keyPath, passphrase)
}

func (c *CredentialStore) loadSealed() (map[string]string, error) {
	path := sealedCredentialsPath(c.dataDir)
	if !FileExists(path) {
		return nil, nil
	}

	s, err := c.newSealer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted credentials: %w", err)
	}
	data, err := s.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}
	return creds, nil
}

func (c *CredentialStore) saveSealed(creds map[string]string) error {
	s, err := c.newSealer()
	if err != nil {
		return fmt.Errorf("failed to initialize encryption: %w", err)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	sealed, err := s.Seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(sealedCredentialsPath(c.dataDir), sealed, 0600); err != nil {
		return fmt.Errorf("failed to write encrypted credentials: %w", err)
	}
	return nil
}
