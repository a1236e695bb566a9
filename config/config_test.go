package config

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestLoadCreatesTemplatesAndAppliesEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LOGCHAT_DATA_DIR", "")
	t.Setenv("LOGCHAT_OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("LOGCHAT_VENDOR", "")
	t.Setenv("LOGCHAT_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, ".local", "share", "logchat"); cfg.DataDir() != want {
		t.Errorf("DataDir() = %q, want %q", cfg.DataDir(), want)
	}
	if !FileExists(GetSettingsFilePath()) {
		t.Error("settings.toml was not created")
	}
	if !FileExists(filepath.Join(cfg.DataDir(), "config.toml")) {
		t.Error("config.toml was not created")
	}
	if cfg.OllamaHost != "http://gpu-box:11434" {
		t.Errorf("OllamaHost = %q, want env override", cfg.OllamaHost)
	}
	if cfg.EnvAPIKey != "env-key" {
		t.Errorf("EnvAPIKey = %q, want GEMINI_API_KEY fallback", cfg.EnvAPIKey)
	}
	if cfg.Vendor != DefaultVendor || cfg.Backend != DefaultBackend || cfg.DefaultTier != DefaultTier {
		t.Errorf("unexpected defaults: vendor=%q backend=%q tier=%q", cfg.Vendor, cfg.Backend, cfg.DefaultTier)
	}

	info, err := os.Stat(cfg.DataDir())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0700 {
		t.Errorf("data dir perms = %o, want 0700", info.Mode().Perm())
	}
}

func TestLoadReadsUserConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataDir := t.TempDir()
	t.Setenv("LOGCHAT_DATA_DIR", dataDir)
	t.Setenv("LOGCHAT_OLLAMA_HOST", "")
	t.Setenv("LOGCHAT_VENDOR", "")

	content := `backend = "downloadable"

[hosted]
vendor = "openai"
default_tier = "mini"

[[hosted.tiers]]
name = "full"
model = "gpt-4.1"
rpm = 3

[[hosted.tiers]]
name = "mini"
model = "gpt-4.1-mini"
rpm = 20

[ollama]
download_model = "llama3.2:3b"
`
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != "downloadable" {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.Vendor != "openai" || cfg.DefaultTier != "mini" {
		t.Errorf("hosted = %q/%q", cfg.Vendor, cfg.DefaultTier)
	}
	if len(cfg.Tiers) != 2 || cfg.Tiers[1].Model != "gpt-4.1-mini" || cfg.Tiers[1].RPM != 20 {
		t.Errorf("Tiers = %+v", cfg.Tiers)
	}
	if cfg.DownloadModel != "llama3.2:3b" {
		t.Errorf("DownloadModel = %q", cfg.DownloadModel)
	}
	if cfg.OnDeviceModel != DefaultOnDeviceModel || cfg.OllamaHost != DefaultOllamaHost {
		t.Errorf("unset fields should keep defaults, got %q %q", cfg.OnDeviceModel, cfg.OllamaHost)
	}
}

func TestEnvAPIKeyPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		logchat string
		gemini  string
		want    string
	}{
		{"none", "", "", ""},
		{"gemini only", "", "g", "g"},
		{"logchat wins", "l", "g", "l"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOGCHAT_API_KEY", tt.logchat)
			t.Setenv("GEMINI_API_KEY", tt.gemini)
			if got := EnvAPIKey(); got != tt.want {
				t.Errorf("EnvAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("LOGCHAT_TEST_DIR", "/srv/logs")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~/data", "/home/tester/data"},
		{"$LOGCHAT_TEST_DIR/x/../y", "/srv/logs/y"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCredentialStorePlainText(t *testing.T) {
	dir := t.TempDir()

	store := NewCredentialStore(dir, SecurityPlainText, "", "gemini", "env-default")
	if err := store.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := store.Credential(); got != "env-default" {
		t.Errorf("Credential() = %q, want env default", got)
	}

	if err := store.SetCredential("  user-key  "); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}
	if got := store.Credential(); got != "user-key" {
		t.Errorf("Credential() = %q, want saved key to override env", got)
	}
	if err := store.SetCredential(" "); err == nil {
		t.Error("SetCredential(blank) should fail")
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credentials perms = %o, want 0600", info.Mode().Perm())
	}

	reloaded := NewCredentialStore(dir, SecurityPlainText, "", "gemini", "")
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Credential(); got != "user-key" {
		t.Errorf("reloaded Credential() = %q", got)
	}

	other := NewCredentialStore(dir, SecurityPlainText, "", "anthropic", "")
	if err := other.Load(); err != nil {
		t.Fatal(err)
	}
	if got := other.Credential(); got != "" {
		t.Errorf("other vendor Credential() = %q, want empty", got)
	}
}

func writeTestKey(t *testing.T, passphrase string) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte(passphrase))
	}
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCredentialStoreSSHKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestKey(t, "")

	store := NewCredentialStore(dir, SecuritySSHKey, keyPath, "gemini", "")
	if err := store.SetCredential("sealed-key"); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) == 0 || bytes.Contains(raw, []byte("sealed-key")) {
		t.Error("credentials.enc should hold ciphertext only")
	}

	reloaded := NewCredentialStore(dir, SecuritySSHKey, keyPath, "gemini", "")
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.Credential(); got != "sealed-key" {
		t.Errorf("Credential() = %q", got)
	}
}

func TestCredentialStoreEncryptedKeyNeedsPassphrase(t *testing.T) {
	dir := t.TempDir()
	keyPath := writeTestKey(t, "hunter2")

	store := NewCredentialStore(dir, SecuritySSHKey, keyPath, "gemini", "")
	err := store.SetCredential("k")
	if !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("SetCredential() error = %v, want ErrPassphraseRequired", err)
	}

	store.SetPassphrase("hunter2")
	if err := store.SetCredential("k"); err != nil {
		t.Fatalf("SetCredential() with passphrase error = %v", err)
	}
}

func TestConsentStore(t *testing.T) {
	dir := t.TempDir()

	store, err := LoadConsentStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if store.Consented() {
		t.Error("fresh store should not be consented")
	}

	if err := store.SetConsent(true); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadConsentStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Consented() {
		t.Error("consent was not persisted")
	}
}

func TestDebugLogDefaultsToNop(t *testing.T) {
	if DebugLog == nil {
		t.Fatal("DebugLog must never be nil")
	}
	DebugLog.Debugf("[Test] %s", "no panic")
}

func TestSaveSelection(t *testing.T) {
	dataDir := t.TempDir()

	if err := SaveSelection(dataDir, "ondevice", "flash"); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "ondevice" || cfg.Hosted.DefaultTier != "flash" {
		t.Errorf("saved backend=%q tier=%q", cfg.Backend, cfg.Hosted.DefaultTier)
	}

	// An empty tier keeps the saved one.
	if err := SaveSelection(dataDir, "hosted", ""); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadUserConfig(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "hosted" || cfg.Hosted.DefaultTier != "flash" {
		t.Errorf("saved backend=%q tier=%q", cfg.Backend, cfg.Hosted.DefaultTier)
	}
}
