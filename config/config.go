package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OllamaConfig struct {
	Host          string `toml:"host"`
	OnDeviceModel string `toml:"ondevice_model"`
	DownloadModel string `toml:"download_model"`
	KeepAliveMins int    `toml:"keep_alive_minutes"`
}

type TierConfig struct {
	Name  string `toml:"name"`
	Model string `toml:"model"`
	RPM   int    `toml:"rpm"`
}

type HostedConfig struct {
	Vendor      string       `toml:"vendor"`
	DefaultTier string       `toml:"default_tier"`
	BaseURL     string       `toml:"base_url,omitempty"`
	Tiers       []TierConfig `toml:"tiers,omitempty"`
}

type CredentialsConfig struct {
	Method     SecurityMethod `toml:"method"`
	SSHKeyPath string         `toml:"ssh_key_path,omitempty"`
}

type UserConfig struct {
	Backend     string            `toml:"backend"`
	Hosted      HostedConfig      `toml:"hosted"`
	Ollama      OllamaConfig      `toml:"ollama"`
	Credentials CredentialsConfig `toml:"credentials"`
}

type Config struct {
	DataDirectory string
	Backend       string
	Vendor        string
	DefaultTier   string
	HostedBaseURL string
	Tiers         []TierConfig

	OllamaHost    string
	OnDeviceModel string
	DownloadModel string
	KeepAliveMins int

	SecurityMethod SecurityMethod
	SSHKeyPath     string

	// EnvAPIKey is the hosted credential supplied by the environment. A key
	// saved by the user takes precedence over it.
	EnvAPIKey string
}

var Debug = false

// DebugLog is never nil. It discards everything unless debug logging
// was enabled with InitDebugLog.
var DebugLog = zap.NewNop().Sugar()

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyUserConfig(u *UserConfig) {
	if u.Backend != "" {
		c.Backend = u.Backend
	}
	if u.Hosted.Vendor != "" {
		c.Vendor = u.Hosted.Vendor
	}
	if u.Hosted.DefaultTier != "" {
		c.DefaultTier = u.Hosted.DefaultTier
	}
	c.HostedBaseURL = u.Hosted.BaseURL
	if len(u.Hosted.Tiers) > 0 {
		c.Tiers = u.Hosted.Tiers
	}
	if u.Ollama.Host != "" {
		c.OllamaHost = u.Ollama.Host
	}
	if u.Ollama.OnDeviceModel != "" {
		c.OnDeviceModel = u.Ollama.OnDeviceModel
	}
	if u.Ollama.DownloadModel != "" {
		c.DownloadModel = u.Ollama.DownloadModel
	}
	if u.Ollama.KeepAliveMins > 0 {
		c.KeepAliveMins = u.Ollama.KeepAliveMins
	}
	if u.Credentials.Method != "" {
		c.SecurityMethod = u.Credentials.Method
	}
	c.SSHKeyPath = ExpandPath(u.Credentials.SSHKeyPath)
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("LOGCHAT_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if vendor := os.Getenv("LOGCHAT_VENDOR"); vendor != "" {
		c.Vendor = vendor
	}
	c.EnvAPIKey = EnvAPIKey()
}

// EnvAPIKey returns LOGCHAT_API_KEY, falling back to GEMINI_API_KEY.
func EnvAPIKey() string {
	if key := os.Getenv("LOGCHAT_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

func CheckDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("LOGCHAT_DEBUG"))
	return debug
}

// InitDebugLog points DebugLog at <dataDir>/debug.log when LOGCHAT_DEBUG
// is set. Failures leave the no-op logger in place.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	// The log may contain prompts and model output.
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}
	f.Close()

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not start debug log: %v\n", err)
		return
	}

	Debug = true
	DebugLog = logger.Sugar()
	DebugLog.Infof("=== Debug logging started (LOGCHAT_DEBUG=%s) ===", os.Getenv("LOGCHAT_DEBUG"))
	DebugLog.Infof("Log path: %s", logPath)
}

// SyncDebugLog flushes buffered log entries.
func SyncDebugLog() {
	_ = DebugLog.Sync()
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:  GetDefaultDataDir(),
		Backend:        DefaultBackend,
		Vendor:         DefaultVendor,
		DefaultTier:    DefaultTier,
		OllamaHost:     DefaultOllamaHost,
		OnDeviceModel:  DefaultOnDeviceModel,
		DownloadModel:  DefaultDownloadModel,
		KeepAliveMins:  DefaultKeepAliveMins,
		SecurityMethod: SecurityPlainText,
	}

	if dataDir := os.Getenv("LOGCHAT_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()

	return cfg, nil
}
