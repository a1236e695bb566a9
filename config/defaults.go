package config

const (
	DefaultBackend       = "hosted"
	DefaultVendor        = "gemini"
	DefaultTier          = "pro"
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultOnDeviceModel = "gemma3:1b"
	DefaultDownloadModel = "qwen3:4b"
	DefaultKeepAliveMins = 30
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/logchat",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Backend: DefaultBackend,
		Hosted: HostedConfig{
			Vendor:      DefaultVendor,
			DefaultTier: DefaultTier,
		},
		Ollama: OllamaConfig{
			Host:          DefaultOllamaHost,
			OnDeviceModel: DefaultOnDeviceModel,
			DownloadModel: DefaultDownloadModel,
			KeepAliveMins: DefaultKeepAliveMins,
		},
		Credentials: CredentialsConfig{
			Method: SecurityPlainText,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# logchat System Configuration
# Location: ~/.config/logchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the log database, findings and user config are stored
data_directory = "~/.local/share/logchat"
`
}

func GenerateUserConfigTemplate() string {
	return `# logchat User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Which model backend answers questions: hosted, ondevice or downloadable
backend = "hosted"

[hosted]
# gemini, openai, anthropic or openrouter
vendor = "gemini"

# Tier requested for every turn. When its per-minute budget is spent the
# next cheaper tier is used instead.
default_tier = "pro"

# Tiers from most to least capable. Leave empty to use the vendor defaults.
# [[hosted.tiers]]
# name = "pro"
# model = "gemini-2.5-pro"
# rpm = 2

[ollama]
# Ollama server URL
host = "http://localhost:11434"

# Model expected to already be present for the on-device backend
ondevice_model = "gemma3:1b"

# Model pulled on demand (after consent) for the downloadable backend
download_model = "qwen3:4b"

keep_alive_minutes = 30

[credentials]
# plaintext or ssh_key
method = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"
`
}
