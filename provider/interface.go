// Package provider implements the model backends a conversation can run on.
//
// There are three backend kinds, all implementing model.Backend:
//   - HostedBackend: a remote vendor (Gemini by default, or OpenAI,
//     Anthropic, OpenRouter) behind a per-tier rate governor and an API key
//   - OnDeviceBackend: a model already installed in a local Ollama server,
//     used without tools
//   - DownloadableBackend: a local Ollama model pulled on demand after the
//     user consents, used with tools
//
// Vendor wire formats stay inside this package. Everything above it works
// with model.ChatMessage, model.ToolCall and mcptypes.Tool. See
// conversions.go for the mappings.
//
// Vendor quota errors are normalized by ClassifyError into *RateLimitError.
package provider

// Note: the ChatClient and Backend interfaces are defined in the model
// package (model/provider.go) to avoid import cycles.

// ProviderType identifies a hosted vendor or the local runtime.
type ProviderType string

const (
	ProviderTypeGemini     ProviderType = "gemini"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOllama     ProviderType = "ollama"
)

// Config holds vendor client configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}
