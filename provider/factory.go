package provider

import (
	"fmt"
	"strings"

	"logchat/config"
	"logchat/model"
	"logchat/ollama"
	"logchat/ratelimit"
)

// NewChatClient creates a vendor chat client from configuration.
func NewChatClient(cfg Config) (model.ChatClient, error) {
	var (
		client model.ChatClient
		err    error
	)
	switch cfg.Type {
	case ProviderTypeGemini:
		client, err = asChatClient(NewGeminiProvider(cfg.BaseURL, cfg.APIKey, cfg.Model))
	case ProviderTypeOpenAI:
		client, err = asChatClient(NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model))
	case ProviderTypeOpenRouter:
		client, err = asChatClient(NewOpenRouterProvider(cfg.BaseURL, cfg.APIKey, cfg.Model))
	case ProviderTypeAnthropic:
		client, err = asChatClient(NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model))
	case ProviderTypeOllama:
		oc, oerr := ollama.NewClient(cfg.BaseURL, cfg.Model)
		if oerr != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", oerr)
		}
		client = NewOllamaProvider(oc, 0)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// asChatClient keeps a failed constructor from producing a non-nil
// interface holding a nil pointer.
func asChatClient[T model.ChatClient](c T, err error) (model.ChatClient, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MapVendorToType converts a configured vendor name to a ProviderType.
// Unknown names are passed through so the factory reports them.
func MapVendorToType(vendor string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(vendor)) {
	case "", "gemini", "google":
		return ProviderTypeGemini
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic", "claude":
		return ProviderTypeAnthropic
	case "openrouter":
		return ProviderTypeOpenRouter
	default:
		return ProviderType(vendor)
	}
}

// DefaultTiers returns each vendor's tiers from most to least capable.
func DefaultTiers(vendor ProviderType) []ratelimit.Tier {
	switch vendor {
	case ProviderTypeOpenAI:
		return []ratelimit.Tier{
			{Name: "full", Model: "gpt-4.1", RPM: 3},
			{Name: "mini", Model: "gpt-4.1-mini", RPM: 10},
			{Name: "nano", Model: "gpt-4.1-nano", RPM: 20},
		}
	case ProviderTypeAnthropic:
		return []ratelimit.Tier{
			{Name: "sonnet", Model: "claude-sonnet-4-5", RPM: 5},
			{Name: "haiku", Model: "claude-haiku-4-5", RPM: 20},
		}
	case ProviderTypeOpenRouter:
		return []ratelimit.Tier{
			{Name: "pro", Model: "google/gemini-2.5-pro", RPM: 2},
			{Name: "flash", Model: "google/gemini-2.5-flash", RPM: 10},
			{Name: "flash-lite", Model: "google/gemini-2.5-flash-lite", RPM: 15},
		}
	default:
		return ratelimit.DefaultTiers()
	}
}

// TiersFromConfig converts configured tiers, falling back to the vendor's
// defaults when none are configured.
func TiersFromConfig(tiers []config.TierConfig, vendor ProviderType) []ratelimit.Tier {
	if len(tiers) == 0 {
		return DefaultTiers(vendor)
	}
	out := make([]ratelimit.Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, ratelimit.Tier{Name: t.Name, Model: t.Model, RPM: t.RPM})
	}
	return out
}
