package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logchat/config"
	"logchat/model"
	"logchat/provider/testutil"
)

func TestNewChatClient(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{"gemini", Config{Type: ProviderTypeGemini, Model: "gemini-2.5-flash", APIKey: "test-key"}, false},
		{"openai", Config{Type: ProviderTypeOpenAI, BaseURL: "https://api.openai.com/v1", Model: "gpt-4.1-mini", APIKey: "test-key"}, false},
		{"openrouter", Config{Type: ProviderTypeOpenRouter, APIKey: "test-key"}, false},
		{"anthropic", Config{Type: ProviderTypeAnthropic, Model: "claude-haiku-4-5", APIKey: "test-key"}, false},
		{"ollama with defaults", Config{Type: ProviderTypeOllama}, false},
		{"unknown provider type", Config{Type: ProviderType("unknown")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewChatClient(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, client)
			if tt.config.Model != "" {
				assert.Equal(t, tt.config.Model, client.GetModel())
			}
		})
	}
}

func TestFactoryReturnsOllamaProvider(t *testing.T) {
	client, err := NewChatClient(Config{Type: ProviderTypeOllama, BaseURL: "http://localhost:11434", Model: "qwen3:4b"})
	require.NoError(t, err)
	_, ok := client.(*OllamaProvider)
	assert.True(t, ok, "expected *OllamaProvider, got %T", client)
}

func TestMapVendorToType(t *testing.T) {
	tests := map[string]ProviderType{
		"":             ProviderTypeGemini,
		"Gemini":       ProviderTypeGemini,
		"openai":       ProviderTypeOpenAI,
		"claude":       ProviderTypeAnthropic,
		" openrouter ": ProviderTypeOpenRouter,
		"mistral":      ProviderType("mistral"),
	}
	for in, want := range tests {
		assert.Equal(t, want, MapVendorToType(in), "vendor %q", in)
	}
}

func TestTiersFromConfig(t *testing.T) {
	tiers := TiersFromConfig(nil, ProviderTypeGemini)
	require.Len(t, tiers, 3)
	assert.Equal(t, "pro", tiers[0].Name)

	assert.Equal(t, "gpt-4.1", TiersFromConfig(nil, ProviderTypeOpenAI)[0].Model)

	custom := TiersFromConfig([]config.TierConfig{{Name: "only", Model: "m", RPM: 5}}, ProviderTypeGemini)
	require.Len(t, custom, 1)
	assert.Equal(t, 5, custom[0].RPM)
}

func TestInitializeBackends(t *testing.T) {
	cfg := &config.Config{
		Vendor:        "gemini",
		OllamaHost:    "http://localhost:11434",
		OnDeviceModel: "gemma3:1b",
		DownloadModel: "qwen3:4b",
		KeepAliveMins: 5,
	}
	backends, err := InitializeBackends(cfg, &testutil.MockCredentials{}, &testutil.MockConsent{})
	require.NoError(t, err)

	assert.Equal(t, model.KindHosted, backends.Get(model.KindHosted).Kind())
	assert.Equal(t, model.KindOnDevice, backends.Get(model.KindOnDevice).Kind())
	assert.Equal(t, model.KindDownloadable, backends.Get(model.KindDownloadable).Kind())
	assert.Nil(t, backends.Get(model.BackendKind("other")))
	assert.Len(t, backends.Map(), 3)

	partial := &Backends{Hosted: backends.Hosted}
	assert.Nil(t, partial.Get(model.KindOnDevice))
	assert.Len(t, partial.Map(), 1)

	assert.ErrorIs(t, backends.Hosted.Ready(), ErrMissingCredential)
	assert.ErrorIs(t, backends.Downloadable.Ready(), ErrConsentRequired)
	assert.NoError(t, backends.Close())
}

func TestInitializeBackendsRejectsBadTiers(t *testing.T) {
	cfg := &config.Config{Tiers: []config.TierConfig{{Name: "zero", Model: "m", RPM: 0}}}
	_, err := InitializeBackends(cfg, &testutil.MockCredentials{}, &testutil.MockConsent{})
	assert.Error(t, err)
}
