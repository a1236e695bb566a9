package provider

import (
	"fmt"
	"time"

	"logchat/config"
	"logchat/model"
	"logchat/ollama"
	"logchat/ratelimit"
)

// Backends holds one backend of each kind.
type Backends struct {
	Hosted       *HostedBackend
	OnDevice     *OnDeviceBackend
	Downloadable *DownloadableBackend
}

// Get returns the backend of the given kind, or nil.
func (b *Backends) Get(kind model.BackendKind) model.Backend {
	switch kind {
	case model.KindHosted:
		if b.Hosted != nil {
			return b.Hosted
		}
	case model.KindOnDevice:
		if b.OnDevice != nil {
			return b.OnDevice
		}
	case model.KindDownloadable:
		if b.Downloadable != nil {
			return b.Downloadable
		}
	}
	return nil
}

// Map returns the configured backends keyed by kind.
func (b *Backends) Map() map[model.BackendKind]model.Backend {
	m := make(map[model.BackendKind]model.Backend, 3)
	for _, kind := range []model.BackendKind{model.KindHosted, model.KindOnDevice, model.KindDownloadable} {
		if be := b.Get(kind); be != nil {
			m[kind] = be
		}
	}
	return m
}

// Close closes every backend and returns the first error.
func (b *Backends) Close() error {
	var first error
	for _, be := range b.Map() {
		if err := be.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// InitializeBackends creates every backend from configuration. Nothing is
// contacted here: vendor clients are created on first use and local models
// are loaded on first step.
func InitializeBackends(cfg *config.Config, creds model.CredentialStore, consent model.ConsentStore) (*Backends, error) {
	vendor := MapVendorToType(cfg.Vendor)

	governor, err := ratelimit.NewGovernor(TiersFromConfig(cfg.Tiers, vendor))
	if err != nil {
		return nil, fmt.Errorf("invalid tier configuration: %w", err)
	}

	hosted, err := NewHostedBackend(HostedOptions{
		Vendor:      vendor,
		BaseURL:     cfg.HostedBaseURL,
		Credentials: creds,
		Governor:    governor,
	})
	if err != nil {
		return nil, err
	}

	keepAlive := time.Duration(cfg.KeepAliveMins) * time.Minute

	onDeviceClient, err := ollama.NewClient(cfg.OllamaHost, cfg.OnDeviceModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	downloadClient, err := ollama.NewClient(cfg.OllamaHost, cfg.DownloadModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	config.DebugLog.Infof("[Provider] Initialized backends: hosted=%s ondevice=%s downloadable=%s",
		vendor, cfg.OnDeviceModel, cfg.DownloadModel)

	return &Backends{
		Hosted:       hosted,
		OnDevice:     NewOnDeviceBackend(onDeviceClient, NewOllamaProvider(onDeviceClient, keepAlive), keepAlive),
		Downloadable: NewDownloadableBackend(downloadClient, NewOllamaProvider(downloadClient, keepAlive), consent, keepAlive),
	}, nil
}
