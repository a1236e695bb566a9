package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"logchat/config"
	"logchat/model"
	"logchat/ratelimit"
)

// ClientFactory builds a vendor chat client for an API key.
type ClientFactory func(cfg Config) (model.ChatClient, error)

// HostedBackend sends steps to a remote vendor through a rate governor.
// The vendor client is rebuilt whenever the effective API key changes.
type HostedBackend struct {
	mu        sync.Mutex
	vendor    ProviderType
	baseURL   string
	creds     model.CredentialStore
	governor  *ratelimit.Governor
	newClient ClientFactory

	client    model.ChatClient
	clientKey string
}

// HostedOptions configure NewHostedBackend.
type HostedOptions struct {
	Vendor      ProviderType
	BaseURL     string
	Credentials model.CredentialStore
	Governor    *ratelimit.Governor

	// NewClient defaults to NewChatClient.
	NewClient ClientFactory
}

func NewHostedBackend(opts HostedOptions) (*HostedBackend, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("hosted backend requires a credential store")
	}
	if opts.Governor == nil {
		return nil, fmt.Errorf("hosted backend requires a rate governor")
	}
	if opts.NewClient == nil {
		opts.NewClient = NewChatClient
	}
	return &HostedBackend{
		vendor:    opts.Vendor,
		baseURL:   opts.BaseURL,
		creds:     opts.Credentials,
		governor:  opts.Governor,
		newClient: opts.NewClient,
	}, nil
}

func (b *HostedBackend) Kind() model.BackendKind {
	return model.KindHosted
}

func (b *HostedBackend) Vendor() ProviderType {
	return b.vendor
}

// Ready fails with ErrMissingCredential until an API key is available.
func (b *HostedBackend) Ready() error {
	if strings.TrimSpace(b.creds.Credential()) == "" {
		return ErrMissingCredential
	}
	return nil
}

// Admit asks the governor for a slot, starting at the requested tier.
func (b *HostedBackend) Admit(requested string) (ratelimit.Admission, error) {
	return b.governor.Admit(requested)
}

// Tiers lists the governor's tiers from most to least capable.
func (b *HostedBackend) Tiers() []ratelimit.Tier {
	return b.governor.Tiers()
}

// Step runs one inference on the model of the admitted tier. The caller
// must have obtained req.Tier from Admit.
func (b *HostedBackend) Step(ctx context.Context, req model.StepRequest) (*model.StepResult, error) {
	tier, ok := b.governor.Tier(req.Tier)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ratelimit.ErrUnknownTier, req.Tier)
	}

	client, err := b.clientFor(tier.Model)
	if err != nil {
		return nil, err
	}

	config.DebugLog.Debugf("[Hosted] Step on tier %s (%s) with %d messages", tier.Name, tier.Model, len(req.Messages))

	result, err := collect(ctx, client, req)
	if err != nil {
		return nil, ClassifyError(string(b.vendor), err)
	}
	return result, nil
}

// Advise answers a single question without tools. It is admitted on the
// cheapest tier so that it never competes with the conversation's tier.
func (b *HostedBackend) Advise(ctx context.Context, prompt string) (string, error) {
	if err := b.Ready(); err != nil {
		return "", err
	}
	tiers := b.governor.Tiers()
	economy := tiers[len(tiers)-1]
	if _, err := b.governor.Admit(economy.Name); err != nil {
		return "", err
	}

	client, err := b.clientFor(economy.Model)
	if err != nil {
		return "", err
	}

	result, err := collect(ctx, client, model.StepRequest{
		Messages: []model.ChatMessage{{Role: model.ChatRoleUser, Content: prompt}},
	})
	if err != nil {
		return "", ClassifyError(string(b.vendor), err)
	}
	if result.Text == "" {
		return "", errors.New("the model returned an empty suggestion")
	}
	return result.Text, nil
}

func (b *HostedBackend) Close() error {
	return nil
}

func (b *HostedBackend) clientFor(modelName string) (model.ChatClient, error) {
	key := strings.TrimSpace(b.creds.Credential())
	if key == "" {
		return nil, ErrMissingCredential
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil || b.clientKey != key {
		client, err := b.newClient(Config{Type: b.vendor, BaseURL: b.baseURL, APIKey: key, Model: modelName})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", b.vendor, err)
		}
		b.client = client
		b.clientKey = key
		config.DebugLog.Infof("[Hosted] Created %s client", b.vendor)
	}
	if b.client.GetModel() != modelName {
		config.DebugLog.Debugf("[Hosted] Switching model %s -> %s", b.client.GetModel(), modelName)
		b.client.SetModel(modelName)
	}
	return b.client, nil
}

// collect runs one streamed request to completion and gathers its text
// and tool calls.
func collect(ctx context.Context, client model.ChatClient, req model.StepRequest) (*model.StepResult, error) {
	messages := withSystem(req.System, req.Messages)

	var text strings.Builder
	var calls []model.ToolCall
	callback := func(chunk string, toolCalls []model.ToolCall) error {
		text.WriteString(chunk)
		calls = append(calls, toolCalls...)
		return nil
	}

	var err error
	if len(req.Tools) > 0 {
		err = client.ChatWithTools(ctx, messages, req.Tools, callback)
	} else {
		err = client.Chat(ctx, messages, callback)
	}
	if err != nil {
		return nil, err
	}

	return &model.StepResult{Text: strings.TrimSpace(text.String()), ToolCalls: calls}, nil
}
