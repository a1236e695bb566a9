package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"logchat/config"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

type StreamCallback func(chunk string, toolCalls []api.ToolCall) error

// PullProgress reports download progress. total is 0 while the size of the
// current layer is still unknown.
type PullProgress func(status string, completed, total int64)

func NewClient(baseURL, model string) (*Client, error) {
	if baseURL == "" {
		baseURL = config.DefaultOllamaHost
	}
	if model == "" {
		model = config.DefaultOnDeviceModel
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(parsedURL, http.DefaultClient),
		model:   model,
		baseURL: baseURL,
	}, nil
}

// ChatWithTools sends a streaming chat request with optional tool definitions.
func (c *Client) ChatWithTools(ctx context.Context, messages []api.Message, tools []api.Tool, keepAlive time.Duration, callback StreamCallback) error {
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Stream:   func(b bool) *bool { return &b }(true),
	}
	if keepAlive > 0 {
		req.KeepAlive = &api.Duration{Duration: keepAlive}
	}

	return c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if callback != nil {
			return callback(resp.Message.Content, resp.Message.ToolCalls)
		}
		return nil
	})
}

// HasModel reports whether the current model is present locally. A name
// without a tag matches the ":latest" tag.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list models: %w", err)
	}
	want := normalizeModelName(c.model)
	for _, m := range resp.Models {
		if normalizeModelName(m.Name) == want || normalizeModelName(m.Model) == want {
			return true, nil
		}
	}
	return false, nil
}

func normalizeModelName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && !strings.Contains(name, ":") {
		name += ":latest"
	}
	return name
}

// Pull downloads the current model, reporting progress as it goes.
func (c *Client) Pull(ctx context.Context, progress PullProgress) error {
	config.DebugLog.Infof("[Ollama] Pulling %s", c.model)
	err := c.client.Pull(ctx, &api.PullRequest{Model: c.model}, func(resp api.ProgressResponse) error {
		if progress != nil {
			progress(resp.Status, resp.Completed, resp.Total)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", c.model, err)
	}
	return nil
}

// Load asks the server to load the model into memory and keep it there for
// keepAlive.
func (c *Client) Load(ctx context.Context, keepAlive time.Duration) error {
	return c.generateEmpty(ctx, keepAlive)
}

// Unload asks the server to release the model immediately.
func (c *Client) Unload(ctx context.Context) error {
	return c.generateEmpty(ctx, 0)
}

func (c *Client) generateEmpty(ctx context.Context, keepAlive time.Duration) error {
	req := &api.GenerateRequest{
		Model:     c.model,
		KeepAlive: &api.Duration{Duration: keepAlive},
	}
	if err := c.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return fmt.Errorf("failed to set keep-alive for %s: %w", c.model, err)
	}
	return nil
}

func (c *Client) SetModel(model string) {
	c.model = model
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// toolCallingModels is a curated list of model families and whether they
// handle Ollama's tool calling API.
var toolCallingModels = map[string]bool{
	"qwen":      true,
	"llama3.1":  true,
	"llama3.2":  true,
	"llama3.3":  true,
	"mistral":   true,
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,

	"llama3-gradient": false,
	"llama3":          false,
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes must list the most specific prefixes first so that
// "llama3.2" is not matched as generic "llama3".
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// SupportsToolCalling checks if the current model supports tool calling.
func (c *Client) SupportsToolCalling() bool {
	return ModelSupportsToolCalling(c.model)
}

// ModelSupportsToolCalling reports whether a model family is known to
// support tools. Unknown families are assumed not to.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)
	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			if supported, exists := toolCallingModels[prefix]; exists {
				return supported
			}
		}
	}
	return false
}
