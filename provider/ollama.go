package provider

import (
	"context"
	"fmt"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"logchat/mcp"
	"logchat/model"
	"logchat/ollama"
)

// OllamaProvider wraps ollama.Client to implement model.ChatClient.
type OllamaProvider struct {
	client    *ollama.Client
	keepAlive time.Duration
}

// NewOllamaProvider creates a chat client for a local Ollama server.
// keepAlive controls how long the model stays loaded after each request;
// zero leaves the server default.
func NewOllamaProvider(client *ollama.Client, keepAlive time.Duration) *OllamaProvider {
	return &OllamaProvider{client: client, keepAlive: keepAlive}
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

func (p *OllamaProvider) ChatWithTools(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	var ollamaTools []api.Tool
	if len(tools) > 0 {
		ollamaTools = mcp.ConvertMCPToolsToOllama(tools)
	}

	err := p.client.ChatWithTools(ctx, ConvertToOllamaMessages(messages), ollamaTools, p.keepAlive,
		func(chunk string, calls []api.ToolCall) error {
			if callback == nil {
				return nil
			}
			return callback(chunk, ConvertToProviderToolCalls(calls))
		})
	if err != nil {
		return fmt.Errorf("Ollama chat error: %w", err)
	}
	return nil
}

func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

