package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"logchat/config"
	"logchat/mcp"
	"logchat/model"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIProvider implements model.ChatClient on the chat completions API.
// OpenRouter is served by the same type with a different base URL.
type OpenAIProvider struct {
	client  openai.Client
	name    string
	model   string
	baseURL string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4.1-mini"
	}

	return &OpenAIProvider{
		client:  openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey)),
		name:    "OpenAI",
		model:   model,
		baseURL: baseURL,
	}, nil
}

// NewOpenRouterProvider creates an OpenAI-compatible client for OpenRouter.
func NewOpenRouterProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if model == "" {
		model = "google/gemini-2.5-flash"
	}

	return &OpenAIProvider{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithHeader("X-Title", "logchat"),
		),
		name:    "OpenRouter",
		model:   model,
		baseURL: baseURL,
	}, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools streams a completion, reporting each tool call once its
// arguments are complete.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	if len(tools) > 0 {
		instruction := model.ChatMessage{Role: model.ChatRoleSystem, Content: buildToolInstructions(tools)}
		messages = append([]model.ChatMessage{instruction}, messages...)
	}

	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(messages),
		Model:    openai.ChatModel(p.model),
	}
	if len(tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToOpenAIFormat(tools)
	}

	config.DebugLog.Debugf("[%s] Streaming %s with %d messages, %d tools", p.name, p.model, len(messages), len(tools))

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if tool, ok := acc.JustFinishedToolCall(); ok && callback != nil {
			args, err := mcp.ParseToolArguments(tool.Arguments)
			if err != nil {
				config.DebugLog.Warnf("[%s] Unparseable arguments for %s: %v", p.name, tool.Name, err)
				args = map[string]any{}
			}
			call := model.ToolCall{ID: tool.ID, Name: tool.Name, Arguments: args}
			if err := callback("", []model.ToolCall{call}); err != nil {
				return err
			}
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && callback != nil {
			if err := callback(chunk.Choices[0].Delta.Content, nil); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("%s streaming error: %w", p.name, err)
	}
	return nil
}

func (p *OpenAIProvider) GetModel() string {
	return p.model
}

func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

