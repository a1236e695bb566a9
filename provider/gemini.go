package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"google.golang.org/genai"

	"logchat/config"
	"logchat/mcp"
	"logchat/model"
)

// GeminiProvider implements model.ChatClient on the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini client. baseURL may be empty.
func NewGeminiProvider(baseURL, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: modelName}, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []model.ChatMessage, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools streams a response. Function calls arrive as complete parts
// and are handed to the callback as soon as they are seen.
func (p *GeminiProvider) ChatWithTools(ctx context.Context, messages []model.ChatMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	contents, system := ConvertToGeminiContents(messages)

	cfg := &genai.GenerateContentConfig{
		Tools: mcp.ConvertMCPToolsToGemini(tools),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	config.DebugLog.Debugf("[Gemini] Streaming %s with %d contents, %d tools", p.model, len(contents), len(tools))

	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("Gemini streaming error: %w", err)
		}
		if callback == nil {
			continue
		}

		var calls []model.ToolCall
		for _, fc := range resp.FunctionCalls() {
			calls = append(calls, mcp.ConvertGeminiFunctionCall(fc))
		}
		text := resp.Text()
		if text == "" && len(calls) == 0 {
			continue
		}
		if err := callback(text, calls); err != nil {
			return err
		}
	}
	return nil
}

func (p *GeminiProvider) GetModel() string {
	return p.model
}

func (p *GeminiProvider) SetModel(model string) {
	p.model = model
}

