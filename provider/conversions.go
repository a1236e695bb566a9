package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"logchat/model"
)

// withSystem prepends a system entry when system is non-empty.
func withSystem(system string, messages []model.ChatMessage) []model.ChatMessage {
	if strings.TrimSpace(system) == "" {
		return messages
	}
	out := make([]model.ChatMessage, 0, len(messages)+1)
	out = append(out, model.ChatMessage{Role: model.ChatRoleSystem, Content: system})
	return append(out, messages...)
}

// toolCallText and toolResultText render a tool exchange for vendors that
// receive it as plain text.
func toolCallText(call *model.ToolCall) string {
	args, _ := json.Marshal(call.Arguments)
	return fmt.Sprintf("Calling %s with %s", call.Name, args)
}

func toolResultText(name, content string) string {
	return fmt.Sprintf("Result of %s: %s", name, content)
}

// decodeToolResult turns a JSON-encoded tool result back into a map.
func decodeToolResult(content string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err != nil || out == nil {
		return map[string]any{"output": content}
	}
	return out
}

// ConvertToOllamaMessages converts transcript entries to Ollama messages.
// Ollama understands tool calls and tool results natively.
func ConvertToOllamaMessages(messages []model.ChatMessage) []api.Message {
	result := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		m := api.Message{Role: string(msg.Role), Content: msg.Content}
		switch msg.Role {
		case model.ChatRoleAssistant:
			if msg.ToolCall != nil {
				m.ToolCalls = []api.ToolCall{{
					Function: api.ToolCallFunction{
						Name:      msg.ToolCall.Name,
						Arguments: msg.ToolCall.Arguments,
					},
				}}
			}
		case model.ChatRoleTool:
			m.ToolName = msg.ToolName
		}
		result = append(result, m)
	}
	return result
}

// ConvertToProviderToolCalls converts Ollama tool calls to provider-agnostic ones.
func ConvertToProviderToolCalls(ollamaCalls []api.ToolCall) []model.ToolCall {
	if len(ollamaCalls) == 0 {
		return nil
	}
	result := make([]model.ToolCall, len(ollamaCalls))
	for i, call := range ollamaCalls {
		args := map[string]any(call.Function.Arguments)
		if args == nil {
			args = map[string]any{}
		}
		result[i] = model.ToolCall{Name: call.Function.Name, Arguments: args}
	}
	return result
}

// ConvertToGeminiContents splits transcript entries into Gemini contents and
// a system instruction. Tool exchanges become function call and function
// response parts.
func ConvertToGeminiContents(messages []model.ChatMessage) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.ChatRoleSystem:
			system = append(system, msg.Content)
		case model.ChatRoleAssistant:
			if msg.ToolCall != nil {
				part := genai.NewPartFromFunctionCall(msg.ToolCall.Name, msg.ToolCall.Arguments)
				contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleModel))
				continue
			}
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case model.ChatRoleTool:
			part := genai.NewPartFromFunctionResponse(msg.ToolName, decodeToolResult(msg.Content))
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, strings.Join(system, "\n\n")
}

// ConvertToOpenAIMessages converts transcript entries to OpenAI format.
// Tool exchanges are sent as text.
func ConvertToOpenAIMessages(messages []model.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.ChatRoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.ChatRoleAssistant:
			if msg.ToolCall != nil {
				result = append(result, openai.AssistantMessage(toolCallText(msg.ToolCall)))
				continue
			}
			result = append(result, openai.AssistantMessage(msg.Content))
		case model.ChatRoleTool:
			result = append(result, openai.UserMessage(toolResultText(msg.ToolName, msg.Content)))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// convertToAnthropicMessages converts transcript entries to Anthropic format.
// Returns the message array and any system prompt found.
func convertToAnthropicMessages(messages []model.ChatMessage) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.ChatRoleSystem:
			// Anthropic uses a separate system parameter, not in messages array
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Content})
		case model.ChatRoleAssistant:
			text := msg.Content
			if msg.ToolCall != nil {
				text = toolCallText(msg.ToolCall)
			}
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		case model.ChatRoleTool:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(toolResultText(msg.ToolName, msg.Content))))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return result, systemBlocks
}

// extractToolCalls extracts tool calls from Anthropic message content.
func extractToolCalls(content []anthropic.ContentBlockUnion) []model.ToolCall {
	var toolCalls []model.ToolCall
	for _, block := range content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		var args map[string]any
		if err := json.Unmarshal(toolUse.Input, &args); err != nil {
			continue
		}
		if args == nil {
			args = map[string]any{}
		}
		toolCalls = append(toolCalls, model.ToolCall{ID: toolUse.ID, Name: toolUse.Name, Arguments: args})
	}
	return toolCalls
}
