// Package mcp converts tool declarations, expressed as MCP tools, into the
// function-calling formats of each model vendor, and converts the vendors'
// tool calls back.
package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"logchat/model"
)

// InputSchemaMap renders a tool's input schema as a plain JSON Schema object.
func InputSchemaMap(tool mcptypes.Tool) map[string]any {
	schema := map[string]any{
		"type":       tool.InputSchema.Type,
		"properties": tool.InputSchema.Properties,
	}
	if schema["type"] == "" {
		schema["type"] = "object"
	}
	if tool.InputSchema.Properties == nil {
		schema["properties"] = map[string]any{}
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	if tool.InputSchema.Defs != nil {
		schema["$defs"] = tool.InputSchema.Defs
	}
	return schema
}

// ConvertMCPToolsToGemini converts MCP tools into a single Gemini tool
// carrying one function declaration per MCP tool.
func ConvertMCPToolsToGemini(mcpTools []mcptypes.Tool) []*genai.Tool {
	if len(mcpTools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(mcpTools))
	for _, tool := range mcpTools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 tool.Name,
			Description:          tool.Description,
			ParametersJsonSchema: InputSchemaMap(tool),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// ConvertGeminiFunctionCall converts a Gemini function call to a tool call.
func ConvertGeminiFunctionCall(call *genai.FunctionCall) model.ToolCall {
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	return model.ToolCall{ID: call.ID, Name: call.Name, Arguments: args}
}

// ConvertMCPToolsToOllama converts MCP tools to Ollama API tool format
func ConvertMCPToolsToOllama(mcpTools []mcptypes.Tool) []api.Tool {
	ollamaTools := make([]api.Tool, 0, len(mcpTools))

	for _, mcpTool := range mcpTools {
		ollamaTools = append(ollamaTools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        mcpTool.Name,
				Description: mcpTool.Description,
				Parameters:  convertInputSchemaToParameters(mcpTool.InputSchema),
			},
		})
	}

	return ollamaTools
}

func convertInputSchemaToParameters(inputSchema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       inputSchema.Type,
		Required:   inputSchema.Required,
		Properties: make(map[string]api.ToolProperty),
	}
	if inputSchema.Defs != nil {
		params.Defs = inputSchema.Defs
	}
	for propName, propValue := range inputSchema.Properties {
		params.Properties[propName] = convertPropertyValue(propValue)
	}
	return params
}

// convertPropertyValue converts a JSON Schema property to an Ollama ToolProperty
func convertPropertyValue(propValue any) api.ToolProperty {
	toolProp := api.ToolProperty{}

	propMap, ok := propValue.(map[string]any)
	if !ok {
		raw, err := json.Marshal(propValue)
		if err != nil {
			return toolProp
		}
		if err := json.Unmarshal(raw, &propMap); err != nil {
			return toolProp
		}
	}

	switch t := propMap["type"].(type) {
	case string:
		toolProp.Type = api.PropertyType{t}
	case []string:
		toolProp.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		toolProp.Type = api.PropertyType(types)
	}

	if desc, ok := propMap["description"].(string); ok {
		toolProp.Description = desc
	}

	// mcp-go stores enums as []string; Ollama wants []any.
	switch enum := propMap["enum"].(type) {
	case []any:
		toolProp.Enum = enum
	case []string:
		values := make([]any, len(enum))
		for i, v := range enum {
			values[i] = v
		}
		toolProp.Enum = values
	}

	if items, ok := propMap["items"]; ok {
		toolProp.Items = items
	}

	if anyOf, ok := propMap["anyOf"].([]any); ok {
		props := make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			props = append(props, convertPropertyValue(item))
		}
		toolProp.AnyOf = props
	}

	return toolProp
}

// ConvertOllamaToolCall converts an Ollama tool call to a tool call.
func ConvertOllamaToolCall(toolCall api.ToolCall) model.ToolCall {
	args := map[string]any(toolCall.Function.Arguments)
	if args == nil {
		args = map[string]any{}
	}
	return model.ToolCall{Name: toolCall.Function.Name, Arguments: args}
}

// ConvertMCPToolsToOpenAIFormat converts MCP tools to OpenAI/OpenRouter format.
// Both vendors share the chat completions tool schema.
func ConvertMCPToolsToOpenAIFormat(mcpTools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		result[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(InputSchemaMap(tool)),
			},
		)
	}
	return result
}

// ConvertMCPToolsToAnthropicFormat converts MCP tools to Anthropic format.
func ConvertMCPToolsToAnthropicFormat(mcpTools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(mcpTools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(mcpTools))
	for i, tool := range mcpTools {
		// Type defaults to "object" when omitted
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			inputSchema.Required = tool.InputSchema.Required
		}
		if tool.InputSchema.Defs != nil {
			inputSchema.ExtraFields = map[string]any{
				"$defs": tool.InputSchema.Defs,
			}
		}

		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if tool.Description != "" {
			result[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}
	return result
}

// ParseToolArguments decodes a JSON argument string as sent by OpenAI and
// Anthropic. An empty string yields an empty map.
func ParseToolArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}
