// Package gemini implements the agent.LLMClient contract on top of the
// official Google Generative AI SDK, including function calling.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/gitpilot/agent"
	"github.com/sweetpotato0/gitpilot/message"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "gemini-2.0-flash",
		MaxTokens: 2048,
	}
}

// Provider implements the agent.LLMClient interface for Google Gemini
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider using the official SDK
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying API client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate implements agent.LLMClient
func (p *Provider) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("gemini: generate request cannot be empty")
	}

	model := p.client.GenerativeModel(p.config.Model)
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	model.SetTemperature(p.config.Temperature)

	if tools, err := convertTools(req.Tools); err != nil {
		return nil, err
	} else if len(tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: tools}}
	}

	system, contents := convertMessages(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: no sendable messages")
	}

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := chat.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: no candidates in response")
	}

	return &agent.GenerateResponse{Message: decodeCandidate(resp.Candidates[0])}, nil
}

// convertMessages maps conversation turns to Gemini chat contents. System
// messages are pulled out into the system instruction; consecutive tool
// responses merge into one function-role content.
func convertMessages(msgs []*message.Message) (string, []*genai.Content) {
	var system string
	contents := make([]*genai.Content, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += msg.Content

		case message.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})

		case message.RoleAssistant:
			parts := make([]genai.Part, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case message.RoleTool:
			part := genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: map[string]any{"output": msg.Content},
			}
			if n := len(contents); n > 0 && contents[n-1].Role == "function" {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
			} else {
				contents = append(contents, &genai.Content{Role: "function", Parts: []genai.Part{part}})
			}
		}
	}

	return system, contents
}

func decodeCandidate(candidate *genai.Candidate) *message.Message {
	var text string
	var toolCalls []message.ToolCall

	for _, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text += string(v)
		case genai.FunctionCall:
			toolCalls = append(toolCalls, message.ToolCall{
				ID:   fmt.Sprintf("call-%d", len(toolCalls)+1),
				Name: v.Name,
				Args: v.Args,
			})
		}
	}

	msg := message.New(message.RoleAssistant, text)
	msg.ToolCalls = toolCalls
	return msg
}

// convertTools maps the registry's JSON-schema tool definitions to Gemini
// function declarations.
func convertTools(tools []map[string]any) ([]*genai.FunctionDeclaration, error) {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		fn, ok := t["function"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("gemini: tool schema missing function block")
		}
		name, _ := fn["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("gemini: tool schema missing name")
		}
		description, _ := fn["description"].(string)

		decl := &genai.FunctionDeclaration{
			Name:        name,
			Description: description,
		}
		if params, ok := fn["parameters"].(map[string]any); ok {
			decl.Parameters = convertSchema(params)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func convertSchema(schema map[string]any) *genai.Schema {
	out := &genai.Schema{Type: schemaType(schema["type"])}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}

	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if propMap, ok := raw.(map[string]any); ok {
				out.Properties[name] = convertSchema(propMap)
			}
		}
	}

	switch required := schema["required"].(type) {
	case []string:
		out.Required = required
	case []any:
		for _, item := range required {
			if s, ok := item.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}

	switch enum := schema["enum"].(type) {
	case []string:
		out.Enum = enum
	case []any:
		for _, item := range enum {
			if s, ok := item.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}

	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = convertSchema(items)
	}

	return out
}

func schemaType(v any) genai.Type {
	s, _ := v.(string)
	switch s {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
