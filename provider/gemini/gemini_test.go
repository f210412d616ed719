package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/gitpilot/message"
)

func TestConvertMessages(t *testing.T) {
	assistant := message.New(message.RoleAssistant, "")
	assistant.ToolCalls = []message.ToolCall{{
		ID:   "call-1",
		Name: "list_branches",
		Args: map[string]any{"owner": "octocat", "repo": "hello"},
	}}

	msgs := []*message.Message{
		message.New(message.RoleSystem, "be brief"),
		message.New(message.RoleUser, "list branches"),
		assistant,
		message.NewToolResponse("call-1", "list_branches", "main, dev"),
	}

	system, contents := convertMessages(msgs)

	if system != "be brief" {
		t.Errorf("Unexpected system instruction: %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("Expected 3 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("Expected user role first, got %s", contents[0].Role)
	}
	if contents[1].Role != "model" {
		t.Errorf("Expected model role, got %s", contents[1].Role)
	}
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	if !ok {
		t.Fatalf("Expected FunctionCall part, got %T", contents[1].Parts[0])
	}
	if call.Name != "list_branches" {
		t.Errorf("Unexpected call name: %s", call.Name)
	}
	if contents[2].Role != "function" {
		t.Errorf("Expected function role for tool response, got %s", contents[2].Role)
	}
	fr, ok := contents[2].Parts[0].(genai.FunctionResponse)
	if !ok {
		t.Fatalf("Expected FunctionResponse part, got %T", contents[2].Parts[0])
	}
	if fr.Name != "list_branches" || fr.Response["output"] != "main, dev" {
		t.Errorf("Unexpected function response: %+v", fr)
	}
}

func TestConvertMessagesMergesToolResponses(t *testing.T) {
	msgs := []*message.Message{
		message.New(message.RoleUser, "go"),
		message.NewToolResponse("call-1", "a", "one"),
		message.NewToolResponse("call-2", "b", "two"),
	}

	_, contents := convertMessages(msgs)
	if len(contents) != 2 {
		t.Fatalf("Expected consecutive tool responses to merge, got %d contents", len(contents))
	}
	if len(contents[1].Parts) != 2 {
		t.Errorf("Expected 2 function response parts, got %d", len(contents[1].Parts))
	}
}

func TestConvertTools(t *testing.T) {
	tools := []map[string]any{{
		"type": "function",
		"function": map[string]any{
			"name":        "list_branches",
			"description": "List branches",
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"owner": map[string]any{"type": "string", "description": "Owner"},
					"count": map[string]any{"type": "integer"},
				},
				"required": []string{"owner"},
			},
		},
	}}

	decls, err := convertTools(tools)
	if err != nil {
		t.Fatalf("convertTools failed: %v", err)
	}
	if len(decls) != 1 {
		t.Fatalf("Expected 1 declaration, got %d", len(decls))
	}

	decl := decls[0]
	if decl.Name != "list_branches" {
		t.Errorf("Unexpected name: %s", decl.Name)
	}
	if decl.Parameters.Type != genai.TypeObject {
		t.Errorf("Expected object parameters, got %v", decl.Parameters.Type)
	}
	if decl.Parameters.Properties["owner"].Type != genai.TypeString {
		t.Errorf("owner should be string typed")
	}
	if decl.Parameters.Properties["count"].Type != genai.TypeInteger {
		t.Errorf("count should be integer typed")
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "owner" {
		t.Errorf("Unexpected required list: %v", decl.Parameters.Required)
	}
}

func TestConvertToolsRejectsMalformed(t *testing.T) {
	if _, err := convertTools([]map[string]any{{"type": "function"}}); err == nil {
		t.Error("Expected error for schema without function block")
	}
}

func TestDecodeCandidate(t *testing.T) {
	candidate := &genai.Candidate{
		Content: &genai.Content{
			Role: "model",
			Parts: []genai.Part{
				genai.Text("checking "),
				genai.FunctionCall{Name: "list_branches", Args: map[string]any{"owner": "o"}},
			},
		},
	}

	msg := decodeCandidate(candidate)
	if msg.Role != message.RoleAssistant {
		t.Errorf("Expected assistant role, got %s", msg.Role)
	}
	if msg.Content != "checking " {
		t.Errorf("Unexpected content: %q", msg.Content)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "list_branches" {
		t.Errorf("Unexpected tool calls: %+v", msg.ToolCalls)
	}
}
