package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestParametersFromSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner": map[string]any{"type": "string", "description": "Repository owner"},
			"repo":  map[string]any{"type": "string", "description": "Repository name"},
			"visibility": map[string]any{
				"type": "string",
				"enum": []any{"public", "private"},
			},
		},
		"required": []any{"owner", "repo"},
	}

	params := parametersFromSchema(schema)
	if len(params) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(params))
	}

	// Sorted by name: owner, repo, visibility
	if params[0].Name != "owner" || !params[0].Required {
		t.Errorf("Unexpected first parameter: %+v", params[0])
	}
	if params[1].Name != "repo" || !params[1].Required {
		t.Errorf("Unexpected second parameter: %+v", params[1])
	}
	if params[2].Name != "visibility" || params[2].Required {
		t.Errorf("visibility should be optional: %+v", params[2])
	}
	if len(params[2].Enum) != 2 {
		t.Errorf("Expected enum values, got %v", params[2].Enum)
	}
}

func TestParametersFromSchemaNonObject(t *testing.T) {
	if params := parametersFromSchema(map[string]any{"type": "string"}); params != nil {
		t.Errorf("Non-object schema should yield no parameters, got %v", params)
	}
	if params := parametersFromSchema(nil); params != nil {
		t.Errorf("Nil schema should yield no parameters, got %v", params)
	}
}

func TestParametersFromSchemaRawJSON(t *testing.T) {
	raw := []byte(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)

	params := parametersFromSchema(raw)
	if len(params) != 1 || params[0].Name != "name" || !params[0].Required {
		t.Errorf("Unexpected parameters from raw JSON schema: %+v", params)
	}
}

func TestNormalizeContent(t *testing.T) {
	content := []sdkmcp.Content{
		&sdkmcp.TextContent{Text: "first"},
		&sdkmcp.TextContent{Text: "second"},
	}
	if got := normalizeContent(content); got != "first\nsecond" {
		t.Errorf("Unexpected normalized content: %q", got)
	}
	if got := normalizeContent(nil); got != "" {
		t.Errorf("Expected empty string for no content, got %q", got)
	}
}

func TestBearerTransportSetsHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	cfg := defaultConfig()
	WithBearerToken("ghp_secret")(&cfg)

	client := cfg.transportHTTPClient()
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer ghp_secret" {
		t.Errorf("Expected bearer header on transport, got %q", gotAuth)
	}
}

func TestTransportHTTPClientWithoutToken(t *testing.T) {
	cfg := defaultConfig()
	if client := cfg.transportHTTPClient(); client != nil {
		t.Errorf("Without a token the transport default should be used, got %v", client)
	}
}
