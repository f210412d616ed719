package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Provider:      ProviderGemini,
		GoogleAPIKey:  "test-google-key",
		GitHubToken:   "ghp_test",
		MCPEndpoint:   "https://api.githubcopilot.com/mcp/",
		ListenAddr:    ":8080",
		MaxIterations: 10,
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestValidateMissingGitHubToken(t *testing.T) {
	cfg := validConfig()
	cfg.GitHubToken = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected error for missing GitHub token")
	}
	if !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("Error should name GITHUB_TOKEN: %v", err)
	}
}

func TestValidateMissingProviderKey(t *testing.T) {
	cases := []struct {
		provider string
		wantVar  string
	}{
		{ProviderGemini, "GOOGLE_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderClaude, "ANTHROPIC_API_KEY"},
	}
	for _, tc := range cases {
		cfg := validConfig()
		cfg.Provider = tc.provider
		cfg.GoogleAPIKey = ""
		cfg.OpenAIAPIKey = ""
		cfg.AnthropicAPIKey = ""

		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error for missing key", tc.provider)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantVar) {
			t.Errorf("%s: error should name %s: %v", tc.provider, tc.wantVar, err)
		}
	}
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = "mistral"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestLLMAPIKeySelection(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = "openai-key"
	cfg.AnthropicAPIKey = "claude-key"

	if got := cfg.LLMAPIKey(); got != "test-google-key" {
		t.Errorf("gemini: got %s", got)
	}
	cfg.Provider = ProviderOpenAI
	if got := cfg.LLMAPIKey(); got != "openai-key" {
		t.Errorf("openai: got %s", got)
	}
	cfg.Provider = ProviderClaude
	if got := cfg.LLMAPIKey(); got != "claude-key" {
		t.Errorf("claude: got %s", got)
	}
}

func TestValidatorCollectsAllErrors(t *testing.T) {
	err := NewValidator().
		RequireNonEmpty("A", "").
		RequireNonEmpty("B", "set").
		RequirePositive("C", 0).
		Error()

	if err == nil {
		t.Fatal("Expected validation errors")
	}
	if !strings.Contains(err.Error(), "A") || !strings.Contains(err.Error(), "C") {
		t.Errorf("Expected both A and C in error: %v", err)
	}
	if strings.Contains(err.Error(), "B") {
		t.Errorf("B should not be reported: %v", err)
	}
}
