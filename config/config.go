package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Provider names accepted by GITPILOT_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config holds all process configuration. Secrets stay in memory for the
// process lifetime and are never logged.
type Config struct {
	// Provider selects the LLM backend.
	Provider string `env:"GITPILOT_PROVIDER, default=gemini"`
	// Model overrides the provider's default model.
	Model string `env:"GITPILOT_MODEL"`

	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	// GitHubToken authorizes every outbound tool call as a bearer token.
	GitHubToken string `env:"GITHUB_TOKEN"`

	// MCPEndpoint is the remote GitHub MCP server.
	MCPEndpoint string `env:"GITPILOT_MCP_ENDPOINT, default=https://api.githubcopilot.com/mcp/"`
	// ToolsBaseURL, when set, registers the bespoke invoke-endpoint tool
	// against this base URL.
	ToolsBaseURL string `env:"GITPILOT_TOOLS_BASE_URL"`

	ListenAddr       string `env:"GITPILOT_ADDR, default=:8080"`
	MaxIterations    int    `env:"GITPILOT_MAX_ITERATIONS, default=10"`
	DisableTelemetry bool   `env:"GITPILOT_DISABLE_TELEMETRY, default=false"`
}

// Load reads configuration from the environment and validates it. It fails
// before any network access when a required secret is absent.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected provider has its API key and that the
// GitHub token is present. Error messages name the missing variable so the
// operator knows exactly what to supply.
func (c *Config) Validate() error {
	v := NewValidator().
		RequireNonEmpty("GITHUB_TOKEN", c.GitHubToken).
		RequirePositive("GITPILOT_MAX_ITERATIONS", c.MaxIterations)

	switch c.Provider {
	case ProviderGemini:
		v.RequireNonEmpty("GOOGLE_API_KEY", c.GoogleAPIKey)
	case ProviderOpenAI:
		v.RequireNonEmpty("OPENAI_API_KEY", c.OpenAIAPIKey)
	case ProviderClaude:
		v.RequireNonEmpty("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	default:
		return fmt.Errorf("config: unknown provider %q (want gemini, openai or claude)", c.Provider)
	}

	return v.Error()
}

// LLMAPIKey returns the API key for the selected provider.
func (c *Config) LLMAPIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderClaude:
		return c.AnthropicAPIKey
	default:
		return c.GoogleAPIKey
	}
}
