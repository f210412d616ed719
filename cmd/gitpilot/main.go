// Command gitpilot serves a chat UI backed by an LLM agent that operates on
// GitHub repositories through a remote MCP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweetpotato0/gitpilot/agent"
	"github.com/sweetpotato0/gitpilot/config"
	"github.com/sweetpotato0/gitpilot/ghtool"
	"github.com/sweetpotato0/gitpilot/middleware"
	"github.com/sweetpotato0/gitpilot/pkg/logging"
	"github.com/sweetpotato0/gitpilot/pkg/telemetry"
	"github.com/sweetpotato0/gitpilot/provider/claude"
	"github.com/sweetpotato0/gitpilot/provider/gemini"
	"github.com/sweetpotato0/gitpilot/provider/openai"
	"github.com/sweetpotato0/gitpilot/session"
	"github.com/sweetpotato0/gitpilot/tokenizer"
	"github.com/sweetpotato0/gitpilot/tool/mcp"
	"github.com/sweetpotato0/gitpilot/web"
)

const systemPrompt = "You are GitPilot, an assistant for working with GitHub repositories. " +
	"Use the available tools to answer questions about repositories, branches, " +
	"issues and pull requests. Be concise and state clearly when a tool call fails."

const version = "0.1.0"

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.WithComponent("main")

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "gitpilot",
		ServiceVersion: version,
		Disable:        cfg.DisableTelemetry,
	})
	if err != nil {
		logger.Error("init telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	llm, model, err := newLLMClient(ctx, cfg)
	if err != nil {
		logger.Error("init llm provider", "error", err)
		os.Exit(1)
	}

	mcpProvider, err := mcp.NewProvider(ctx, cfg.MCPEndpoint,
		mcp.WithClientInfo("gitpilot", version),
		mcp.WithBearerToken(cfg.GitHubToken),
	)
	if err != nil {
		logger.Error("connect mcp server", "endpoint", cfg.MCPEndpoint, "error", err)
		os.Exit(1)
	}

	ag := agent.New(
		agent.WithName("GitPilot"),
		agent.WithSystemPrompt(systemPrompt),
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithProvider(llm),
		agent.WithToolProvider(mcpProvider),
		agent.WithMiddleware(middleware.NewInputValidator()),
		agent.WithMiddleware(middleware.NewTurnLogger(logging.WithComponent("agent"))),
	)

	if cfg.ToolsBaseURL != "" {
		inv := ghtool.NewInvoker(cfg.ToolsBaseURL, cfg.GitHubToken)
		if err := ag.RegisterTool(ghtool.ListBranchesTool(inv)); err != nil {
			logger.Error("register branch tool", "error", err)
			os.Exit(1)
		}
		logger.Info("remote tool endpoint enabled", "base_url", cfg.ToolsBaseURL)
	}

	conv := session.New("default", ag)
	srv := web.New(cfg.ListenAddr, conv,
		web.WithCounter(tokenizer.ForModel(model)),
		web.WithModelInfo(cfg.Provider, model),
		web.WithToolSource(ag.ToolNames),
		web.WithLogger(logging.WithComponent("web")),
	)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// newLLMClient builds the provider selected by configuration and returns the
// effective model name alongside it.
func newLLMClient(ctx context.Context, cfg *config.Config) (agent.LLMClient, string, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		pc := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.Model != "" {
			pc.Model = cfg.Model
		}
		return openai.New(pc), pc.Model, nil

	case config.ProviderClaude:
		pc := claude.DefaultConfig(cfg.AnthropicAPIKey)
		if cfg.Model != "" {
			pc.Model = cfg.Model
		}
		return claude.New(pc), pc.Model, nil

	default:
		pc := gemini.DefaultConfig(cfg.GoogleAPIKey)
		if cfg.Model != "" {
			pc.Model = cfg.Model
		}
		p, err := gemini.New(ctx, pc)
		if err != nil {
			return nil, "", err
		}
		return p, pc.Model, nil
	}
}
