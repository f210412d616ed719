package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sweetpotato0/gitpilot/message"
	"github.com/sweetpotato0/gitpilot/middleware"
	"github.com/sweetpotato0/gitpilot/pkg/logging"
	"github.com/sweetpotato0/gitpilot/pkg/telemetry"
	"github.com/sweetpotato0/gitpilot/tool"
	"go.opentelemetry.io/otel/attribute"
)

// Agent answers natural-language instructions, calling registered tools as
// needed. It holds no conversation history: callers pass the history in and
// receive the updated history back.
type Agent struct {
	name          string
	systemPrompt  string
	maxIterations int
	enableTools   bool
	llm           LLMClient
	tools         *tool.Registry
	middlewares   *middleware.Chain
	logger        *slog.Logger

	providerMu     sync.Mutex
	toolProviders  []tool.Provider
	providerLoaded map[tool.Provider]bool
	providerWatch  map[tool.Provider]context.CancelFunc
}

// Option is a function that configures an Agent
type Option func(*Agent)

// WithName sets the agent name
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithSystemPrompt sets the system prompt
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxIterations sets the maximum iterations for tool calling
func WithMaxIterations(max int) Option {
	return func(a *Agent) {
		a.maxIterations = max
	}
}

// WithTools enables or disables tool usage
func WithTools(enable bool) Option {
	return func(a *Agent) {
		a.enableTools = enable
	}
}

// WithProvider sets the LLM provider
func WithProvider(provider LLMClient) Option {
	return func(a *Agent) {
		a.llm = provider
	}
}

// WithToolProvider registers a tool provider that will supply tools on demand.
func WithToolProvider(provider tool.Provider) Option {
	return func(a *Agent) {
		if provider == nil {
			return
		}
		a.providerMu.Lock()
		defer a.providerMu.Unlock()
		a.toolProviders = append(a.toolProviders, provider)
	}
}

// WithMiddleware adds a middleware to the agent
func WithMiddleware(m middleware.Middleware) Option {
	return func(a *Agent) {
		a.middlewares.Add(m)
	}
}

// New creates a new agent with the given options
func New(opts ...Option) *Agent {
	agent := &Agent{
		name:           "Agent",
		systemPrompt:   "You are a helpful AI assistant.",
		maxIterations:  10,
		enableTools:    true,
		tools:          tool.NewRegistry(),
		middlewares:    middleware.NewChain(),
		logger:         logging.WithComponent("agent"),
		providerLoaded: make(map[tool.Provider]bool),
		providerWatch:  make(map[tool.Provider]context.CancelFunc),
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// RegisterTool registers a tool with the agent
func (a *Agent) RegisterTool(t *tool.Tool) error {
	return a.tools.Register(t)
}

// ToolNames returns the names of all currently registered tools.
func (a *Agent) ToolNames() []string {
	return a.tools.Names()
}

// Run executes one turn: the user input is appended to the supplied history,
// the model is called until it stops requesting tools, and the reply plus the
// updated history are returned. The supplied history is not mutated.
func (a *Agent) Run(ctx context.Context, history []*message.Message, input string) (*Result, error) {
	if err := a.loadToolProviders(ctx); err != nil {
		return nil, err
	}

	msgs := message.CloneAll(history)
	if len(msgs) == 0 && a.systemPrompt != "" {
		msgs = append(msgs, message.New(message.RoleSystem, a.systemPrompt))
	}

	mwCtx := middleware.NewContext(ctx)
	mwCtx.Input = input
	mwCtx.Messages = msgs

	var result *Result
	err := a.middlewares.Execute(mwCtx, func(mwCtx *middleware.Context) error {
		ctx, span := telemetry.Tracer("agent").Start(mwCtx.Context(), "agent.turn")
		var turnErr error
		defer func() { telemetry.End(span, turnErr) }()
		span.SetAttributes(attribute.String("agent.name", a.name))

		msgs = append(msgs, message.New(message.RoleUser, input))

		for i := 0; i < a.maxIterations; i++ {
			var schemas []map[string]any
			if a.enableTools {
				schemas = a.tools.ToJSONSchemas()
			}

			response, err := a.llm.Generate(ctx, &GenerateRequest{Messages: msgs, Tools: schemas})
			if err != nil {
				turnErr = fmt.Errorf("LLM generation failed: %w", err)
				return turnErr
			}

			msgs = append(msgs, response.Message)
			mwCtx.Response = response.Message

			if len(response.Message.ToolCalls) == 0 {
				result = &Result{Reply: response.Message.Content, Messages: msgs}
				return nil
			}

			for _, toolCall := range response.Message.ToolCalls {
				out := a.executeToolCall(ctx, toolCall)
				msgs = append(msgs, message.NewToolResponse(toolCall.ID, toolCall.Name, out))
			}
		}

		turnErr = fmt.Errorf("max iterations (%d) reached", a.maxIterations)
		return turnErr
	})

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("no response generated")
	}
	return result, nil
}

// executeToolCall runs one tool call. Tool failures become tool response text
// so the model can report them and the conversation continues.
func (a *Agent) executeToolCall(ctx context.Context, call message.ToolCall) string {
	ctx, span := telemetry.Tracer("agent").Start(ctx, "agent.tool_call")
	span.SetAttributes(attribute.String("tool.name", call.Name))

	out, err := a.tools.Execute(ctx, call.Name, call.Args)
	if err != nil {
		a.logger.Warn("tool execution failed", "tool", call.Name, "error", err)
		out = fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
	}
	telemetry.End(span, err)
	return out
}

func (a *Agent) loadToolProviders(ctx context.Context) error {
	if !a.enableTools {
		return nil
	}

	for _, provider := range a.getToolProviders() {
		if provider == nil {
			continue
		}
		if a.isProviderLoaded(provider) {
			continue
		}
		if err := a.updateProviderTools(ctx, provider); err != nil {
			return err
		}
		a.markProviderLoaded(provider)
		a.startProviderWatcher(provider)
	}

	return nil
}

func (a *Agent) getToolProviders() []tool.Provider {
	a.providerMu.Lock()
	defer a.providerMu.Unlock()
	return append([]tool.Provider(nil), a.toolProviders...)
}

func (a *Agent) isProviderLoaded(provider tool.Provider) bool {
	a.providerMu.Lock()
	defer a.providerMu.Unlock()
	return a.providerLoaded[provider]
}

func (a *Agent) markProviderLoaded(provider tool.Provider) {
	a.providerMu.Lock()
	defer a.providerMu.Unlock()
	a.providerLoaded[provider] = true
}

func (a *Agent) updateProviderTools(ctx context.Context, provider tool.Provider) error {
	tools, err := provider.Tools(ctx)
	if err != nil {
		return fmt.Errorf("load tools from provider: %w", err)
	}

	for _, t := range tools {
		if t == nil || t.Name == "" {
			continue
		}
		if err := a.tools.Upsert(t); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) startProviderWatcher(provider tool.Provider) {
	ch := provider.ToolsChanged()
	if ch == nil {
		return
	}

	a.providerMu.Lock()
	if _, exists := a.providerWatch[provider]; exists {
		a.providerMu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.providerWatch[provider] = cancel
	a.providerMu.Unlock()

	go a.watchProvider(ctx, provider, ch)
}

func (a *Agent) watchProvider(ctx context.Context, provider tool.Provider, ch <-chan struct{}) {
	defer a.removeProviderWatcher(provider)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := a.updateProviderTools(ctx, provider); err != nil {
				a.logger.Warn("tool refresh failed", "error", err)
			}
		}
	}
}

func (a *Agent) removeProviderWatcher(provider tool.Provider) {
	a.providerMu.Lock()
	defer a.providerMu.Unlock()
	if cancel, ok := a.providerWatch[provider]; ok {
		cancel()
		delete(a.providerWatch, provider)
	}
}
