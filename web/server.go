// Package web serves the chat surface: a single page with the conversation
// history, an input box, and a collapsible debug panel showing the raw
// transcript, tool activity and token estimates.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sweetpotato0/gitpilot/message"
	"github.com/sweetpotato0/gitpilot/pkg/logging"
	"github.com/sweetpotato0/gitpilot/session"
	"github.com/sweetpotato0/gitpilot/tokenizer"
)

//go:embed index.html.tmpl
var templateFS embed.FS

// Server renders the chat UI over a single conversation.
type Server struct {
	conv      *session.Conversation
	counter   tokenizer.Counter
	logger    *slog.Logger
	tmpl      *template.Template
	server    *http.Server
	title     string
	provider  string
	model     string
	toolNames func() []string
}

// Option configures the server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithCounter sets the token counter used by the debug panel
func WithCounter(counter tokenizer.Counter) Option {
	return func(s *Server) { s.counter = counter }
}

// WithModelInfo records the provider and model shown in the debug panel
func WithModelInfo(provider, model string) Option {
	return func(s *Server) {
		s.provider = provider
		s.model = model
	}
}

// WithToolSource supplies the registered tool names shown in the debug
// panel. A function because tool providers load after startup.
func WithToolSource(source func() []string) Option {
	return func(s *Server) { s.toolNames = source }
}

// New creates a chat server for the given conversation.
func New(addr string, conv *session.Conversation, opts ...Option) *Server {
	s := &Server{
		conv:    conv,
		counter: tokenizer.Approximate{},
		logger:  logging.WithComponent("web"),
		title:   "GitPilot",
		tmpl:    template.Must(template.ParseFS(templateFS, "index.html.tmpl")),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/healthz", s.healthHandler)

	s.server = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler returns the routing handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("chat server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data := s.buildPage()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("render failed", "error", err)
	}
}

// chatHandler runs one turn and redirects back to the page. Turn failures
// are already recorded in the history, so the redirect happens either way.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt != "" {
		if _, err := s.conv.Turn(r.Context(), prompt); err != nil {
			s.logger.Error("turn failed", "error", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type chatMessage struct {
	Role    string
	Content string
}

type debugEntry struct {
	Role      string
	Content   string
	ToolCalls []string
	Tokens    int
}

type pageData struct {
	Title       string
	Provider    string
	Model       string
	ToolNames   []string
	Messages    []chatMessage
	Debug       []debugEntry
	TotalTokens int
}

func (s *Server) buildPage() pageData {
	msgs := s.conv.Messages()

	data := pageData{
		Title:    s.title,
		Provider: s.provider,
		Model:    s.model,
	}
	if s.toolNames != nil {
		data.ToolNames = s.toolNames()
	}

	for _, msg := range msgs {
		// The visible transcript carries only what the user said and what
		// the assistant answered. Everything else goes to the debug panel.
		if msg.Role == message.RoleUser || (msg.Role == message.RoleAssistant && msg.Content != "") {
			data.Messages = append(data.Messages, chatMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}

		entry := debugEntry{
			Role:    string(msg.Role),
			Content: msg.Content,
			Tokens:  s.counter.CountTokens(msg.Content),
		}
		for _, call := range msg.ToolCalls {
			entry.ToolCalls = append(entry.ToolCalls, formatToolCall(call))
		}
		if msg.Role == message.RoleTool && msg.ToolName != "" {
			entry.Role = fmt.Sprintf("tool (%s)", msg.ToolName)
		}
		data.TotalTokens += entry.Tokens
		data.Debug = append(data.Debug, entry)
	}

	return data
}

func formatToolCall(call message.ToolCall) string {
	if len(call.Args) == 0 {
		return call.Name
	}
	args, err := json.Marshal(call.Args)
	if err != nil {
		return call.Name
	}
	return fmt.Sprintf("%s(%s)", call.Name, args)
}
