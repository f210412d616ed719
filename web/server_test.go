package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sweetpotato0/gitpilot/agent"
	"github.com/sweetpotato0/gitpilot/message"
	"github.com/sweetpotato0/gitpilot/session"
	"github.com/sweetpotato0/gitpilot/tool"
)

// MockLLMClient implements agent.LLMClient for testing
type MockLLMClient struct {
	responses []*message.Message
	calls     int
}

func (m *MockLLMClient) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	if m.calls >= len(m.responses) {
		return nil, fmt.Errorf("unexpected call %d", m.calls)
	}
	msg := m.responses[m.calls]
	m.calls++
	return &agent.GenerateResponse{Message: msg}, nil
}

func agentWithListBranches(llm *MockLLMClient) *agent.Agent {
	ag := agent.New(agent.WithProvider(llm))
	ag.RegisterTool(&tool.Tool{
		Name:        "list_branches",
		Description: "List branches for a repository",
		Parameters: []tool.Parameter{
			{Name: "owner", Type: "string", Description: "Repository owner", Required: true},
			{Name: "repo", Type: "string", Description: "Repository name", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "Found 2 branches: main, dev", nil
		},
	})
	return ag
}

func newTestServer(t *testing.T, llm *MockLLMClient) *httptest.Server {
	t.Helper()
	conv := session.New("test", agent.New(agent.WithProvider(llm)))
	srv := New(":0", conv,
		WithModelInfo("gemini", "gemini-2.0-flash"),
		WithToolSource(func() []string { return []string{"list_branches"} }),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func parsePage(t *testing.T, ts *httptest.Server) *goquery.Document {
	t.Helper()
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

func TestIndexRendersEmptyChat(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	doc := parsePage(t, ts)
	if title := doc.Find("h1").Text(); title != "GitPilot" {
		t.Errorf("h1 = %q", title)
	}
	if doc.Find("form#chat-form input[name=prompt]").Length() != 1 {
		t.Error("Expected a prompt input inside the chat form")
	}
	if doc.Find(".msg").Length() != 0 {
		t.Error("Expected no chat messages before the first turn")
	}
	if doc.Find("details#debug").Length() != 1 {
		t.Error("Expected a collapsible debug panel")
	}
}

func TestChatTurnAppearsInHistory(t *testing.T) {
	llm := &MockLLMClient{responses: []*message.Message{
		message.New(message.RoleAssistant, "The default branch is main."),
	}}
	ts := newTestServer(t, llm)

	resp, err := http.PostForm(ts.URL+"/chat", url.Values{"prompt": {"what is the default branch?"}})
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	resp.Body.Close()

	doc := parsePage(t, ts)
	if got := doc.Find(".msg.user").Text(); !strings.Contains(got, "what is the default branch?") {
		t.Errorf("User message missing from history: %q", got)
	}
	if got := doc.Find(".msg.assistant").Text(); !strings.Contains(got, "The default branch is main.") {
		t.Errorf("Assistant reply missing from history: %q", got)
	}
}

func TestChatRedirectsAfterPost(t *testing.T) {
	llm := &MockLLMClient{responses: []*message.Message{
		message.New(message.RoleAssistant, "hi"),
	}}
	ts := newTestServer(t, llm)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.PostForm(ts.URL+"/chat", url.Values{"prompt": {"hello"}})
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("Expected 303 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("Redirect location = %q", loc)
	}
}

func TestBlankPromptIsIgnored(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	resp, err := http.PostForm(ts.URL+"/chat", url.Values{"prompt": {"   "}})
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	resp.Body.Close()

	doc := parsePage(t, ts)
	if doc.Find(".msg").Length() != 0 {
		t.Error("Blank prompt should not produce a turn")
	}
}

func TestDebugPanelShowsToolActivity(t *testing.T) {
	// One turn where the model calls a tool before answering.
	toolCall := message.New(message.RoleAssistant, "")
	toolCall.ToolCalls = []message.ToolCall{{
		ID:   "call-1",
		Name: "list_branches",
		Args: map[string]any{"owner": "octocat", "repo": "hello-world"},
	}}
	llm := &MockLLMClient{responses: []*message.Message{
		toolCall,
		message.New(message.RoleAssistant, "There are 2 branches."),
	}}

	ag := agentWithListBranches(llm)
	conv := session.New("test", ag)
	srv := New(":0", conv, WithToolSource(ag.ToolNames))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/chat", url.Values{"prompt": {"list branches"}})
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	resp.Body.Close()

	doc := parsePage(t, ts)
	debug := doc.Find("details#debug").Text()
	if !strings.Contains(debug, "list_branches") {
		t.Errorf("Debug panel should name the tool call, got: %q", debug)
	}
	if !strings.Contains(debug, "registered tools: list_branches") {
		t.Errorf("Debug panel should list registered tools, got: %q", debug)
	}
	if !strings.Contains(debug, "tokens") {
		t.Error("Debug panel should show token estimates")
	}

	// Tool traffic stays out of the visible transcript.
	if doc.Find(".msg").Length() != 2 {
		t.Errorf("Expected 2 visible messages, got %d", doc.Find(".msg").Length())
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}
