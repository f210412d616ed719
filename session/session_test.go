package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sweetpotato0/gitpilot/agent"
	"github.com/sweetpotato0/gitpilot/message"
)

// MockLLMClient implements agent.LLMClient for testing
type MockLLMClient struct {
	responses []*message.Message
	calls     int
	err       error
}

func (m *MockLLMClient) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.calls >= len(m.responses) {
		return nil, fmt.Errorf("unexpected call %d", m.calls)
	}
	msg := m.responses[m.calls]
	m.calls++
	return &agent.GenerateResponse{Message: msg}, nil
}

func TestTurnAdvancesHistory(t *testing.T) {
	llm := &MockLLMClient{responses: []*message.Message{
		message.New(message.RoleAssistant, "hello there"),
		message.New(message.RoleAssistant, "still here"),
	}}
	conv := New("conv-1", agent.New(agent.WithProvider(llm)))

	reply, err := conv.Turn(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	if reply != "hello there" {
		t.Errorf("Unexpected reply: %s", reply)
	}

	if _, err := conv.Turn(context.Background(), "are you there?"); err != nil {
		t.Fatalf("Second turn failed: %v", err)
	}

	msgs := conv.Messages()
	if len(msgs) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(msgs))
	}
	if msgs[2].Role != message.RoleUser || msgs[2].Content != "are you there?" {
		t.Errorf("Second user turn not recorded: %+v", msgs[2])
	}
	if msgs[3].Content != "still here" {
		t.Errorf("Second reply not recorded: %+v", msgs[3])
	}
}

func TestTurnRecordsAgentFailure(t *testing.T) {
	llm := &MockLLMClient{err: errors.New("model unavailable")}
	conv := New("conv-1", agent.New(agent.WithProvider(llm)))

	reply, err := conv.Turn(context.Background(), "hi")
	if err == nil {
		t.Fatal("Expected error from Turn")
	}
	if !strings.HasPrefix(reply, "Error:") {
		t.Errorf("Expected Error: prefix on reply, got %q", reply)
	}

	// The failed turn stays in the history and the conversation is usable.
	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages after failed turn, got %d", len(msgs))
	}
	if msgs[1].Role != message.RoleAssistant || msgs[1].Content != reply {
		t.Errorf("Failure not recorded as assistant message: %+v", msgs[1])
	}
	if conv.State() != StateActive {
		t.Errorf("Conversation should remain active, got %s", conv.State())
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	llm := &MockLLMClient{responses: []*message.Message{
		message.New(message.RoleAssistant, "hello"),
	}}
	conv := New("conv-1", agent.New(agent.WithProvider(llm)))

	if _, err := conv.Turn(context.Background(), "hi"); err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	msgs := conv.Messages()
	msgs[0].Content = "mutated"

	if conv.Messages()[0].Content == "mutated" {
		t.Error("Messages should return clones, not the backing slice")
	}
}

func TestClosedConversationRejectsTurns(t *testing.T) {
	conv := New("conv-1", agent.New(agent.WithProvider(&MockLLMClient{})))

	if err := conv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := conv.Close(); err == nil {
		t.Error("Expected error closing twice")
	}
	if _, err := conv.Turn(context.Background(), "hi"); err == nil {
		t.Error("Expected error running a turn on a closed conversation")
	}
}
