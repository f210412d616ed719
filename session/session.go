// Package session holds conversation state for the chat surface. History is
// an explicit value owned by the Conversation, passed to the agent on every
// turn and replaced with the transcript the agent returns.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweetpotato0/gitpilot/agent"
	"github.com/sweetpotato0/gitpilot/message"
)

// State represents the state of a conversation
type State string

const (
	StateActive State = "active"
	StateClosed State = "closed"
)

// Conversation is a single-user chat session backed by an agent. A mutex
// serializes turns so history only ever has one writer.
type Conversation struct {
	mu      sync.RWMutex
	id      string
	state   State
	agent   *agent.Agent
	history []*message.Message

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a conversation with an empty history.
func New(id string, ag *agent.Agent) *Conversation {
	now := time.Now()
	return &Conversation{
		id:        id,
		state:     StateActive,
		agent:     ag,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ID returns the conversation ID
func (c *Conversation) ID() string {
	return c.id
}

// Turn runs one user turn through the agent and advances the history.
// Agent failures do not end the conversation: the failure is recorded in the
// history as an assistant message and returned as the reply, so the user can
// keep chatting.
func (c *Conversation) Turn(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return "", fmt.Errorf("conversation is not active (state: %s)", c.state)
	}
	c.UpdatedAt = time.Now()

	result, err := c.agent.Run(ctx, c.history, input)
	if err != nil {
		reply := fmt.Sprintf("Error: %v", err)
		c.history = append(c.history,
			message.New(message.RoleUser, input),
			message.New(message.RoleAssistant, reply))
		return reply, err
	}

	c.history = result.Messages
	return result.Reply, nil
}

// Messages returns a copy of the conversation history.
func (c *Conversation) Messages() []*message.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return message.CloneAll(c.history)
}

// State returns the current conversation state
func (c *Conversation) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Close marks the conversation closed. Further turns are rejected.
func (c *Conversation) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return fmt.Errorf("conversation already closed")
	}
	c.state = StateClosed
	c.UpdatedAt = time.Now()
	return nil
}
