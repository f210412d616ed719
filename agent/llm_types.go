package agent

import (
	"context"

	"github.com/sweetpotato0/gitpilot/message"
)

// LLMClient defines the interface for LLM providers
type LLMClient interface {
	// Generate generates a response from the LLM
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest bundles inputs for a non-streaming LLM invocation.
type GenerateRequest struct {
	Messages []*message.Message
	Tools    []map[string]any
}

// GenerateResponse captures the LLM reply for non-streaming calls.
type GenerateResponse struct {
	Message *message.Message
}

// Result is the outcome of one agent turn.
type Result struct {
	// Reply is the final assistant answer.
	Reply string
	// Messages is the full updated history, including the user input,
	// intermediate tool calls and responses, and the final reply.
	Messages []*message.Message
}
