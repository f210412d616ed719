package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/sweetpotato0/gitpilot/tool"
)

// Provider exposes MCP tools through the generic tool.Provider interface.
type Provider interface {
	tool.Provider
	// Client returns the underlying MCP client for advanced use cases.
	Client() *Client
}

type provider struct {
	client *Client
}

// NewProvider connects to the given streamable endpoint and verifies the tool
// listing before returning, so misconfiguration fails at startup rather than
// mid-conversation.
func NewProvider(ctx context.Context, endpoint string, opts ...Option) (Provider, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("mcp: endpoint is required")
	}

	client, err := NewStreamableClient(ctx, endpoint, opts...)
	if err != nil {
		return nil, err
	}

	p := &provider{client: client}
	if _, err := p.Tools(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return p, nil
}

func (p *provider) Tools(ctx context.Context) ([]*tool.Tool, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("mcp: provider is not initialized")
	}
	return p.client.BuildTools(ctx)
}

func (p *provider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *provider) Client() *Client {
	if p == nil {
		return nil
	}
	return p.client
}

func (p *provider) ToolsChanged() <-chan struct{} {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.ToolsChanged()
}
