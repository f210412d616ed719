// Package ghtool is a thin client for a remote GitHub automation endpoint
// that exposes named tools behind POST <base>/api/v1/tools/<name>/invoke.
package ghtool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sweetpotato0/gitpilot/pkg/logging"
)

// Invoker issues authenticated tool invocations against a fixed base URL.
// It is stateless; every call is a single independent attempt with no retry
// and no caching.
type Invoker struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Invoker) {
		if client != nil {
			i.client = client
		}
	}
}

// WithLogger overrides the invoker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInvoker creates an invoker for the given base URL. The token is sent as
// a bearer authorization value on every request and never logged.
func NewInvoker(baseURL, token string, opts ...Option) *Invoker {
	inv := &Invoker{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  http.DefaultClient,
		logger:  logging.WithComponent("ghtool"),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke calls the named remote tool with the given payload. Failures are
// returned as result values, never as errors: the caller feeds the text back
// into the conversation and the session stays usable.
func (i *Invoker) Invoke(ctx context.Context, toolName string, payload map[string]any) Result {
	if payload == nil {
		payload = map[string]any{}
	}

	// Audit notice before any outbound side effect.
	i.logger.Info("invoking remote tool", "tool", toolName, "payload", payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return Failure{Reason: fmt.Sprintf("could not encode payload for tool '%s': %v", toolName, err)}
	}

	url := fmt.Sprintf("%s/api/v1/tools/%s/invoke", i.baseURL, toolName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Failure{Reason: fmt.Sprintf("could not build request for tool '%s': %v", toolName, err)}
	}
	req.Header.Set("Authorization", "Bearer "+i.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return Failure{Reason: fmt.Sprintf("request failed while calling tool '%s': %v", toolName, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure{Reason: fmt.Sprintf("could not read response for tool '%s': %v", toolName, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Failure{Reason: fmt.Sprintf("tool '%s' returned HTTP %d: %s", toolName, resp.StatusCode, strings.TrimSpace(string(respBody)))}
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Failure{Reason: fmt.Sprintf("tool '%s' returned malformed JSON: %v", toolName, err)}
	}

	if branches, ok := matchBranchList(parsed); ok {
		return BranchList{Branches: branches}
	}
	return RawPassthrough{Body: json.RawMessage(respBody)}
}

// matchBranchList checks for the output.branches shape: a sequence of objects
// each bearing a name field. Anything else falls through to passthrough.
func matchBranchList(parsed map[string]any) ([]string, bool) {
	output, ok := parsed["output"].(map[string]any)
	if !ok {
		return nil, false
	}
	rawBranches, ok := output["branches"].([]any)
	if !ok {
		return nil, false
	}

	names := make([]string, 0, len(rawBranches))
	for _, item := range rawBranches {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		name, ok := entry["name"].(string)
		if !ok {
			return nil, false
		}
		names = append(names, name)
	}
	return names, true
}
