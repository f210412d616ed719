package ghtool

import (
	"context"

	"github.com/sweetpotato0/gitpilot/tool"
)

// ListBranchesTool wraps the remote list_branches tool as an agent tool.
// Arguments pass through to the remote payload unchanged; the handler never
// returns an error so that failures stay part of the conversation.
func ListBranchesTool(inv *Invoker) *tool.Tool {
	return &tool.Tool{
		Name:        "list_branches",
		Description: "List the branches of a GitHub repository",
		Parameters: []tool.Parameter{
			{Name: "owner", Type: "string", Description: "Repository owner (user or organisation)", Required: true},
			{Name: "repo", Type: "string", Description: "Repository name", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return inv.Invoke(ctx, "list_branches", args).Message(), nil
		},
	}
}
