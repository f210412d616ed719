package ghtool

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of one remote tool invocation. The closed set of
// variants is BranchList, RawPassthrough and Failure.
type Result interface {
	// Message renders the result as conversational text.
	Message() string
}

// BranchList is the recognized shape for branch-listing tools. Order follows
// the remote response.
type BranchList struct {
	Branches []string
}

// Message lists the branch names in order.
func (r BranchList) Message() string {
	if len(r.Branches) == 0 {
		return "The repository has no branches."
	}
	return fmt.Sprintf("Found %d branches: %s", len(r.Branches), strings.Join(r.Branches, ", "))
}

// RawPassthrough carries a successful JSON response whose shape is not
// modeled; the raw body is echoed rather than dropped.
type RawPassthrough struct {
	Body json.RawMessage
}

// Message echoes the raw JSON.
func (r RawPassthrough) Message() string {
	return fmt.Sprintf("Tool result: %s", string(r.Body))
}

// Failure describes a transport error or remote rejection.
type Failure struct {
	Reason string
}

// Message returns the failure description.
func (r Failure) Message() string {
	return "Error: " + r.Reason
}
