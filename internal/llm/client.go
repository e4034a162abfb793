// Package llm defines the narrow contract the dispatch loop has with the
// language model backend: send a conversation plus tool declarations, get
// back either a plain reply or exactly one function invocation. The
// concrete backend is an OpenAI-compatible chat-completions API, which
// also covers locally hosted models behind a custom base URL.
package llm

import (
	"context"
	"encoding/json"
)

// Role tags a conversation message.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// RawToolCall is a function invocation exactly as the model emitted it:
// undecoded arguments, unvalidated name. Parsing against the closed tool
// set happens in the dispatch loop.
type RawToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is one entry of the conversation history sent to the model.
// Assistant entries may carry the tool call they announced; tool entries
// carry the call id they answer.
type Message struct {
	Role       Role
	Content    string
	ToolCall   *RawToolCall // assistant tool-call marker
	ToolCallID string       // correlates a tool result to its call
}

// Turn is the model's answer for one round trip: plain text or exactly one
// tool invocation, never both.
type Turn struct {
	Text string
	Call *RawToolCall
}

// Tool declares one function to the model. Parameters is a JSON schema
// object in map form.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Client is the model backend contract. Implementations must be safe for
// concurrent use and honor ctx for cancellation and timeouts.
type Client interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (*Turn, error)
}
