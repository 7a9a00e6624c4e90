// Package llm adapts hosted chat-completion APIs to a uniform streaming
// contract: a conversation and tool declarations go in, a lazy sequence of
// text tokens and completed tool-call sets comes out.
package llm

import (
	"context"
	"iter"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one provider-agnostic conversation entry.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested actions.
	ToolCalls []ToolCall

	// ToolCallID and ToolName link a tool message to the call it answers.
	ToolCallID string
	ToolName   string
}

// ToolCall is a model request to run a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON object text
}

// ToolSpec declares a callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// Request is one model invocation.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Fragment is one element of a streamed response: a text token, a marker
// that the turn has started requesting tools, or the turn's completed tool
// calls.
type Fragment struct {
	Text string

	// ToolCallsPending is set once, on the first tool-call delta. Text after
	// it belongs to a turn that will not be the final answer.
	ToolCallsPending bool

	ToolCalls []ToolCall
}

// Client streams model responses.
//
// Stream must not start network activity until the sequence is iterated. A
// consumer that stops iterating early releases the underlying connection
// before the iteration returns. Errors end the sequence.
type Client interface {
	Stream(ctx context.Context, req Request) iter.Seq2[Fragment, error]
}
