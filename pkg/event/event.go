// Package event defines the ordered progress events of one agent run and the
// Emitter that delivers them to a consumer.
package event

import (
	"fmt"
	"time"
)

// Type tags an Event.
type Type string

const (
	TypeTextDelta    Type = "text_delta"
	TypeToolStarted  Type = "tool_started"
	TypeToolFinished Type = "tool_finished"
	TypeError        Type = "error"
	TypeDone         Type = "done"
)

// ErrorKind classifies an error event.
type ErrorKind string

const (
	KindProvider          ErrorKind = "ProviderError"
	KindTurnLimitExceeded ErrorKind = "TurnLimitExceeded"
	KindCanceled          ErrorKind = "Canceled"
	KindInvalidInput      ErrorKind = "InvalidInput"
	KindInternal          ErrorKind = "InternalError"
)

// Event is one step of a run. Which payload fields are set depends on Type:
//
//	text_delta     Text
//	tool_started   ToolCallID, ToolName, Args, RawArgs
//	tool_finished  ToolCallID, ToolName, Result, IsError
//	error          Kind, Err
//	done           (none)
type Event struct {
	Type Type `json:"type"`

	Text string `json:"text,omitempty"`

	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	RawArgs    string         `json:"raw_args,omitempty"`
	Result     string         `json:"result,omitempty"`
	IsError    bool           `json:"is_error,omitempty"`

	Kind ErrorKind `json:"kind,omitempty"`
	Err  error     `json:"-"`

	Time time.Time `json:"time"`
}

// Message returns the error text of an error event.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e Event) String() string {
	switch e.Type {
	case TypeTextDelta:
		return fmt.Sprintf("text_delta(%q)", e.Text)
	case TypeToolStarted:
		return fmt.Sprintf("tool_started(%s %s %s)", e.ToolCallID, e.ToolName, e.RawArgs)
	case TypeToolFinished:
		return fmt.Sprintf("tool_finished(%s %s %q)", e.ToolCallID, e.ToolName, e.Result)
	case TypeError:
		return fmt.Sprintf("error(%s: %s)", e.Kind, e.Message())
	default:
		return string(e.Type)
	}
}
