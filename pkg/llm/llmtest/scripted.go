// Package llmtest provides a scripted llm.Client for exercising the agent
// loop without a provider.
package llmtest

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/minhyannv/agent-stream-go/pkg/llm"
)

// Turn is the scripted response to one model invocation. Text tokens are
// yielded first, then Err if set, otherwise the tool calls. When After is
// set, a pending marker and the After tokens are streamed before the calls.
type Turn struct {
	Text      []string
	After     []string
	ToolCalls []llm.ToolCall
	Err       error
}

// Answer is a turn that streams text word by word and requests nothing.
func Answer(text string) Turn {
	return Turn{Text: llm.SplitTokens(text)}
}

// Calls is a turn that requests the given tool calls.
func Calls(calls ...llm.ToolCall) Turn {
	return Turn{ToolCalls: calls}
}

// Call builds a tool call.
func Call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: args}
}

// Client replays Turns in order, one per Stream call, and records every
// request it receives.
type Client struct {
	mu       sync.Mutex
	turns    []Turn
	requests []llm.Request
	yielded  int
	closed   int
}

func New(turns ...Turn) *Client {
	return &Client{turns: turns}
}

func (c *Client) Stream(ctx context.Context, req llm.Request) iter.Seq2[llm.Fragment, error] {
	return func(yield func(llm.Fragment, error) bool) {
		c.mu.Lock()
		idx := len(c.requests)
		c.requests = append(c.requests, cloneRequest(req))
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			c.closed++
			c.mu.Unlock()
		}()

		if idx >= len(c.turns) {
			yield(llm.Fragment{}, fmt.Errorf("llmtest: no scripted turn %d", idx+1))
			return
		}
		turn := c.turns[idx]
		frags := make([]llm.Fragment, 0, len(turn.Text)+len(turn.After)+1)
		for _, tok := range turn.Text {
			frags = append(frags, llm.Fragment{Text: tok})
		}
		if len(turn.After) > 0 {
			frags = append(frags, llm.Fragment{ToolCallsPending: true})
			for _, tok := range turn.After {
				frags = append(frags, llm.Fragment{Text: tok})
			}
		}
		for _, frag := range frags {
			if err := ctx.Err(); err != nil {
				yield(llm.Fragment{}, err)
				return
			}
			c.count()
			if !yield(frag, nil) {
				return
			}
		}
		if turn.Err != nil {
			yield(llm.Fragment{}, turn.Err)
			return
		}
		if len(turn.ToolCalls) > 0 {
			c.count()
			yield(llm.Fragment{ToolCalls: slices.Clone(turn.ToolCalls)}, nil)
		}
	}
}

func (c *Client) count() {
	c.mu.Lock()
	c.yielded++
	c.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (c *Client) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.requests)
}

// Invocations reports how many times Stream was iterated.
func (c *Client) Invocations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Closed reports how many streams have finished or been abandoned.
func (c *Client) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Yielded reports how many fragments were handed to consumers.
func (c *Client) Yielded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yielded
}

func cloneRequest(req llm.Request) llm.Request {
	out := req
	out.Messages = make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		m.ToolCalls = slices.Clone(m.ToolCalls)
		out.Messages[i] = m
	}
	out.Tools = slices.Clone(req.Tools)
	return out
}

var _ llm.Client = (*Client)(nil)
