// Package agent drives the conversation loop: it asks the model for the next
// action, executes requested tools, and streams progress as events.
package agent

import (
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/minhyannv/agent-stream-go/pkg/event"
	"github.com/minhyannv/agent-stream-go/pkg/llm"
	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
	"github.com/minhyannv/agent-stream-go/pkg/prompt"
	"github.com/minhyannv/agent-stream-go/pkg/tools"
)

var (
	// ErrTurnLimitExceeded ends a run whose model keeps requesting tools.
	ErrTurnLimitExceeded = errors.New("turn limit exceeded")
	// ErrEmptyInput rejects a blank user message.
	ErrEmptyInput = errors.New("user input is required")
)

// Agent holds the immutable wiring shared by runs. It is safe for concurrent
// use; every run owns its own Conversation.
type Agent struct {
	client       llm.Client
	tools        *tools.Registry
	specs        []llm.ToolSpec
	systemPrompt string
	maxTurns     int
	textPolicy   TextPolicy

	logger loggerpkg.Logger
	newID  func() string
	now    func() time.Time
}

// New wires an Agent to a model client and a tool registry.
func New(client llm.Client, registry *tools.Registry, opts ...AgentOption) (*Agent, error) {
	if client == nil {
		return nil, errors.New("model client is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}

	deps := agentDeps{
		logger:   loggerpkg.NopLogger{},
		maxTurns: DefaultMaxTurns,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	if deps.maxTurns < 1 {
		deps.maxTurns = 1
	}
	if deps.newID == nil {
		deps.newID = uuid.NewString
	}
	if deps.now == nil {
		deps.now = time.Now
	}

	defs := registry.Definitions()
	specs := make([]llm.ToolSpec, 0, len(defs))
	for _, def := range defs {
		specs = append(specs, llm.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters.Map(),
		})
	}

	systemPrompt := prompt.BuildSystemPrompt(defs)
	if deps.systemPrompt != nil {
		systemPrompt = *deps.systemPrompt
	}

	a := &Agent{
		client:       client,
		tools:        registry,
		specs:        specs,
		systemPrompt: systemPrompt,
		maxTurns:     deps.maxTurns,
		textPolicy:   deps.textPolicy,
		logger:       loggerpkg.OrNop(deps.logger),
		newID:        deps.newID,
		now:          deps.now,
	}
	loggerpkg.Debug(a.logger, "agent init", loggerpkg.Fields{
		"tools":       registry.Names(),
		"max_turns":   a.maxTurns,
		"text_policy": a.textPolicy.String(),
		"prompt_size": len(systemPrompt),
	})
	return a, nil
}

// SystemPrompt returns the prompt sent ahead of every conversation.
func (a *Agent) SystemPrompt() string {
	return a.systemPrompt
}

// MaxTurns returns the per-run model invocation cap.
func (a *Agent) MaxTurns() int {
	return a.maxTurns
}

// Run processes one user message and streams its progress. Nothing happens
// until the sequence is iterated. Breaking out of the loop stops the run at
// once: the model stream is closed and pending tool calls are skipped.
//
// A successful run ends with a done event; a failed one with a single error
// event.
func (a *Agent) Run(ctx context.Context, input string) iter.Seq[event.Event] {
	return func(yield func(event.Event) bool) {
		a.newRun(ctx, input).execute(yield)
	}
}

// Result is the outcome of a completed run.
type Result struct {
	RunID     string
	Answer    string
	Messages  []llm.Message
	Turns     int
	ToolCalls int
}

// Answer runs input to completion without streaming and returns the final
// assistant text. The error is the cause of the run's error event, if any.
func (a *Agent) Answer(ctx context.Context, input string) (Result, error) {
	r := a.newRun(ctx, input)
	r.execute(func(event.Event) bool { return true })
	res := Result{
		RunID:     r.id,
		Answer:    r.answer,
		Messages:  r.conv.Messages(),
		Turns:     r.turn,
		ToolCalls: r.toolCalls,
	}
	return res, r.err
}

// Conversation is the append-only message history of one run.
type Conversation struct {
	messages []llm.Message
}

func (c *Conversation) append(m llm.Message) {
	m.ToolCalls = slices.Clone(m.ToolCalls)
	c.messages = append(c.messages, m)
}

// Messages returns a copy of the history in chronological order.
func (c *Conversation) Messages() []llm.Message {
	return slices.Clone(c.messages)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}
