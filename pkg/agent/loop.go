package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minhyannv/agent-stream-go/pkg/event"
	"github.com/minhyannv/agent-stream-go/pkg/llm"
	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
	"github.com/minhyannv/agent-stream-go/pkg/tools"
)

// State is a step of the agent state machine.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingTools
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AwaitingModel"
	case StateExecutingTools:
		return "ExecutingTools"
	case StateTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// run is the per-request state. It is used by a single goroutine.
type run struct {
	*Agent

	ctx   context.Context
	id    string
	input string
	emit  *event.Emitter
	log   loggerpkg.Logger

	state   State
	conv    Conversation
	turn    int
	pending []llm.ToolCall

	answer    string
	toolCalls int
	err       error
}

func (a *Agent) newRun(ctx context.Context, input string) *run {
	if ctx == nil {
		ctx = context.Background()
	}
	id := a.newID()
	return &run{
		Agent: a,
		ctx:   ctx,
		id:    id,
		input: input,
		log:   runLogger{base: a.logger, runID: id},
		state: StateAwaitingModel,
	}
}

func (r *run) execute(yield func(event.Event) bool) {
	r.emit = event.NewEmitter(yield, event.WithClock(r.now))
	start := r.now()

	if strings.TrimSpace(r.input) == "" {
		r.state = r.fail(event.KindInvalidInput, ErrEmptyInput)
	} else {
		r.conv.append(llm.Message{Role: llm.RoleUser, Content: r.input})
	}

	for r.state != StateTerminated {
		prev := r.state
		switch r.state {
		case StateAwaitingModel:
			r.state = r.awaitModel()
		case StateExecutingTools:
			r.state = r.executeTools()
		default:
			r.state = r.fail(event.KindInternal, fmt.Errorf("unexpected state %s", r.state))
		}
		loggerpkg.Debugf(r.log, "state %s -> %s", prev, r.state)
	}

	started, finished := r.emit.ToolCounts()
	loggerpkg.Debug(r.log, "run finished", loggerpkg.Fields{
		"turns":            r.turn,
		"tools_started":    started,
		"tools_finished":   finished,
		"messages":         r.conv.Len(),
		"duration":         r.now().Sub(start).String(),
		"consumer_stopped": r.emit.Stopped(),
		"terminal_event":   r.emit.Terminated(),
		"error":            errString(r.err),
	})
}

// awaitModel performs one model turn and decides whether the run ends.
func (r *run) awaitModel() State {
	if err := r.ctx.Err(); err != nil {
		return r.fail(event.KindCanceled, err)
	}
	r.turn++
	loggerpkg.Debug(r.log, "model turn", loggerpkg.Fields{
		"turn":      r.turn,
		"max_turns": r.maxTurns,
		"messages":  r.conv.Len(),
	})

	req := llm.Request{
		System:   r.systemPrompt,
		Messages: r.conv.Messages(),
		Tools:    r.specs,
	}

	var (
		text    strings.Builder
		held    []string
		calls   []llm.ToolCall
		calling bool
	)
	for frag, err := range r.client.Stream(r.ctx, req) {
		if err != nil {
			if ctxErr := r.ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return r.fail(event.KindCanceled, err)
			}
			return r.fail(event.KindProvider, err)
		}
		if frag.ToolCallsPending {
			calling = true
		}
		if frag.Text != "" {
			text.WriteString(frag.Text)
			if r.textPolicy == TextLive && !calling && len(calls) == 0 {
				if err := r.emit.TextDelta(frag.Text); err != nil {
					return r.stop(err)
				}
			} else {
				held = append(held, frag.Text)
			}
		}
		calls = append(calls, frag.ToolCalls...)
	}

	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + r.newID()
		}
	}
	r.conv.append(llm.Message{
		Role:      llm.RoleAssistant,
		Content:   text.String(),
		ToolCalls: calls,
	})

	if len(calls) == 0 {
		for _, tok := range held {
			if err := r.emit.TextDelta(tok); err != nil {
				return r.stop(err)
			}
		}
		r.answer = text.String()
		if err := r.emit.Done(); err != nil {
			return r.stop(err)
		}
		return StateTerminated
	}

	if len(held) > 0 {
		loggerpkg.Debug(r.log, "intermediate text withheld", loggerpkg.Fields{
			"turn":   r.turn,
			"tokens": len(held),
		})
	}
	if r.turn >= r.maxTurns {
		return r.fail(event.KindTurnLimitExceeded,
			fmt.Errorf("%w: model still requested %d tool call(s) after %d turns", ErrTurnLimitExceeded, len(calls), r.turn))
	}
	r.pending = calls
	return StateExecutingTools
}

// executeTools runs the pending calls sequentially in the order the model
// emitted them.
func (r *run) executeTools() State {
	calls := r.pending
	r.pending = nil

	for _, call := range calls {
		if err := r.ctx.Err(); err != nil {
			return r.fail(event.KindCanceled, err)
		}

		args, _ := tools.DecodeArguments(call.Arguments)
		if err := r.emit.ToolStarted(call.ID, call.Name, args, call.Arguments); err != nil {
			return r.stop(err)
		}

		start := r.now()
		result, err := r.tools.Execute(r.ctx, call.Name, call.Arguments)
		if ctxErr := r.ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return r.fail(event.KindCanceled, ctxErr)
		}
		loggerpkg.Debug(r.log, "tool call", loggerpkg.Fields{
			"turn":     r.turn,
			"id":       call.ID,
			"tool":     call.Name,
			"duration": r.now().Sub(start).String(),
			"error":    errString(err),
		})

		r.conv.append(llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
		r.toolCalls++
		if err := r.emit.ToolFinished(call.ID, call.Name, result, err != nil); err != nil {
			return r.stop(err)
		}
	}
	return StateAwaitingModel
}

// fail records err and emits the terminal error event.
func (r *run) fail(kind event.ErrorKind, err error) State {
	r.err = err
	loggerpkg.Warn(r.log, "run failed", loggerpkg.Fields{
		"kind":  kind,
		"turn":  r.turn,
		"error": err.Error(),
	})
	_ = r.emit.Fail(kind, err)
	return StateTerminated
}

// stop handles an emit failure. A consumer that stopped iterating ends the
// run silently; anything else is an ordering bug surfaced as an error event.
func (r *run) stop(err error) State {
	if errors.Is(err, event.ErrConsumerStopped) {
		r.err = err
		loggerpkg.Debug(r.log, "consumer stopped", loggerpkg.Fields{"turn": r.turn})
		return StateTerminated
	}
	return r.fail(event.KindInternal, err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// runLogger tags every entry with the run id.
type runLogger struct {
	base  loggerpkg.Logger
	runID string
}

func (l runLogger) with(obj any) any {
	fields := loggerpkg.Fields{"run_id": l.runID}
	switch v := obj.(type) {
	case nil:
	case loggerpkg.Fields:
		for k, val := range v {
			fields[k] = val
		}
	default:
		fields["data"] = v
	}
	return fields
}

func (l runLogger) Debug(msg string, obj any) { l.base.Debug(msg, l.with(obj)) }
func (l runLogger) Info(msg string, obj any)  { l.base.Info(msg, l.with(obj)) }
func (l runLogger) Warn(msg string, obj any)  { l.base.Warn(msg, l.with(obj)) }
func (l runLogger) Error(msg string, obj any) { l.base.Error(msg, l.with(obj)) }
