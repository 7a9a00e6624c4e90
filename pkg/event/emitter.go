package event

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConsumerStopped reports that the consumer quit iterating.
	ErrConsumerStopped = errors.New("event consumer stopped")
	// ErrStreamClosed reports an emit after done or error.
	ErrStreamClosed = errors.New("event stream already terminated")
	// ErrToolCallOpen reports an emit that requires no tool call in flight.
	ErrToolCallOpen = errors.New("a tool call is still open")
	// ErrNoOpenToolCall reports a tool_finished without its tool_started.
	ErrNoOpenToolCall = errors.New("no matching open tool call")
)

// Emitter delivers events to a range-over-func consumer and enforces the
// stream's ordering rules:
//
//   - at most one tool call is open, and tool_finished closes the call that
//     tool_started opened;
//   - text_delta and done are refused while a tool call is open;
//   - nothing follows done or error;
//   - once the consumer stops, yield is never called again.
//
// An Emitter is owned by a single run and is not safe for concurrent use.
type Emitter struct {
	yield func(Event) bool
	now   func() time.Time

	stopped bool
	closed  bool
	openID  string
	open    bool

	started  int
	finished int
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEmitter(yield func(Event) bool, opts ...EmitterOption) *Emitter {
	e := &Emitter{yield: yield, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Emitter) emit(ev Event) error {
	if e.stopped {
		return ErrConsumerStopped
	}
	if e.closed {
		return ErrStreamClosed
	}
	ev.Time = e.now()
	if !e.yield(ev) {
		e.stopped = true
		return ErrConsumerStopped
	}
	return nil
}

// TextDelta emits one token of answer text. Empty text is dropped.
func (e *Emitter) TextDelta(text string) error {
	if text == "" {
		return nil
	}
	if e.open {
		return ErrToolCallOpen
	}
	return e.emit(Event{Type: TypeTextDelta, Text: text})
}

// ToolStarted opens a tool call. args may be nil when the payload did not
// decode; raw always carries the text the model sent.
func (e *Emitter) ToolStarted(id, name string, args map[string]any, raw string) error {
	if e.open {
		return fmt.Errorf("%w: %s", ErrToolCallOpen, e.openID)
	}
	if err := e.emit(Event{
		Type:       TypeToolStarted,
		ToolCallID: id,
		ToolName:   name,
		Args:       args,
		RawArgs:    raw,
	}); err != nil {
		return err
	}
	e.open = true
	e.openID = id
	e.started++
	return nil
}

// ToolFinished closes the open tool call with its result text.
func (e *Emitter) ToolFinished(id, name, result string, isError bool) error {
	if !e.open || e.openID != id {
		return fmt.Errorf("%w: %s", ErrNoOpenToolCall, id)
	}
	if err := e.emit(Event{
		Type:       TypeToolFinished,
		ToolCallID: id,
		ToolName:   name,
		Result:     result,
		IsError:    isError,
	}); err != nil {
		return err
	}
	e.open = false
	e.openID = ""
	e.finished++
	return nil
}

// Fail emits the single terminal error event. It may interrupt an open tool
// call.
func (e *Emitter) Fail(kind ErrorKind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	if emitErr := e.emit(Event{Type: TypeError, Kind: kind, Err: err}); emitErr != nil {
		return emitErr
	}
	e.closed = true
	e.open = false
	return nil
}

// Done emits the terminal success event.
func (e *Emitter) Done() error {
	if e.open {
		return ErrToolCallOpen
	}
	if err := e.emit(Event{Type: TypeDone}); err != nil {
		return err
	}
	e.closed = true
	return nil
}

// Stopped reports whether the consumer quit iterating.
func (e *Emitter) Stopped() bool {
	return e.stopped
}

// Terminated reports whether done or error was emitted.
func (e *Emitter) Terminated() bool {
	return e.closed
}

// ToolCounts reports how many tool calls were started and finished.
func (e *Emitter) ToolCounts() (started, finished int) {
	return e.started, e.finished
}
