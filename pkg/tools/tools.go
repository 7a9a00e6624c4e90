package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
)

type tool interface {
	name() string
	definition() Definition
	execute(ctx context.Context, args map[string]any) (string, error)
}

// Definition declares a tool to the model: its name, purpose and arguments.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Parameters  Schema `yaml:"parameters"`
}

// Context carries the dependencies shared by built-in tools.
type Context struct {
	// Now reads the wall clock; time.Now when nil.
	Now    func() time.Time
	Logger loggerpkg.Logger
}

func (c Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Context) debugf(format string, args ...any) {
	loggerpkg.Debugf(c.Logger, format, args...)
}

// Handle is a resolved catalog entry.
type Handle struct {
	impl tool
}

// Name returns the tool name, or "" for the zero Handle.
func (h Handle) Name() string {
	if h.impl == nil {
		return ""
	}
	return h.impl.name()
}

// Registry is the fixed tool catalog.
type Registry struct {
	registry map[string]tool
	order    []string
	ctx      Context
}

// New builds a registry with the built-in tools.
func New(ctx Context) *Registry {
	if ctx.Logger == nil {
		ctx.Logger = loggerpkg.NopLogger{}
	}
	r := &Registry{
		registry: make(map[string]tool),
		ctx:      ctx,
	}

	r.register(&currentTimeTool{ctx: ctx})
	r.register(&calculatorTool{ctx: ctx})
	return r
}

func (r *Registry) register(impl tool) {
	r.registry[impl.name()] = impl
	r.order = append(r.order, impl.name())
	r.ctx.debugf("registered tool: %s", impl.name())
}

// Definitions lists every tool in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.registry[name].definition())
	}
	return defs
}

// Names lists the tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Resolve looks up a tool by name.
func (r *Registry) Resolve(name string) (Handle, error) {
	impl, ok := r.registry[name]
	if !ok {
		return Handle{}, notFound(name)
	}
	return Handle{impl: impl}, nil
}

// Invoke decodes and validates argText, then runs the tool. Failures are
// returned as *ToolError; a panicking tool is recovered into one.
func (r *Registry) Invoke(ctx context.Context, h Handle, argText string) (result string, err error) {
	if h.impl == nil {
		return "", notFound("")
	}
	name := h.impl.name()

	args, err := DecodeArguments(argText)
	if err != nil {
		return "", &ToolError{Tool: name, Kind: InvalidArguments, Err: err}
	}
	if err := h.impl.definition().Parameters.Validate(args); err != nil {
		return "", &ToolError{Tool: name, Kind: InvalidArguments, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &ToolError{Tool: name, Kind: ExecutionError, Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			result = ""
			err = &ToolError{Tool: name, Kind: ExecutionError, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	result, err = h.impl.execute(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if !errors.As(err, &toolErr) {
			err = &ToolError{Tool: name, Kind: ExecutionError, Err: err}
		}
		return "", err
	}
	return result, nil
}

// Execute resolves and invokes name. The returned text is always suitable as
// a tool-result message: unknown tools and tool failures are described in it.
// The error is non-nil when the text describes a failure.
func (r *Registry) Execute(ctx context.Context, name, argText string) (string, error) {
	h, err := r.Resolve(name)
	if err != nil {
		r.ctx.debugf("tool %q not found", name)
		return fmt.Sprintf("error: unknown tool %q", name), err
	}

	start := r.ctx.now()
	result, err := r.Invoke(ctx, h, argText)
	r.ctx.debugf("tool %s finished in %s (error=%v)", h.Name(), r.ctx.now().Sub(start), err != nil)
	if err != nil {
		return err.Error(), err
	}
	return result, nil
}

// DecodeArguments parses a tool-call payload into an object. Empty text and
// JSON null decode to an empty object.
func DecodeArguments(argText string) (map[string]any, error) {
	trimmed := bytes.TrimSpace([]byte(argText))
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if args == nil {
		// "null"
		args = map[string]any{}
	}
	return args, nil
}
