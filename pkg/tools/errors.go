package tools

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned by Resolve for names outside the catalog.
var ErrToolNotFound = errors.New("unknown tool")

// ErrorKind classifies tool failures.
type ErrorKind string

const (
	// EvaluationError means the tool ran but could not compute a result.
	EvaluationError ErrorKind = "EvaluationError"
	// InvalidArguments means the payload failed to decode or validate.
	InvalidArguments ErrorKind = "InvalidArguments"
	// ExecutionError covers any other failure, including recovered panics.
	ExecutionError ErrorKind = "ExecutionError"
)

// ToolError is a tool-level failure. It is absorbed into the conversation as
// result text and never aborts the agent loop.
type ToolError struct {
	Tool string
	Kind ErrorKind
	Err  error
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case EvaluationError:
		return fmt.Sprintf("calculation error: %v", e.Err)
	case InvalidArguments:
		return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrToolNotFound, name)
}
