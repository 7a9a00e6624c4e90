package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
)

// ProviderError is a failure talking to the model backend: an HTTP error
// status, a network failure (Status 0) or a malformed response.
type ProviderError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
	}
	return "provider error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) *ProviderError {
	return &ProviderError{Message: "malformed response: " + fmt.Sprintf(format, args...)}
}

func invalidRequest(err error) *ProviderError {
	return &ProviderError{Message: "invalid request: " + err.Error(), Err: err}
}

// wrapError converts SDK and transport errors into *ProviderError. Context
// cancellation passes through untouched so callers can tell it apart.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &ProviderError{Status: apiErr.StatusCode, Message: msg, Err: err}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
