package config

import (
	"fmt"
	"strings"
)

// Error is a configuration error: a missing or invalid environment option.
// It is always reported before any model request is made.
type Error struct {
	Provider Provider
	Missing  []string
	Err      error
}

func (e *Error) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: missing required environment variables for %s provider: %s",
			e.Provider, strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		return "configuration error: " + e.Err.Error()
	}
	return "configuration error"
}

func (e *Error) Unwrap() error {
	return e.Err
}
