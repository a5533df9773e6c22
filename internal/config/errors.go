package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed is wrapped by every validation error.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError describes one invalid setting.
type ValidationError struct {
	// Path is the dotted setting path, e.g. "timeline.fps".
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ValidationErrors collects every invalid setting found in one pass.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (es ValidationErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
