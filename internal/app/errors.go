package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrUnknownCommand indicates a script line names no known command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage indicates a command was given the wrong arguments.
	ErrUsage = errors.New("wrong arguments")

	// ErrUnknownRef indicates a reference resolves to nothing.
	ErrUnknownRef = errors.New("unknown reference")

	// ErrAmbiguousRef indicates an ID prefix matches more than one record.
	ErrAmbiguousRef = errors.New("ambiguous reference")

	// ErrNoAutosave indicates a save was requested without a revision store.
	ErrNoAutosave = errors.New("autosave not enabled")
)

// OperationError is a failure of a named operation on a target.
type OperationError struct {
	Op     string // e.g. "open", "save", "autosave"
	Target string // file path or project name
	Err    error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ScriptError locates a failing script line.
type ScriptError struct {
	Line    int
	Command string
	Err     error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Command, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
