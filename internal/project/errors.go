package project

import (
	"errors"
	"fmt"
)

// Standard errors returned by the project package.
var (
	// ErrUnsupportedVersion indicates a document written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported document version")

	// ErrTrackIndex indicates a clip's flattened track index names no track.
	ErrTrackIndex = errors.New("track index out of range")

	// ErrInvalidTrack indicates a track record with an unknown kind.
	ErrInvalidTrack = errors.New("invalid track")

	// ErrInvalidClip indicates a clip record that breaks a clip invariant.
	ErrInvalidClip = errors.New("invalid clip")

	// ErrInvalidMarker indicates a marker record that breaks a marker invariant.
	ErrInvalidMarker = errors.New("invalid marker")
)

// PathError represents an error associated with a project file path.
type PathError struct {
	Op   string // Operation that failed (load, save)
	Path string // File path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a new PathError.
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// RecordError locates a failure to a record of the document.
type RecordError struct {
	Kind  string // track, clip, marker
	Index int    // Position in the document list
	Err   error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *RecordError) Unwrap() error {
	return e.Err
}
