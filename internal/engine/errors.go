package engine

import "errors"

// Errors returned by Editor operations.
var (
	// ErrNoGesture indicates CommitGesture or CancelGesture ran with no
	// gesture open.
	ErrNoGesture = errors.New("no gesture in progress")

	// ErrNoVideoTrack indicates a clip was dropped with no video track to
	// receive it.
	ErrNoVideoTrack = errors.New("no video track")

	// ErrClosed indicates the editor was used after Close.
	ErrClosed = errors.New("editor is closed")
)
