// Package render is the boundary to the external rendering engine.
//
// The engine owns decoding, compositing and the frame cache. It does not
// support in-place changes to a clip: every structural change is a remove
// followed by an add, and each add issues a new opaque handle. Handles are
// meaningful only within one engine timeline; tearing the timeline down
// invalidates all of them.
//
// Engine is the contract the engine exposes. Adapter translates timeline
// edits into Engine calls and writes reissued handles back into the store.
// MemoryEngine is an in-process implementation used for headless runs and
// tests.
package render

import (
	"errors"

	"github.com/dshills/cutline/internal/engine/timeline"
)

// Handle is an opaque engine identifier.
type Handle = timeline.Handle

// Errors reported by engines and the adapter.
var (
	// ErrNotFound is returned by an engine when a handle is not registered.
	ErrNotFound = errors.New("handle not registered with engine")

	// ErrNoTimeline indicates the adapter has not opened an engine timeline.
	ErrNoTimeline = errors.New("engine timeline not open")

	// ErrTrackNotRegistered indicates a clip's track has no engine handle.
	ErrTrackNotRegistered = errors.New("track not registered with engine")
)

// Frame is a rendered picture.
type Frame struct {
	TimestampMs int64
	Width       int
	Height      int
	// Pixels holds RGBA bytes, row-major.
	Pixels []byte
}

// Engine is the narrow contract consumed from the rendering engine.
// Calls are synchronous and short; there is no cancellation.
type Engine interface {
	// CreateTimeline allocates an engine timeline.
	CreateTimeline(width, height int, fps float64) (Handle, error)

	// DestroyTimeline releases a timeline and every handle issued under it.
	DestroyTimeline(tl Handle) error

	// AddTrack creates a video or audio track.
	AddTrack(tl Handle, kind timeline.TrackKind) (Handle, error)

	// RemoveTrack deletes a track and its clips.
	RemoveTrack(tl, track Handle) error

	// AddClip places a source file on a track and returns a new clip handle.
	AddClip(tl, track Handle, path string, startMs, durationMs int64) (Handle, error)

	// RemoveClip deletes a clip. Returns ErrNotFound for unknown handles.
	RemoveClip(tl, track, clip Handle) error

	// SetClipTrim sets the absolute source range a clip presents.
	SetClipTrim(tl, track, clip Handle, trimStartMs, trimEndMs int64) error

	// ClearCache drops every cached frame for a timeline.
	ClearCache(tl Handle) error

	// RenderFrame composites the timeline at a timestamp.
	RenderFrame(tl Handle, timestampMs int64) (Frame, error)
}
