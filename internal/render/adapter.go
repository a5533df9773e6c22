package render

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/logging"
)

// ErrorHandler receives engine failures the adapter absorbed.
type ErrorHandler func(op string, err error)

// Adapter keeps an engine timeline consistent with the store.
//
// Every method is best effort. Failures are logged and passed to the
// ErrorHandler; they never abort the edit that triggered them, because the
// store is the ground truth for undo and redo. A removal of a handle the
// engine does not know is treated as success.
type Adapter struct {
	eng    Engine
	logger *slog.Logger
	onErr  ErrorHandler

	tl Handle

	// trackOf records the track handle each live clip handle was added
	// under, so a clip that changed tracks is removed from the right one.
	trackOf map[Handle]Handle

	width, height int
	fps           float64
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithErrorHandler sets the callback for absorbed engine failures.
func WithErrorHandler(h ErrorHandler) AdapterOption {
	return func(a *Adapter) {
		a.onErr = h
	}
}

// NewAdapter creates an adapter for an engine. A nil engine makes every
// call a no-op, which is how subtitle-only and offline sessions run.
func NewAdapter(eng Engine, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		eng:     eng,
		logger:  logging.Discard(),
		trackOf: make(map[Handle]Handle),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine returns the wrapped engine.
func (a *Adapter) Engine() Engine {
	return a.eng
}

// TimelineHandle returns the open engine timeline, or zero.
func (a *Adapter) TimelineHandle() Handle {
	return a.tl
}

func (a *Adapter) report(op string, err error) {
	a.logger.Warn("engine call failed", "op", op, "error", err)
	if a.onErr != nil {
		a.onErr(op, err)
	}
}

func (a *Adapter) active() bool {
	return a != nil && a.eng != nil && a.tl != 0
}

// ============================================================================
// Timeline lifecycle
// ============================================================================

// Open creates a fresh engine timeline, destroying any previous one.
// All handles issued before the call become meaningless.
func (a *Adapter) Open(width, height int, fps float64) error {
	if a == nil || a.eng == nil {
		return nil
	}
	a.Close()

	h, err := a.eng.CreateTimeline(width, height, fps)
	if err != nil {
		return fmt.Errorf("create engine timeline: %w", err)
	}
	a.tl = h
	a.width, a.height, a.fps = width, height, fps
	a.logger.Debug("engine timeline created", "handle", uint64(h), "width", width, "height", height, "fps", fps)
	return nil
}

// Close destroys the engine timeline.
func (a *Adapter) Close() {
	if !a.active() {
		return
	}
	if err := a.eng.DestroyTimeline(a.tl); err != nil && !errors.Is(err, ErrNotFound) {
		a.report("destroy-timeline", err)
	}
	a.tl = 0
	a.trackOf = make(map[Handle]Handle)
}

// Rebuild tears down the engine timeline and re-registers every track and
// clip of tl, reissuing all handles.
func (a *Adapter) Rebuild(tl *timeline.Timeline) error {
	if a == nil || a.eng == nil {
		return nil
	}
	for _, t := range tl.AllTracks() {
		t.Handle = 0
	}
	for _, c := range tl.Clips() {
		c.Handle = 0
	}
	if err := a.Open(a.width, a.height, a.fps); err != nil {
		return err
	}
	for _, t := range tl.AllTracks() {
		a.RegisterTrack(t)
	}
	for _, c := range tl.Clips() {
		a.SyncClip(tl, c)
	}
	return nil
}

// Configure records the timeline format used by the next Open or Rebuild.
func (a *Adapter) Configure(width, height int, fps float64) {
	a.width, a.height, a.fps = width, height, fps
}

// ============================================================================
// Tracks
// ============================================================================

// RegisterTrack creates the engine counterpart of a video or audio track.
// Subtitle tracks have no counterpart and keep a zero handle.
func (a *Adapter) RegisterTrack(t *timeline.Track) {
	if !a.active() || !t.Kind.HasEngineTrack() {
		return
	}
	h, err := a.eng.AddTrack(a.tl, t.Kind)
	if err != nil {
		a.report("add-track", err)
		return
	}
	t.Handle = h
}

// UnregisterTrack removes a track's engine counterpart.
func (a *Adapter) UnregisterTrack(t *timeline.Track) {
	if !a.active() || t.Handle == 0 {
		t.Handle = 0
		return
	}
	if err := a.eng.RemoveTrack(a.tl, t.Handle); err != nil && !errors.Is(err, ErrNotFound) {
		a.report("remove-track", err)
	}
	for clip, track := range a.trackOf {
		if track == t.Handle {
			delete(a.trackOf, clip)
		}
	}
	t.Handle = 0
}

// ============================================================================
// Clips
// ============================================================================

// SyncClip brings the engine in line with a clip's current placement.
//
// The sequence is: remove the current handle (not-found is success), add the
// clip with its start and duration, write the new handle into the clip, and
// set the source trim when the clip does not start at the head of its
// source. The sequence is not atomic.
func (a *Adapter) SyncClip(tl *timeline.Timeline, c *timeline.Clip) {
	if !a.active() {
		c.Handle = 0
		return
	}
	a.RemoveClip(tl, c)

	track := tl.TrackOf(c)
	if track == nil || !track.Kind.HasEngineTrack() {
		return
	}
	if track.Handle == 0 {
		a.report("add-clip", fmt.Errorf("clip %s: %w", c.ID, ErrTrackNotRegistered))
		return
	}

	h, err := a.eng.AddClip(a.tl, track.Handle, c.SourcePath, c.StartMs, c.DurationMs)
	if err != nil {
		a.report("add-clip", fmt.Errorf("clip %s: %w", c.ID, err))
		return
	}
	a.trackOf[h] = track.Handle
	c.Handle = h

	if c.SourceTrimStartMs > 0 {
		if err := a.eng.SetClipTrim(a.tl, track.Handle, h, c.SourceTrimStartMs, c.SourceEndMs()); err != nil {
			a.report("set-clip-trim", fmt.Errorf("clip %s: %w", c.ID, err))
		}
	}
}

// AddClip registers a clip that has no engine counterpart yet. A handle
// copied from another clip is dropped rather than removed.
func (a *Adapter) AddClip(tl *timeline.Timeline, c *timeline.Clip) {
	c.Handle = 0
	a.SyncClip(tl, c)
}

// RemoveClip drops a clip's engine counterpart and clears its handle.
// Clips that were never registered are ignored.
func (a *Adapter) RemoveClip(tl *timeline.Timeline, c *timeline.Clip) {
	old := c.Handle
	c.Handle = 0
	if !a.active() || old == 0 {
		return
	}

	trackHandle, ok := a.trackOf[old]
	if !ok {
		if t := tl.TrackOf(c); t != nil {
			trackHandle = t.Handle
		}
	}
	delete(a.trackOf, old)

	err := a.eng.RemoveClip(a.tl, trackHandle, old)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		a.logger.Debug("engine clip already gone", "clip", string(c.ID), "handle", uint64(old))
	default:
		a.report("remove-clip", fmt.Errorf("clip %s: %w", c.ID, err))
	}
}

// SyncClips syncs several clips in order.
func (a *Adapter) SyncClips(tl *timeline.Timeline, clips ...*timeline.Clip) {
	for _, c := range clips {
		a.SyncClip(tl, c)
	}
}

// ============================================================================
// Frames
// ============================================================================

// ClearCache tells the engine to drop cached frames. Called after every
// undo or redo batch so no frame keyed by a stale handle is shown.
func (a *Adapter) ClearCache() {
	if !a.active() {
		return
	}
	if err := a.eng.ClearCache(a.tl); err != nil {
		a.report("clear-cache", err)
	}
}

// RenderFrame renders the timeline at a timestamp.
func (a *Adapter) RenderFrame(timestampMs int64) (Frame, error) {
	if !a.active() {
		return Frame{}, ErrNoTimeline
	}
	return a.eng.RenderFrame(a.tl, timestampMs)
}
