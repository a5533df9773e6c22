package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// RippleDelete removes a clip and closes the gap: every clip on the same
// track starting at or after the removed clip's end moves left by its
// duration.
type RippleDelete struct {
	ClipID timeline.ID

	gone    removed
	shifted []saved
}

// NewRippleDelete creates a ripple delete of clip.
func NewRippleDelete(clip timeline.ID) *RippleDelete {
	return &RippleDelete{ClipID: clip}
}

// Execute removes the clip and shifts the later clips.
func (r *RippleDelete) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := editableClip(tl, r.ClipID)
	if err != nil {
		return err
	}
	dur := c.DurationMs
	later := without(tl.ClipsAfter(c.TrackID, c.EndMs()), c.ID)
	r.shifted = save(later...)

	r.gone, _ = removeClip(tl, sy, c.ID)
	shiftClips(tl, sy, later, -dur)
	return nil
}

// Undo moves the shifted clips back and recreates the deleted clip under
// its original ID. The engine issues it a fresh handle.
func (r *RippleDelete) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	restore(tl, sy, r.shifted)
	return reinsert(tl, sy, []removed{r.gone})
}

// Description implements history.Command.
func (r *RippleDelete) Description() string {
	return "Ripple Delete"
}

// RippleMove moves a clip to a new start and shifts every clip that
// started at or after its old end by the same delta.
type RippleMove struct {
	ClipID     timeline.ID
	NewStartMs int64

	before []saved
}

// NewRippleMove creates a ripple move of clip to newStartMs.
func NewRippleMove(clip timeline.ID, newStartMs int64) *RippleMove {
	return &RippleMove{ClipID: clip, NewStartMs: newStartMs}
}

// Execute moves the clip and its followers.
func (r *RippleMove) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := editableClip(tl, r.ClipID)
	if err != nil {
		return err
	}
	if r.NewStartMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTime, r.NewStartMs)
	}
	delta := r.NewStartMs - c.StartMs
	moved := append([]*timeline.Clip{c}, without(tl.ClipsAfter(c.TrackID, c.EndMs()), c.ID)...)
	r.before = save(moved...)
	shiftClips(tl, sy, moved, delta)
	return nil
}

// Undo restores every moved clip.
func (r *RippleMove) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	restore(tl, sy, r.before)
	return nil
}

// Description implements history.Command.
func (r *RippleMove) Description() string {
	return "Ripple Move"
}

// RippleInsert places a clip on a track at AtMs after shifting every clip on
// that track starting at or after AtMs right by the new clip's duration.
type RippleInsert struct {
	TrackID timeline.ID
	AtMs    int64

	clip    *timeline.Clip
	shifted []saved
}

// NewRippleInsert creates a ripple insert of clip. The clip's track and
// start are overwritten with trackID and atMs.
func NewRippleInsert(clip *timeline.Clip, trackID timeline.ID, atMs int64) *RippleInsert {
	c := clip.Clone()
	if c.ID == "" {
		c.ID = timeline.NewID()
	}
	c.Handle = 0
	c.TrackID = trackID
	c.StartMs = atMs
	return &RippleInsert{TrackID: trackID, AtMs: atMs, clip: c}
}

// ClipID returns the ID of the inserted clip.
func (r *RippleInsert) ClipID() timeline.ID {
	return r.clip.ID
}

// Execute shifts the track and places the clip.
func (r *RippleInsert) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	if _, err := editableTrack(tl, r.TrackID); err != nil {
		return err
	}
	if r.AtMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTime, r.AtMs)
	}
	if r.clip.DurationMs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, r.clip.DurationMs)
	}
	later := tl.ClipsAfter(r.TrackID, r.AtMs)
	c := r.clip.Clone()
	if err := tl.AddClip(c); err != nil {
		return err
	}
	r.shifted = save(later...)
	shiftClips(tl, sy, later, c.DurationMs)
	sy.AddClip(tl, c)
	return nil
}

// Undo removes the clip and shifts the track back.
func (r *RippleInsert) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	removeClip(tl, sy, r.clip.ID)
	restore(tl, sy, r.shifted)
	return nil
}

// Description implements history.Command.
func (r *RippleInsert) Description() string {
	return "Ripple Insert"
}
