package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/keyframe"
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

func curveOf(tl *timeline.Timeline, clip timeline.ID, p timeline.Property) (*keyframe.Curve, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProperty, int(p))
	}
	c, err := editableClip(tl, clip)
	if err != nil {
		return nil, err
	}
	return c.Curve(p), nil
}

// AddKeyframe adds a keyframe to one property curve of a clip.
// Time is in seconds from the clip's start.
type AddKeyframe struct {
	ClipID        timeline.ID
	Property      timeline.Property
	Time          float64
	Value         float64
	Interpolation keyframe.Interpolation

	added keyframe.Keyframe
}

// NewAddKeyframe creates a keyframe add.
func NewAddKeyframe(clip timeline.ID, p timeline.Property, time, value float64, interp keyframe.Interpolation) *AddKeyframe {
	return &AddKeyframe{ClipID: clip, Property: p, Time: time, Value: value, Interpolation: interp}
}

// KeyframeID returns the ID of the added keyframe. It is zero until the
// first Execute.
func (a *AddKeyframe) KeyframeID() keyframe.ID {
	return a.added.ID
}

// Execute implements history.Command. Redo restores the keyframe under
// the ID it was first given.
func (a *AddKeyframe) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	curve, err := curveOf(tl, a.ClipID, a.Property)
	if err != nil {
		return err
	}
	if a.added.ID != 0 {
		curve.Restore(a.added)
		return nil
	}
	id := curve.Add(a.Time, a.Value, a.Interpolation)
	a.added, _ = curve.Get(id)
	return nil
}

// Undo implements history.Command.
func (a *AddKeyframe) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	curve, err := curveOf(tl, a.ClipID, a.Property)
	if err != nil {
		return err
	}
	curve.Remove(a.added.ID)
	return nil
}

// Description implements history.Command.
func (a *AddKeyframe) Description() string {
	return "Add Keyframe"
}

// RemoveKeyframe deletes a keyframe from a property curve.
type RemoveKeyframe struct {
	ClipID     timeline.ID
	Property   timeline.Property
	KeyframeID keyframe.ID

	old   keyframe.Keyframe
	index int
}

// NewRemoveKeyframe creates a keyframe removal.
func NewRemoveKeyframe(clip timeline.ID, p timeline.Property, id keyframe.ID) *RemoveKeyframe {
	return &RemoveKeyframe{ClipID: clip, Property: p, KeyframeID: id}
}

// Execute implements history.Command.
func (r *RemoveKeyframe) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	curve, err := curveOf(tl, r.ClipID, r.Property)
	if err != nil {
		return err
	}
	r.index = curve.Index(r.KeyframeID)
	if r.index < 0 {
		return fmt.Errorf("%w: %d", ErrKeyframeNotFound, r.KeyframeID)
	}
	r.old, _ = curve.Remove(r.KeyframeID)
	return nil
}

// Undo implements history.Command.
func (r *RemoveKeyframe) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	curve, err := curveOf(tl, r.ClipID, r.Property)
	if err != nil {
		return err
	}
	curve.RestoreAt(r.old, r.index)
	return nil
}

// Description implements history.Command.
func (r *RemoveKeyframe) Description() string {
	return "Remove Keyframe"
}

// MoveKeyframe changes a keyframe's time and value.
type MoveKeyframe struct {
	ClipID     timeline.ID
	Property   timeline.Property
	KeyframeID keyframe.ID
	Time       float64
	Value      float64

	old   keyframe.Keyframe
	index int
}

// NewMoveKeyframe creates a keyframe move.
func NewMoveKeyframe(clip timeline.ID, p timeline.Property, id keyframe.ID, time, value float64) *MoveKeyframe {
	return &MoveKeyframe{ClipID: clip, Property: p, KeyframeID: id, Time: time, Value: value}
}

// Execute implements history.Command.
func (m *MoveKeyframe) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	curve, err := curveOf(tl, m.ClipID, m.Property)
	if err != nil {
		return err
	}
	m.index = curve.Index(m.KeyframeID)
	if m.index < 0 {
		return fmt.Errorf("%w: %d", ErrKeyframeNotFound, m.KeyframeID)
	}
	m.old, _ = curve.Get(m.KeyframeID)
	curve.Update(m.KeyframeID, m.Time, m.Value)
	return nil
}

// Undo puts the keyframe back where it was in the list.
func (m *MoveKeyframe) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	curve, err := curveOf(tl, m.ClipID, m.Property)
	if err != nil {
		return err
	}
	curve.Remove(m.KeyframeID)
	curve.RestoreAt(m.old, m.index)
	return nil
}

// Description implements history.Command.
func (m *MoveKeyframe) Description() string {
	return "Move Keyframe"
}
