package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/link"
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// AddClip places a new clip on its track.
type AddClip struct {
	clip *timeline.Clip
}

// NewAddClip creates an add of a copy of clip. The clip's TrackID and
// StartMs say where it goes.
func NewAddClip(clip *timeline.Clip) *AddClip {
	c := clip.Clone()
	if c.ID == "" {
		c.ID = timeline.NewID()
	}
	c.Handle = 0
	return &AddClip{clip: c}
}

// ClipID returns the ID the clip is stored under.
func (a *AddClip) ClipID() timeline.ID {
	return a.clip.ID
}

// Execute stores and registers the clip.
func (a *AddClip) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	if _, err := editableTrack(tl, a.clip.TrackID); err != nil {
		return err
	}
	if a.clip.DurationMs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, a.clip.DurationMs)
	}
	if a.clip.StartMs < 0 || a.clip.SourceTrimStartMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTime, a.clip.StartMs)
	}
	c := a.clip.Clone()
	if err := tl.AddClip(c); err != nil {
		return err
	}
	sy.AddClip(tl, c)
	return nil
}

// Undo removes the clip.
func (a *AddClip) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	removeClip(tl, sy, a.clip.ID)
	return nil
}

// Description implements history.Command.
func (a *AddClip) Description() string {
	return "Add Clip"
}

// Delete removes a clip, and its linked partner when WithLinked is set.
// Later clips do not move.
type Delete struct {
	ClipID     timeline.ID
	WithLinked bool

	gone []removed
}

// NewDelete creates a delete of clip.
func NewDelete(clip timeline.ID, withLinked bool) *Delete {
	return &Delete{ClipID: clip, WithLinked: withLinked}
}

// Execute removes the clips.
func (d *Delete) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := editableClip(tl, d.ClipID)
	if err != nil {
		return err
	}
	if !d.WithLinked {
		r, _ := removeClip(tl, sy, c.ID)
		d.gone = []removed{r}
		return nil
	}

	// The partner may sit on a locked track.
	for _, g := range link.New(tl).Group(c.ID) {
		if _, err := editableClip(tl, g.ID); err != nil {
			return err
		}
	}
	d.gone = nil
	for _, r := range link.New(tl).DeleteWithLinked(c.ID) {
		sy.RemoveClip(tl, r.Clip)
		d.gone = append(d.gone, removed{clip: r.Clip.Clone(), pos: r.Pos})
	}
	return nil
}

// Undo recreates the removed clips at their original positions.
func (d *Delete) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	return reinsert(tl, sy, d.gone)
}

// Description implements history.Command.
func (d *Delete) Description() string {
	return "Delete Clip"
}

// Move repositions a clip, optionally onto another track of the same kind.
// With WithLinked the partner moves by the same delta and stays on its own
// track. Overlaps are not checked.
type Move struct {
	ClipID     timeline.ID
	NewStartMs int64
	// TrackID is the destination track. Empty keeps the current track.
	TrackID    timeline.ID
	WithLinked bool

	before []saved
}

// NewMove creates a move of clip to newStartMs on its current track.
func NewMove(clip timeline.ID, newStartMs int64, withLinked bool) *Move {
	return &Move{ClipID: clip, NewStartMs: newStartMs, WithLinked: withLinked}
}

// Execute validates and applies the move.
func (m *Move) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := editableClip(tl, m.ClipID)
	if err != nil {
		return err
	}
	if m.NewStartMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTime, m.NewStartMs)
	}
	dest := c.TrackID
	if m.TrackID != "" && m.TrackID != c.TrackID {
		dst, err := editableTrack(tl, m.TrackID)
		if err != nil {
			return err
		}
		if src := tl.TrackOf(c); src != nil && src.Kind != dst.Kind {
			return fmt.Errorf("%w: %s to %s", ErrTrackKind, src.Kind, dst.Kind)
		}
		dest = dst.ID
	}

	delta := m.NewStartMs - c.StartMs
	lm := link.New(tl)
	group := []*timeline.Clip{c}
	if m.WithLinked {
		group = lm.Group(c.ID)
	}
	for _, g := range group[1:] {
		if _, err := editableClip(tl, g.ID); err != nil {
			return err
		}
		if g.StartMs+delta < 0 {
			return fmt.Errorf("%w: linked clip at %d", ErrInvalidTime, g.StartMs+delta)
		}
	}

	m.before = save(group...)
	c.TrackID = dest
	if m.WithLinked {
		lm.MoveWithLinked(c.ID, delta)
	} else {
		c.StartMs += delta
	}
	sy.SyncClips(tl, group...)
	return nil
}

// Undo restores the moved clips.
func (m *Move) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	restore(tl, sy, m.before)
	return nil
}

// Description implements history.Command.
func (m *Move) Description() string {
	return "Move Clip"
}

// SetClipColor changes a clip's colour label. It is presentational, so the
// engine is not involved and locked tracks are allowed.
type SetClipColor struct {
	ClipID timeline.ID
	Color  string

	old string
}

// NewSetClipColor creates a colour change.
func NewSetClipColor(clip timeline.ID, color string) *SetClipColor {
	return &SetClipColor{ClipID: clip, Color: color}
}

// Execute implements history.Command.
func (s *SetClipColor) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	c, err := findClip(tl, s.ClipID)
	if err != nil {
		return err
	}
	s.old = c.ColorLabel
	c.ColorLabel = s.Color
	return nil
}

// Undo implements history.Command.
func (s *SetClipColor) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	c, err := findClip(tl, s.ClipID)
	if err != nil {
		return err
	}
	c.ColorLabel = s.old
	return nil
}

// Description implements history.Command.
func (s *SetClipColor) Description() string {
	return "Set Clip Color"
}
