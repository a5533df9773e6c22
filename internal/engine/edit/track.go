package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// AddTrack inserts a new track.
type AddTrack struct {
	// Index is the position within the track's kind. Negative appends.
	Index int

	track timeline.Track
}

// NewAddTrack creates an add of a track of kind named name.
func NewAddTrack(kind timeline.TrackKind, name string, index int) *AddTrack {
	return &AddTrack{Index: index, track: *timeline.NewTrack(kind, name)}
}

// TrackID returns the ID of the new track.
func (a *AddTrack) TrackID() timeline.ID {
	return a.track.ID
}

// Execute stores the track and registers it with the engine.
func (a *AddTrack) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	t := a.track
	t.Handle = 0
	index := a.Index
	if index < 0 {
		index = len(tl.Tracks(t.Kind))
	}
	if err := tl.InsertTrack(&t, index); err != nil {
		return err
	}
	sy.RegisterTrack(&t)
	return nil
}

// Undo unregisters and removes the track.
func (a *AddTrack) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	t := tl.Track(a.track.ID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, a.track.ID)
	}
	sy.UnregisterTrack(t)
	tl.RemoveTrack(t.ID)
	return nil
}

// Description implements history.Command.
func (a *AddTrack) Description() string {
	return "Add Track"
}

// RemoveTrack deletes a track together with its clips. The remaining
// tracks of its kind are renumbered.
type RemoveTrack struct {
	TrackID timeline.ID

	track timeline.Track
	gone  []removed
}

// NewRemoveTrack creates a removal of track.
func NewRemoveTrack(track timeline.ID) *RemoveTrack {
	return &RemoveTrack{TrackID: track}
}

// Execute removes the track's clips, then the track.
func (r *RemoveTrack) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	t := tl.Track(r.TrackID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, r.TrackID)
	}
	r.gone = nil
	for _, c := range tl.ClipsOnTrack(t.ID) {
		if g, ok := removeClip(tl, sy, c.ID); ok {
			r.gone = append(r.gone, g)
		}
	}
	sy.UnregisterTrack(t)
	tl.RemoveTrack(t.ID)
	r.track = *t
	return nil
}

// Undo reinserts the track at its old index and recreates its clips.
func (r *RemoveTrack) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	t := r.track
	t.Handle = 0
	if err := tl.InsertTrack(&t, t.Index); err != nil {
		return err
	}
	sy.RegisterTrack(&t)
	return reinsert(tl, sy, r.gone)
}

// Description implements history.Command.
func (r *RemoveTrack) Description() string {
	return "Remove Track"
}

// TrackProps are the presentational fields of a track.
type TrackProps struct {
	Name       string
	Enabled    bool
	Muted      bool
	Solo       bool
	Locked     bool
	ColorLabel string
	Height     int
}

// PropsOf returns a track's current presentational fields.
func PropsOf(t *timeline.Track) TrackProps {
	return TrackProps{
		Name:       t.Name,
		Enabled:    t.Enabled,
		Muted:      t.Muted,
		Solo:       t.Solo,
		Locked:     t.Locked,
		ColorLabel: t.ColorLabel,
		Height:     t.Height,
	}
}

func (p TrackProps) apply(t *timeline.Track) {
	t.Name = p.Name
	t.Enabled = p.Enabled
	t.Muted = p.Muted
	t.Solo = p.Solo
	t.Locked = p.Locked
	t.ColorLabel = p.ColorLabel
	t.Height = p.Height
}

// SetTrackProps replaces a track's presentational fields in place.
// Locked tracks are accepted so they can be unlocked.
type SetTrackProps struct {
	TrackID timeline.ID
	Props   TrackProps

	old TrackProps
}

// NewSetTrackProps creates a track state change.
func NewSetTrackProps(track timeline.ID, props TrackProps) *SetTrackProps {
	return &SetTrackProps{TrackID: track, Props: props}
}

// Execute implements history.Command.
func (s *SetTrackProps) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	t := tl.Track(s.TrackID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, s.TrackID)
	}
	if s.Props.Height <= 0 {
		s.Props.Height = timeline.DefaultTrackHeight
	}
	s.old = PropsOf(t)
	s.Props.apply(t)
	return nil
}

// Undo implements history.Command.
func (s *SetTrackProps) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	t := tl.Track(s.TrackID)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, s.TrackID)
	}
	s.old.apply(t)
	return nil
}

// Description implements history.Command.
func (s *SetTrackProps) Description() string {
	return "Change Track"
}
