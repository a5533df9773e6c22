package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

func validMarker(m timeline.Marker) error {
	if m.TimeMs < 0 {
		return fmt.Errorf("%w: marker at %d", ErrInvalidTime, m.TimeMs)
	}
	if m.Kind == timeline.Region && m.RegionDurationMs <= 0 {
		return fmt.Errorf("%w: region of %d ms", ErrInvalidDuration, m.RegionDurationMs)
	}
	return nil
}

// AddMarker places a marker on the ruler.
type AddMarker struct {
	marker timeline.Marker
}

// NewAddMarker creates an add of a copy of m.
func NewAddMarker(m *timeline.Marker) *AddMarker {
	a := &AddMarker{marker: *m}
	if a.marker.ID == "" {
		a.marker.ID = timeline.NewID()
	}
	return a
}

// MarkerID returns the ID the marker is stored under.
func (a *AddMarker) MarkerID() timeline.ID {
	return a.marker.ID
}

// Execute implements history.Command.
func (a *AddMarker) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	if err := validMarker(a.marker); err != nil {
		return err
	}
	m := a.marker
	return tl.AddMarker(&m)
}

// Undo implements history.Command.
func (a *AddMarker) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	tl.RemoveMarker(a.marker.ID)
	return nil
}

// Description implements history.Command.
func (a *AddMarker) Description() string {
	return "Add Marker"
}

// RemoveMarker deletes a marker.
type RemoveMarker struct {
	MarkerID timeline.ID

	old timeline.Marker
}

// NewRemoveMarker creates a removal of marker id.
func NewRemoveMarker(id timeline.ID) *RemoveMarker {
	return &RemoveMarker{MarkerID: id}
}

// Execute implements history.Command.
func (r *RemoveMarker) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	m, ok := tl.RemoveMarker(r.MarkerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMarkerNotFound, r.MarkerID)
	}
	r.old = *m
	return nil
}

// Undo implements history.Command.
func (r *RemoveMarker) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	m := r.old
	return tl.AddMarker(&m)
}

// Description implements history.Command.
func (r *RemoveMarker) Description() string {
	return "Remove Marker"
}

// UpdateMarker replaces every field of a marker except its ID.
type UpdateMarker struct {
	MarkerID timeline.ID
	Value    timeline.Marker

	old timeline.Marker
}

// NewUpdateMarker creates an update of marker id to value.
func NewUpdateMarker(id timeline.ID, value timeline.Marker) *UpdateMarker {
	return &UpdateMarker{MarkerID: id, Value: value}
}

// Execute implements history.Command.
func (u *UpdateMarker) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	m := tl.Marker(u.MarkerID)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMarkerNotFound, u.MarkerID)
	}
	next := u.Value
	next.ID = m.ID
	if err := validMarker(next); err != nil {
		return err
	}
	u.old = *m
	*m = next
	tl.ResortMarkers()
	return nil
}

// Undo implements history.Command.
func (u *UpdateMarker) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	m := tl.Marker(u.MarkerID)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrMarkerNotFound, u.MarkerID)
	}
	*m = u.old
	tl.ResortMarkers()
	return nil
}

// Description implements history.Command.
func (u *UpdateMarker) Description() string {
	return "Edit Marker"
}
