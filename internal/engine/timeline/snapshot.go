package timeline

import (
	"sort"

	"github.com/dshills/cutline/internal/engine/keyframe"
)

// State is a handle-free, comparable picture of a timeline.
// Two timelines that differ only in engine handles produce equal States.
type State struct {
	PlayheadMs int64
	Tracks     []TrackState
	Clips      []ClipState
	Markers    []Marker
}

// TrackState is the observable part of a track.
type TrackState struct {
	ID         ID
	Kind       TrackKind
	Index      int
	Name       string
	Enabled    bool
	Muted      bool
	Solo       bool
	Locked     bool
	ColorLabel string
	Height     int
}

// ClipState is the observable part of a clip.
type ClipState struct {
	ID                ID
	TrackID           ID
	SourcePath        string
	ProxyPath         string
	StartMs           int64
	DurationMs        int64
	SourceTrimStartMs int64
	ColorLabel        string
	LinkedAudio       ID
	LinkedVideo       ID
	Keyframes         [numProperties][]keyframe.Keyframe
}

// Snapshot captures the timeline's observable state.
// Clips are ordered by ID so arena order does not affect equality.
// Markers are ordered by time, then ID.
func (tl *Timeline) Snapshot() State {
	s := State{PlayheadMs: tl.playheadMs}
	for _, t := range tl.AllTracks() {
		s.Tracks = append(s.Tracks, TrackState{
			ID:         t.ID,
			Kind:       t.Kind,
			Index:      t.Index,
			Name:       t.Name,
			Enabled:    t.Enabled,
			Muted:      t.Muted,
			Solo:       t.Solo,
			Locked:     t.Locked,
			ColorLabel: t.ColorLabel,
			Height:     t.Height,
		})
	}
	for _, c := range tl.clips {
		cs := ClipState{
			ID:                c.ID,
			TrackID:           c.TrackID,
			SourcePath:        c.SourcePath,
			ProxyPath:         c.ProxyPath,
			StartMs:           c.StartMs,
			DurationMs:        c.DurationMs,
			SourceTrimStartMs: c.SourceTrimStartMs,
			ColorLabel:        c.ColorLabel,
			LinkedAudio:       c.LinkedAudio,
			LinkedVideo:       c.LinkedVideo,
		}
		for _, p := range Properties() {
			cs.Keyframes[p] = c.Curve(p).Keyframes()
		}
		s.Clips = append(s.Clips, cs)
	}
	sort.Slice(s.Clips, func(i, j int) bool { return s.Clips[i].ID < s.Clips[j].ID })
	for _, m := range tl.markers {
		s.Markers = append(s.Markers, *m)
	}
	// Markers sharing a time may sit in either order.
	sort.SliceStable(s.Markers, func(i, j int) bool {
		a, b := s.Markers[i], s.Markers[j]
		if a.TimeMs != b.TimeMs {
			return a.TimeMs < b.TimeMs
		}
		return a.ID < b.ID
	})
	return s
}
