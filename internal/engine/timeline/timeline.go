// Package timeline holds the in-memory model of a multi-track edit.
//
// The Timeline is pure bookkeeping: tracks grouped by kind, an arena of
// clips keyed by their stable ID, and a time-sorted marker list. It does not
// talk to the rendering engine and does not reject overlapping clips; the
// edit algorithms decide whether to refuse or ripple.
//
// All relations between records are stored as IDs and resolved through the
// Timeline, so no record ever holds a pointer to another.
//
// The Timeline is not safe for concurrent mutation. All writes happen on one
// goroutine.
package timeline

import (
	"errors"
	"sort"
)

// Errors returned by store operations.
var (
	// ErrDuplicateID indicates a record with the same ID is already stored.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownTrack indicates a clip references a track that is not stored.
	ErrUnknownTrack = errors.New("unknown track")
)

// Timeline is the in-memory edit model.
type Timeline struct {
	tracks [len(trackKinds)][]*Track

	clips []*Clip
	byID  map[ID]*Clip

	markers []*Marker

	playheadMs int64
	inPointMs  int64
	outPointMs int64
}

// New creates an empty timeline.
func New() *Timeline {
	return &Timeline{
		byID:       make(map[ID]*Clip),
		outPointMs: -1,
	}
}

// ============================================================================
// Transport
// ============================================================================

// Playhead returns the playhead position.
func (tl *Timeline) Playhead() int64 {
	return tl.playheadMs
}

// SetPlayhead moves the playhead. Negative values clamp to zero.
func (tl *Timeline) SetPlayhead(ms int64) {
	if ms < 0 {
		ms = 0
	}
	tl.playheadMs = ms
}

// InOut returns the in and out points. An out point of -1 means unset.
func (tl *Timeline) InOut() (in, out int64) {
	return tl.inPointMs, tl.outPointMs
}

// SetInOut sets the in and out points.
func (tl *Timeline) SetInOut(in, out int64) {
	tl.inPointMs, tl.outPointMs = in, out
}

// Duration returns the end of the last clip on any track.
func (tl *Timeline) Duration() int64 {
	var end int64
	for _, c := range tl.clips {
		if e := c.EndMs(); e > end {
			end = e
		}
	}
	return end
}

// ============================================================================
// Tracks
// ============================================================================

// AddTrack appends a track to the end of its kind's list.
func (tl *Timeline) AddTrack(t *Track) error {
	return tl.InsertTrack(t, len(tl.tracks[t.Kind]))
}

// InsertTrack places a track at index within its kind's list.
// Out-of-range indexes clamp to the ends.
func (tl *Timeline) InsertTrack(t *Track, index int) error {
	if tl.Track(t.ID) != nil {
		return ErrDuplicateID
	}
	list := tl.tracks[t.Kind]
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	list = append(list, nil)
	copy(list[index+1:], list[index:])
	list[index] = t
	tl.tracks[t.Kind] = list
	tl.renumber(t.Kind)
	return nil
}

// RemoveTrack deletes a track and renumbers the remaining tracks of its kind.
// Clips on the track are left in place; callers remove them first.
func (tl *Timeline) RemoveTrack(id ID) (*Track, bool) {
	for _, kind := range trackKinds {
		list := tl.tracks[kind]
		for i, t := range list {
			if t.ID != id {
				continue
			}
			tl.tracks[kind] = append(list[:i], list[i+1:]...)
			tl.renumber(kind)
			return t, true
		}
	}
	return nil, false
}

func (tl *Timeline) renumber(kind TrackKind) {
	for i, t := range tl.tracks[kind] {
		t.Index = i
	}
}

// Track returns the track with the given ID, or nil.
func (tl *Timeline) Track(id ID) *Track {
	for _, kind := range trackKinds {
		for _, t := range tl.tracks[kind] {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// TrackAt returns the track at index within kind, or nil.
func (tl *Timeline) TrackAt(kind TrackKind, index int) *Track {
	list := tl.tracks[kind]
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

// Tracks returns the tracks of one kind in index order.
func (tl *Timeline) Tracks(kind TrackKind) []*Track {
	out := make([]*Track, len(tl.tracks[kind]))
	copy(out, tl.tracks[kind])
	return out
}

// AllTracks returns every track: video, then audio, then subtitle.
func (tl *Timeline) AllTracks() []*Track {
	var out []*Track
	for _, kind := range trackKinds {
		out = append(out, tl.tracks[kind]...)
	}
	return out
}

// TrackOf returns the track a clip sits on, or nil.
func (tl *Timeline) TrackOf(c *Clip) *Track {
	return tl.Track(c.TrackID)
}

// TrackIndex returns the per-kind index of the clip's track, or -1.
func (tl *Timeline) TrackIndex(c *Clip) int {
	if t := tl.TrackOf(c); t != nil {
		return t.Index
	}
	return -1
}

// ============================================================================
// Clips
// ============================================================================

// AddClip appends a clip to the arena.
func (tl *Timeline) AddClip(c *Clip) error {
	return tl.InsertClip(c, len(tl.clips))
}

// InsertClip places a clip at pos in the arena so that undo can restore
// iteration order exactly.
func (tl *Timeline) InsertClip(c *Clip, pos int) error {
	if _, ok := tl.byID[c.ID]; ok {
		return ErrDuplicateID
	}
	if tl.Track(c.TrackID) == nil {
		return ErrUnknownTrack
	}
	c.initCurves()
	if pos < 0 {
		pos = 0
	}
	if pos > len(tl.clips) {
		pos = len(tl.clips)
	}
	tl.clips = append(tl.clips, nil)
	copy(tl.clips[pos+1:], tl.clips[pos:])
	tl.clips[pos] = c
	tl.byID[c.ID] = c
	return nil
}

// RemoveClip deletes a clip and returns it with its arena position.
// The position is -1 if the clip was not found.
func (tl *Timeline) RemoveClip(id ID) (*Clip, int) {
	c, ok := tl.byID[id]
	if !ok {
		return nil, -1
	}
	pos := tl.clipPos(id)
	tl.clips = append(tl.clips[:pos], tl.clips[pos+1:]...)
	delete(tl.byID, id)
	return c, pos
}

func (tl *Timeline) clipPos(id ID) int {
	for i, c := range tl.clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Clip returns the clip with the given ID, or nil.
func (tl *Timeline) Clip(id ID) *Clip {
	if id == "" {
		return nil
	}
	return tl.byID[id]
}

// ClipByHandle returns the clip currently registered under an engine handle.
func (tl *Timeline) ClipByHandle(h Handle) *Clip {
	if h == 0 {
		return nil
	}
	for _, c := range tl.clips {
		if c.Handle == h {
			return c
		}
	}
	return nil
}

// Clips returns every clip in arena order.
func (tl *Timeline) Clips() []*Clip {
	out := make([]*Clip, len(tl.clips))
	copy(out, tl.clips)
	return out
}

// ClipCount returns the number of clips.
func (tl *Timeline) ClipCount() int {
	return len(tl.clips)
}

// ClipsOnTrack returns the clips on a track sorted by start time.
func (tl *Timeline) ClipsOnTrack(trackID ID) []*Clip {
	var out []*Clip
	for _, c := range tl.clips {
		if c.TrackID == trackID {
			out = append(out, c)
		}
	}
	sortByStart(out)
	return out
}

// ClipsOverlapping returns clips on a track intersecting [startMs, endMs).
func (tl *Timeline) ClipsOverlapping(trackID ID, startMs, endMs int64) []*Clip {
	var out []*Clip
	for _, c := range tl.clips {
		if c.TrackID == trackID && c.Overlaps(startMs, endMs) {
			out = append(out, c)
		}
	}
	sortByStart(out)
	return out
}

// ClipsAfter returns clips on a track starting at or after timeMs.
func (tl *Timeline) ClipsAfter(trackID ID, timeMs int64) []*Clip {
	var out []*Clip
	for _, c := range tl.clips {
		if c.TrackID == trackID && c.StartMs >= timeMs {
			out = append(out, c)
		}
	}
	sortByStart(out)
	return out
}

// ClipsAt returns every clip, on any track, that strictly contains timeMs.
func (tl *Timeline) ClipsAt(timeMs int64) []*Clip {
	var out []*Clip
	for _, c := range tl.clips {
		if c.Contains(timeMs) {
			out = append(out, c)
		}
	}
	return out
}

// TrackEnd returns the end of the last clip on a track.
func (tl *Timeline) TrackEnd(trackID ID) int64 {
	var end int64
	for _, c := range tl.clips {
		if c.TrackID == trackID && c.EndMs() > end {
			end = c.EndMs()
		}
	}
	return end
}

func sortByStart(clips []*Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartMs < clips[j].StartMs
	})
}

// ============================================================================
// Markers
// ============================================================================

// AddMarker inserts a marker keeping the list sorted by time.
func (tl *Timeline) AddMarker(m *Marker) error {
	if tl.Marker(m.ID) != nil {
		return ErrDuplicateID
	}
	tl.markers = append(tl.markers, m)
	tl.sortMarkers()
	return nil
}

// RemoveMarker deletes a marker.
func (tl *Timeline) RemoveMarker(id ID) (*Marker, bool) {
	for i, m := range tl.markers {
		if m.ID == id {
			tl.markers = append(tl.markers[:i], tl.markers[i+1:]...)
			return m, true
		}
	}
	return nil, false
}

// Marker returns the marker with the given ID, or nil.
func (tl *Timeline) Marker(id ID) *Marker {
	for _, m := range tl.markers {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Markers returns every marker sorted by time.
func (tl *Timeline) Markers() []*Marker {
	out := make([]*Marker, len(tl.markers))
	copy(out, tl.markers)
	return out
}

// ResortMarkers restores time order after a marker's time was changed in place.
func (tl *Timeline) ResortMarkers() {
	tl.sortMarkers()
}

func (tl *Timeline) sortMarkers() {
	sort.SliceStable(tl.markers, func(i, j int) bool {
		return tl.markers[i].TimeMs < tl.markers[j].TimeMs
	})
}
