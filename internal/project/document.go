package project

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/keyframe"
	"github.com/dshills/cutline/internal/engine/timeline"
)

// Version is the document format this package writes.
const Version = 1

// Document is the saved form of a timeline.
type Document struct {
	Version  int      `json:"version"`
	Settings Settings `json:"settings"`
	Tracks   []Track  `json:"tracks"`
	Clips    []Clip   `json:"clips"`
	Markers  []Marker `json:"markers"`
}

// Settings are the global project settings.
type Settings struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FPS             float64 `json:"fps"`
	SnapEnabled     bool    `json:"snapEnabled"`
	SnapThresholdMs int64   `json:"snapThresholdMs"`
	PlayheadMs      int64   `json:"playheadMs"`
	InPointMs       int64   `json:"inPointMs"`
	// OutPointMs is -1 when no out point is set.
	OutPointMs int64 `json:"outPointMs"`
}

// Track is a saved track. Tracks are listed video first, then audio, then
// subtitle, each kind in index order.
type Track struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Enabled    bool   `json:"enabled"`
	Muted      bool   `json:"muted"`
	Solo       bool   `json:"solo"`
	Locked     bool   `json:"locked"`
	ColorLabel string `json:"colorLabel,omitempty"`
	Height     int    `json:"height"`
}

// Clip is a saved clip.
type Clip struct {
	ID         string `json:"id"`
	SourcePath string `json:"sourcePath"`
	ProxyPath  string `json:"proxyPath,omitempty"`
	StartMs    int64  `json:"startTimeMs"`
	DurationMs int64  `json:"durationMs"`
	// TrackIndex is flattened across video, audio and subtitle tracks.
	TrackIndex        int                   `json:"trackIndex"`
	SourceTrimStartMs int64                 `json:"sourceTrimStartMs"`
	ColorLabel        string                `json:"colorLabel,omitempty"`
	LinkedAudio       string                `json:"linkedAudioClipId,omitempty"`
	LinkedVideo       string                `json:"linkedVideoClipId,omitempty"`
	Curves            map[string][]Keyframe `json:"keyframes"`
}

// Keyframe is a saved keyframe. Time is seconds from the clip start.
type Keyframe struct {
	ID            uint64   `json:"id,omitempty"`
	Time          float64  `json:"time"`
	Value         float64  `json:"value"`
	Interpolation string   `json:"interpolation"`
	InHandle      *Tangent `json:"inHandle,omitempty"`
	OutHandle     *Tangent `json:"outHandle,omitempty"`
}

// Tangent is a saved Bezier handle.
type Tangent struct {
	TimeOffset  float64 `json:"timeOffset"`
	ValueOffset float64 `json:"valueOffset"`
}

// Marker is a saved marker.
type Marker struct {
	ID               string `json:"id"`
	TimeMs           int64  `json:"timeMs"`
	Name             string `json:"name"`
	Comment          string `json:"comment,omitempty"`
	ColorLabel       string `json:"colorLabel,omitempty"`
	Kind             string `json:"kind"`
	RegionDurationMs int64  `json:"regionDurationMs,omitempty"`
}

// ============================================================================
// Timeline to document
// ============================================================================

// FromTimeline captures tl with the given settings. The playhead and the
// in and out points are taken from tl.
func FromTimeline(tl *timeline.Timeline, s Settings) *Document {
	doc := &Document{Version: Version, Settings: s}
	doc.Settings.PlayheadMs = tl.Playhead()
	doc.Settings.InPointMs, doc.Settings.OutPointMs = tl.InOut()

	flat := make(map[timeline.ID]int)
	for _, t := range tl.AllTracks() {
		flat[t.ID] = len(doc.Tracks)
		doc.Tracks = append(doc.Tracks, Track{
			ID:         string(t.ID),
			Kind:       t.Kind.String(),
			Name:       t.Name,
			Enabled:    t.Enabled,
			Muted:      t.Muted,
			Solo:       t.Solo,
			Locked:     t.Locked,
			ColorLabel: t.ColorLabel,
			Height:     t.Height,
		})
	}

	for _, c := range tl.Clips() {
		idx, ok := flat[c.TrackID]
		if !ok {
			idx = -1
		}
		doc.Clips = append(doc.Clips, Clip{
			ID:                string(c.ID),
			SourcePath:        c.SourcePath,
			ProxyPath:         c.ProxyPath,
			StartMs:           c.StartMs,
			DurationMs:        c.DurationMs,
			TrackIndex:        idx,
			SourceTrimStartMs: c.SourceTrimStartMs,
			ColorLabel:        c.ColorLabel,
			LinkedAudio:       string(c.LinkedAudio),
			LinkedVideo:       string(c.LinkedVideo),
			Curves:            curvesOf(c),
		})
	}

	for _, m := range tl.Markers() {
		doc.Markers = append(doc.Markers, Marker{
			ID:               string(m.ID),
			TimeMs:           m.TimeMs,
			Name:             m.Name,
			Comment:          m.Comment,
			ColorLabel:       m.ColorLabel,
			Kind:             m.Kind.String(),
			RegionDurationMs: m.RegionDurationMs,
		})
	}
	return doc
}

// curvesOf saves all six curves, empty ones included.
func curvesOf(c *timeline.Clip) map[string][]Keyframe {
	out := make(map[string][]Keyframe, len(timeline.Properties()))
	for _, p := range timeline.Properties() {
		keys := c.Curve(p).Keyframes()
		saved := make([]Keyframe, 0, len(keys))
		for _, k := range keys {
			saved = append(saved, Keyframe{
				ID:            uint64(k.ID),
				Time:          k.Time,
				Value:         k.Value,
				Interpolation: k.Interpolation.String(),
				InHandle:      tangentOf(k.InHandle),
				OutHandle:     tangentOf(k.OutHandle),
			})
		}
		out[p.String()] = saved
	}
	return out
}

func tangentOf(t *keyframe.Tangent) *Tangent {
	if t == nil {
		return nil
	}
	return &Tangent{TimeOffset: t.TimeOffset, ValueOffset: t.ValueOffset}
}

func (t *Tangent) tangent() *keyframe.Tangent {
	if t == nil {
		return nil
	}
	return &keyframe.Tangent{TimeOffset: t.TimeOffset, ValueOffset: t.ValueOffset}
}

// ============================================================================
// Document to timeline
// ============================================================================

// Check validates the document version.
func (d *Document) Check() error {
	if d.Version < 1 || d.Version > Version {
		return fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, d.Version, Version)
	}
	return nil
}

// Build reconstructs a timeline. Records without an ID get a fresh one.
// Engine handles on the result are all zero.
func (d *Document) Build() (*timeline.Timeline, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	tl := timeline.New()

	for i, rec := range d.Tracks {
		kind, ok := timeline.ParseTrackKind(rec.Kind)
		if !ok {
			return nil, &RecordError{Kind: "track", Index: i, Err: fmt.Errorf("%w: kind %q", ErrInvalidTrack, rec.Kind)}
		}
		t := timeline.NewTrack(kind, rec.Name)
		if rec.ID != "" {
			t.ID = timeline.ID(rec.ID)
		}
		t.Enabled = rec.Enabled
		t.Muted = rec.Muted
		t.Solo = rec.Solo
		t.Locked = rec.Locked
		t.ColorLabel = rec.ColorLabel
		if rec.Height > 0 {
			t.Height = rec.Height
		}
		if err := tl.AddTrack(t); err != nil {
			return nil, &RecordError{Kind: "track", Index: i, Err: err}
		}
	}

	// Flattened order is by kind, whatever order the records were in.
	counts := make(map[timeline.TrackKind]int)
	for _, kind := range timeline.Kinds() {
		counts[kind] = len(tl.Tracks(kind))
	}

	for i, rec := range d.Clips {
		c, err := rec.build(tl, counts)
		if err != nil {
			return nil, &RecordError{Kind: "clip", Index: i, Err: err}
		}
		if err := tl.AddClip(c); err != nil {
			return nil, &RecordError{Kind: "clip", Index: i, Err: err}
		}
	}

	for i, rec := range d.Markers {
		m := timeline.NewMarker(rec.TimeMs, rec.Name, timeline.ParseMarkerKind(rec.Kind))
		if rec.ID != "" {
			m.ID = timeline.ID(rec.ID)
		}
		m.Comment = rec.Comment
		m.ColorLabel = rec.ColorLabel
		m.RegionDurationMs = rec.RegionDurationMs
		if m.TimeMs < 0 || (m.Kind == timeline.Region && m.RegionDurationMs <= 0) {
			return nil, &RecordError{Kind: "marker", Index: i, Err: ErrInvalidMarker}
		}
		if err := tl.AddMarker(m); err != nil {
			return nil, &RecordError{Kind: "marker", Index: i, Err: err}
		}
	}

	tl.SetPlayhead(d.Settings.PlayheadMs)
	tl.SetInOut(d.Settings.InPointMs, d.Settings.OutPointMs)
	return tl, nil
}

func (rec Clip) build(tl *timeline.Timeline, counts map[timeline.TrackKind]int) (*timeline.Clip, error) {
	kind, local, ok := SplitIndex(counts, rec.TrackIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d tracks", ErrTrackIndex, rec.TrackIndex, len(tl.AllTracks()))
	}
	track := tl.TrackAt(kind, local)
	if rec.DurationMs <= 0 || rec.StartMs < 0 || rec.SourceTrimStartMs < 0 {
		return nil, fmt.Errorf("%w: start %d duration %d trim %d",
			ErrInvalidClip, rec.StartMs, rec.DurationMs, rec.SourceTrimStartMs)
	}

	c := timeline.NewClip(track.ID, rec.SourcePath, rec.StartMs, rec.DurationMs)
	if rec.ID != "" {
		c.ID = timeline.ID(rec.ID)
	}
	c.ProxyPath = rec.ProxyPath
	c.SourceTrimStartMs = rec.SourceTrimStartMs
	c.ColorLabel = rec.ColorLabel
	c.LinkedAudio = timeline.ID(rec.LinkedAudio)
	c.LinkedVideo = timeline.ID(rec.LinkedVideo)

	for name, keys := range rec.Curves {
		p, ok := timeline.ParseProperty(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown property %q", ErrInvalidClip, name)
		}
		c.SetCurve(p, buildCurve(keys))
	}
	return c, nil
}

func buildCurve(keys []Keyframe) *keyframe.Curve {
	curve := keyframe.NewCurve()
	for _, k := range keys {
		kf := keyframe.Keyframe{
			ID:            keyframe.ID(k.ID),
			Time:          k.Time,
			Value:         k.Value,
			Interpolation: keyframe.ParseInterpolation(k.Interpolation),
			InHandle:      k.InHandle.tangent(),
			OutHandle:     k.OutHandle.tangent(),
		}
		if curve.Restore(kf) {
			continue
		}
		// Missing or repeated ids get a fresh one.
		id := curve.Add(kf.Time, kf.Value, kf.Interpolation)
		curve.SetHandles(id, kf.InHandle, kf.OutHandle)
	}
	return curve
}

// FlatIndex returns the flattened index of a track of kind at local index,
// given the per-kind track counts.
func FlatIndex(counts map[timeline.TrackKind]int, kind timeline.TrackKind, local int) int {
	idx := 0
	for _, k := range timeline.Kinds() {
		if k == kind {
			return idx + local
		}
		idx += counts[k]
	}
	return -1
}

// SplitIndex maps a flattened index back to (kind, local index).
func SplitIndex(counts map[timeline.TrackKind]int, flat int) (timeline.TrackKind, int, bool) {
	if flat < 0 {
		return 0, 0, false
	}
	for _, k := range timeline.Kinds() {
		if flat < counts[k] {
			return k, flat, true
		}
		flat -= counts[k]
	}
	return 0, 0, false
}
