package timeline

import (
	"github.com/google/uuid"

	"github.com/dshills/cutline/internal/engine/keyframe"
)

// ID is the stable local identity of a track, clip or marker.
// It is assigned at creation and survives every edit, undo and redo.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Handle is an opaque identifier issued by the rendering engine.
// Zero means the object is not registered with the engine.
type Handle uint64

// TrackKind is the media kind a track carries.
type TrackKind int

const (
	// Video tracks carry picture clips.
	Video TrackKind = iota
	// Audio tracks carry sound clips.
	Audio
	// Subtitle tracks have no engine counterpart.
	Subtitle
)

// trackKinds lists kinds in stacking and flattening order.
var trackKinds = [...]TrackKind{Video, Audio, Subtitle}

// Kinds returns the track kinds in flattening order.
func Kinds() []TrackKind {
	return trackKinds[:]
}

// String returns the kind name.
func (k TrackKind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Subtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// ParseTrackKind parses a name produced by String.
func ParseTrackKind(s string) (TrackKind, bool) {
	switch s {
	case "video":
		return Video, true
	case "audio":
		return Audio, true
	case "subtitle":
		return Subtitle, true
	default:
		return Video, false
	}
}

// HasEngineTrack returns true if tracks of this kind exist in the engine.
func (k TrackKind) HasEngineTrack() bool {
	return k == Video || k == Audio
}

// Track is a horizontal lane of clips.
type Track struct {
	ID     ID
	Handle Handle
	// Index is the dense position within the track's kind, maintained by the store.
	Index      int
	Kind       TrackKind
	Name       string
	Enabled    bool
	Muted      bool
	Solo       bool
	Locked     bool
	ColorLabel string
	Height     int
}

// NewTrack creates an enabled track with a fresh ID.
func NewTrack(kind TrackKind, name string) *Track {
	return &Track{
		ID:      NewID(),
		Kind:    kind,
		Name:    name,
		Enabled: true,
		Height:  DefaultTrackHeight,
	}
}

// DefaultTrackHeight is the display height given to new tracks.
const DefaultTrackHeight = 60

// Property names an animatable clip property.
type Property int

const (
	Opacity Property = iota
	Volume
	PositionX
	PositionY
	Scale
	Rotation

	numProperties
)

// Properties returns every animatable property.
func Properties() []Property {
	return []Property{Opacity, Volume, PositionX, PositionY, Scale, Rotation}
}

// String returns the property name.
func (p Property) String() string {
	switch p {
	case Opacity:
		return "opacity"
	case Volume:
		return "volume"
	case PositionX:
		return "positionX"
	case PositionY:
		return "positionY"
	case Scale:
		return "scale"
	case Rotation:
		return "rotation"
	default:
		return "unknown"
	}
}

// ParseProperty parses a name produced by String.
func ParseProperty(s string) (Property, bool) {
	for _, p := range Properties() {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// Valid returns true for a known property.
func (p Property) Valid() bool {
	return p >= Opacity && p < numProperties
}

// Clip is a placed instance of a media source on a track.
type Clip struct {
	ID ID
	// Handle is reissued by the engine on every structural change.
	Handle            Handle
	TrackID           ID
	SourcePath        string
	ProxyPath         string
	StartMs           int64
	DurationMs        int64
	SourceTrimStartMs int64
	ColorLabel        string
	LinkedAudio       ID
	LinkedVideo       ID

	curves [numProperties]*keyframe.Curve
}

// NewClip creates a clip with a fresh ID and empty curves.
func NewClip(trackID ID, sourcePath string, startMs, durationMs int64) *Clip {
	c := &Clip{
		ID:         NewID(),
		TrackID:    trackID,
		SourcePath: sourcePath,
		StartMs:    startMs,
		DurationMs: durationMs,
	}
	c.initCurves()
	return c
}

func (c *Clip) initCurves() {
	for i := range c.curves {
		if c.curves[i] == nil {
			c.curves[i] = keyframe.NewCurve()
		}
	}
}

// EndMs returns the exclusive end time.
func (c *Clip) EndMs() int64 {
	return c.StartMs + c.DurationMs
}

// SourceEndMs returns the exclusive end of the presented source range.
func (c *Clip) SourceEndMs() int64 {
	return c.SourceTrimStartMs + c.DurationMs
}

// IsLinked returns true if the clip has a partner.
func (c *Clip) IsLinked() bool {
	return c.LinkedAudio != "" || c.LinkedVideo != ""
}

// Partner returns the ID of the linked clip, if any.
func (c *Clip) Partner() ID {
	if c.LinkedAudio != "" {
		return c.LinkedAudio
	}
	return c.LinkedVideo
}

// Contains returns true if t falls strictly inside the clip.
func (c *Clip) Contains(t int64) bool {
	return t > c.StartMs && t < c.EndMs()
}

// Overlaps returns true if the clip intersects [start, end).
func (c *Clip) Overlaps(start, end int64) bool {
	return c.StartMs < end && start < c.EndMs()
}

// Curve returns the animation curve for a property.
func (c *Clip) Curve(p Property) *keyframe.Curve {
	if !p.Valid() {
		return nil
	}
	c.initCurves()
	return c.curves[p]
}

// SetCurve replaces the curve for a property.
func (c *Clip) SetCurve(p Property, curve *keyframe.Curve) {
	if !p.Valid() {
		return
	}
	if curve == nil {
		curve = keyframe.NewCurve()
	}
	c.curves[p] = curve
}

// Clone returns a deep copy of the clip, curves included.
func (c *Clip) Clone() *Clip {
	cl := *c
	for i, curve := range c.curves {
		if curve != nil {
			cl.curves[i] = curve.Clone()
		}
	}
	cl.initCurves()
	return &cl
}

// MarkerKind classifies a marker.
type MarkerKind int

const (
	// Comment markers annotate a point.
	Comment MarkerKind = iota
	// Chapter markers delimit navigation chapters.
	Chapter
	// Region markers span a duration.
	Region
)

// String returns the marker kind name.
func (k MarkerKind) String() string {
	switch k {
	case Comment:
		return "comment"
	case Chapter:
		return "chapter"
	case Region:
		return "region"
	default:
		return "unknown"
	}
}

// ParseMarkerKind parses a name produced by String.
func ParseMarkerKind(s string) MarkerKind {
	switch s {
	case "chapter":
		return Chapter
	case "region":
		return Region
	default:
		return Comment
	}
}

// Marker is a named point or region on the timeline ruler.
type Marker struct {
	ID               ID
	TimeMs           int64
	Name             string
	Comment          string
	ColorLabel       string
	Kind             MarkerKind
	RegionDurationMs int64
}

// NewMarker creates a marker with a fresh ID.
func NewMarker(timeMs int64, name string, kind MarkerKind) *Marker {
	return &Marker{ID: NewID(), TimeMs: timeMs, Name: name, Kind: kind}
}

// EndMs returns the end of a region marker, or TimeMs for point markers.
func (m *Marker) EndMs() int64 {
	if m.Kind != Region {
		return m.TimeMs
	}
	return m.TimeMs + m.RegionDurationMs
}
