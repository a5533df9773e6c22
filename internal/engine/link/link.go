// Package link maintains the 1:1 association between video and audio clips.
//
// A link is direction-typed: the video clip stores its partner in
// LinkedAudio and the audio clip stores its partner in LinkedVideo. Pointers
// are stable clip IDs resolved through the timeline, so a reissued engine
// handle never invalidates a link.
package link

import (
	"errors"

	"github.com/dshills/cutline/internal/engine/timeline"
)

// Errors returned by link operations.
var (
	// ErrSelfLink indicates an attempt to link a clip to itself.
	ErrSelfLink = errors.New("cannot link a clip to itself")

	// ErrClipNotFound indicates a clip id did not resolve.
	ErrClipNotFound = errors.New("clip not found")
)

// Manager links, unlinks and propagates edits across linked pairs.
type Manager struct {
	tl *timeline.Timeline
}

// New creates a manager over a timeline.
func New(tl *timeline.Timeline) *Manager {
	return &Manager{tl: tl}
}

// Roles orders two clips as (video, audio).
// A clip on an audio track plays the audio role; otherwise the first
// argument is treated as video.
func (m *Manager) Roles(a, b *timeline.Clip) (video, audio *timeline.Clip) {
	if m.kindOf(a) == timeline.Audio && m.kindOf(b) != timeline.Audio {
		return b, a
	}
	return a, b
}

func (m *Manager) kindOf(c *timeline.Clip) timeline.TrackKind {
	if t := m.tl.TrackOf(c); t != nil {
		return t.Kind
	}
	return timeline.Video
}

// Link pairs two clips, first unlinking each from any previous partner.
func (m *Manager) Link(aID, bID timeline.ID) error {
	if aID == bID {
		return ErrSelfLink
	}
	a, b := m.tl.Clip(aID), m.tl.Clip(bID)
	if a == nil || b == nil {
		return ErrClipNotFound
	}

	m.Unlink(a.ID)
	m.Unlink(b.ID)

	video, audio := m.Roles(a, b)
	video.LinkedAudio = audio.ID
	audio.LinkedVideo = video.ID
	return nil
}

// Unlink clears both sides of a clip's link. A partner that no longer exists
// is skipped silently.
func (m *Manager) Unlink(id timeline.ID) {
	c := m.tl.Clip(id)
	if c == nil {
		return
	}
	if c.LinkedAudio != "" {
		if p := m.tl.Clip(c.LinkedAudio); p != nil && p.LinkedVideo == c.ID {
			p.LinkedVideo = ""
		}
		c.LinkedAudio = ""
	}
	if c.LinkedVideo != "" {
		if p := m.tl.Clip(c.LinkedVideo); p != nil && p.LinkedAudio == c.ID {
			p.LinkedAudio = ""
		}
		c.LinkedVideo = ""
	}
}

// Partner returns the clip linked to id, or nil if unlinked or missing.
func (m *Manager) Partner(id timeline.ID) *timeline.Clip {
	c := m.tl.Clip(id)
	if c == nil {
		return nil
	}
	return m.tl.Clip(c.Partner())
}

// Group returns the clip and its partner, if present.
func (m *Manager) Group(id timeline.ID) []*timeline.Clip {
	c := m.tl.Clip(id)
	if c == nil {
		return nil
	}
	out := []*timeline.Clip{c}
	if p := m.tl.Clip(c.Partner()); p != nil {
		out = append(out, p)
	}
	return out
}

// MoveWithLinked shifts a clip and its partner by the same delta.
// No overlap validation is performed. It returns the clips that moved.
func (m *Manager) MoveWithLinked(id timeline.ID, deltaMs int64) []*timeline.Clip {
	group := m.Group(id)
	for _, c := range group {
		c.StartMs += deltaMs
	}
	return group
}

// DeleteWithLinked removes a clip and its partner from the timeline.
// It returns the removed clips with their arena positions.
func (m *Manager) DeleteWithLinked(id timeline.ID) []Removed {
	group := m.Group(id)
	var out []Removed
	for _, c := range group {
		if rc, pos := m.tl.RemoveClip(c.ID); rc != nil {
			out = append(out, Removed{Clip: rc, Pos: pos})
		}
	}
	return out
}

// Removed is a clip taken out of the arena and where it was.
type Removed struct {
	Clip *timeline.Clip
	Pos  int
}

// AutoLinkBySameFileAndStartTime links clips that share a source path and
// start time. Within each group the first two unlinked clips in arena order
// are paired, ordered into video/audio roles by their tracks. The pairing does
// not check the clips' actual media kinds. It returns the linked pairs.
func (m *Manager) AutoLinkBySameFileAndStartTime() [][2]timeline.ID {
	type key struct {
		path  string
		start int64
	}
	groups := make(map[key][]*timeline.Clip)
	var order []key
	for _, c := range m.tl.Clips() {
		if c.IsLinked() {
			continue
		}
		k := key{c.SourcePath, c.StartMs}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	var pairs [][2]timeline.ID
	for _, k := range order {
		g := groups[k]
		if len(g) < 2 {
			continue
		}
		video, audio := m.Roles(g[0], g[1])
		video.LinkedAudio = audio.ID
		audio.LinkedVideo = video.ID
		pairs = append(pairs, [2]timeline.ID{video.ID, audio.ID})
	}
	return pairs
}
