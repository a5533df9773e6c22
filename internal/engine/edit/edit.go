// Package edit implements the structural timeline edits as undoable
// commands: razor split, ripple delete, ripple move, ripple insert, rolling
// edit, trim, move, delete, plus the track, marker, keyframe and link
// operations of the command surface.
//
// Each command validates first and mutates second, so a command that
// returns an error has not changed the timeline. Mutation is store first,
// engine second: the timeline is updated, then every touched clip is synced
// through the render adapter, which reissues its engine handle.
//
// Commands remember clips, tracks and markers by stable ID. On redo they
// recreate records under the same IDs, so later history entries still
// resolve.
package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// MinClipDurationMs is the shortest clip a trim or rolling edit may leave.
const MinClipDurationMs int64 = 100

func minDuration(v int64) int64 {
	if v <= 0 {
		return MinClipDurationMs
	}
	return v
}

func findClip(tl *timeline.Timeline, id timeline.ID) (*timeline.Clip, error) {
	c := tl.Clip(id)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrClipNotFound, id)
	}
	return c, nil
}

// editableClip resolves a clip and rejects it if its track is locked.
func editableClip(tl *timeline.Timeline, id timeline.ID) (*timeline.Clip, error) {
	c, err := findClip(tl, id)
	if err != nil {
		return nil, err
	}
	if t := tl.TrackOf(c); t != nil && t.Locked {
		return nil, fmt.Errorf("%w: %s", ErrTrackLocked, t.Name)
	}
	return c, nil
}

func editableTrack(tl *timeline.Timeline, id timeline.ID) (*timeline.Track, error) {
	t := tl.Track(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	if t.Locked {
		return nil, fmt.Errorf("%w: %s", ErrTrackLocked, t.Name)
	}
	return t, nil
}

// placement is the structural part of a clip.
type placement struct {
	trackID     timeline.ID
	startMs     int64
	durationMs  int64
	trimStartMs int64
}

func placementOf(c *timeline.Clip) placement {
	return placement{
		trackID:     c.TrackID,
		startMs:     c.StartMs,
		durationMs:  c.DurationMs,
		trimStartMs: c.SourceTrimStartMs,
	}
}

func (p placement) apply(c *timeline.Clip) {
	c.TrackID = p.trackID
	c.StartMs = p.startMs
	c.DurationMs = p.durationMs
	c.SourceTrimStartMs = p.trimStartMs
}

// saved pairs a clip ID with its placement before an edit.
type saved struct {
	id timeline.ID
	placement
}

func save(clips ...*timeline.Clip) []saved {
	out := make([]saved, 0, len(clips))
	for _, c := range clips {
		out = append(out, saved{id: c.ID, placement: placementOf(c)})
	}
	return out
}

// restore puts every saved clip back and syncs it.
func restore(tl *timeline.Timeline, sy *render.Adapter, s []saved) {
	for _, e := range s {
		c := tl.Clip(e.id)
		if c == nil {
			continue
		}
		e.placement.apply(c)
		sy.SyncClip(tl, c)
	}
}

// shiftClips moves clips by delta and syncs them.
func shiftClips(tl *timeline.Timeline, sy *render.Adapter, clips []*timeline.Clip, deltaMs int64) {
	for _, c := range clips {
		c.StartMs += deltaMs
	}
	sy.SyncClips(tl, clips...)
}

func without(clips []*timeline.Clip, id timeline.ID) []*timeline.Clip {
	out := clips[:0:0]
	for _, c := range clips {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// removed is a clip taken out of the store and where it was.
type removed struct {
	clip *timeline.Clip
	pos  int
}

// removeClip unregisters a clip from the engine and deletes it from the
// store. The returned record holds a copy for reinsertion.
func removeClip(tl *timeline.Timeline, sy *render.Adapter, id timeline.ID) (removed, bool) {
	c := tl.Clip(id)
	if c == nil {
		return removed{}, false
	}
	sy.RemoveClip(tl, c)
	rc, pos := tl.RemoveClip(id)
	return removed{clip: rc.Clone(), pos: pos}, true
}

// reinsert puts removed clips back in reverse order of removal so every
// clip lands at its original arena position.
func reinsert(tl *timeline.Timeline, sy *render.Adapter, rs []removed) error {
	for i := len(rs) - 1; i >= 0; i-- {
		c := rs[i].clip.Clone()
		c.Handle = 0
		if err := tl.InsertClip(c, rs[i].pos); err != nil {
			return fmt.Errorf("restore clip %s: %w", c.ID, err)
		}
		sy.AddClip(tl, c)
	}
	return nil
}

// FindInsertTrack picks where a clip of the given duration lands when no
// target is named. Video tracks are scanned in index order for the first
// unlocked track with room at the playhead. If none has room, the clip goes
// after the last clip on video track 0. It returns nil when there are no
// video tracks.
func FindInsertTrack(tl *timeline.Timeline, durationMs int64) (*timeline.Track, int64) {
	ph := tl.Playhead()
	for _, t := range tl.Tracks(timeline.Video) {
		if t.Locked {
			continue
		}
		if len(tl.ClipsOverlapping(t.ID, ph, ph+durationMs)) == 0 {
			return t, ph
		}
	}
	first := tl.TrackAt(timeline.Video, 0)
	if first == nil {
		return nil, 0
	}
	return first, tl.TrackEnd(first.ID)
}
