package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// Roll moves the shared boundary between two adjacent clips.
//
// The left clip's duration grows by the boundary delta; the right clip
// starts later by the same delta and shrinks to keep its end. The right
// clip's source trim follows its start so its frames stay where they were,
// stopping at the start of the source.
// Both results must be at least MinDurationMs long; the check runs before
// either clip is touched.
type Roll struct {
	LeftID        timeline.ID
	RightID       timeline.ID
	BoundaryMs    int64
	MinDurationMs int64

	before []saved
}

// NewRoll creates a rolling edit of the boundary between left and right.
func NewRoll(left, right timeline.ID, boundaryMs int64) *Roll {
	return &Roll{LeftID: left, RightID: right, BoundaryMs: boundaryMs}
}

// Execute validates and applies the roll.
func (r *Roll) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	left, err := editableClip(tl, r.LeftID)
	if err != nil {
		return err
	}
	right, err := editableClip(tl, r.RightID)
	if err != nil {
		return err
	}
	if left.EndMs() != right.StartMs {
		return fmt.Errorf("%w: left ends %d, right starts %d", ErrNotAdjacent, left.EndMs(), right.StartMs)
	}

	delta := r.BoundaryMs - left.EndMs()
	leftDur := left.DurationMs + delta
	rightDur := right.DurationMs - delta
	floor := minDuration(r.MinDurationMs)
	if leftDur < floor || rightDur < floor {
		return fmt.Errorf("%w: %d/%d ms, minimum %d", ErrMinDuration, leftDur, rightDur, floor)
	}
	r.before = save(left, right)
	left.DurationMs = leftDur
	right.StartMs += delta
	right.DurationMs = rightDur
	right.SourceTrimStartMs = max(right.SourceTrimStartMs+delta, 0)
	sy.SyncClips(tl, left, right)
	return nil
}

// Undo restores both clips.
func (r *Roll) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	restore(tl, sy, r.before)
	return nil
}

// Description implements history.Command.
func (r *Roll) Description() string {
	return "Rolling Edit"
}

// Edge selects which end of a clip a trim moves.
type Edge int

const (
	// InEdge is the clip's start.
	InEdge Edge = iota
	// OutEdge is the clip's end.
	OutEdge
)

// String returns the edge name.
func (e Edge) String() string {
	if e == OutEdge {
		return "out"
	}
	return "in"
}

// Trim moves one edge of a clip to TimeMs.
//
// Trimming the in edge moves the start and the source trim together so the
// frames under the rest of the clip do not change. The source trim may not
// go negative and the clip may not drop below MinDurationMs.
type Trim struct {
	ClipID        timeline.ID
	Edge          Edge
	TimeMs        int64
	MinDurationMs int64

	before []saved
}

// NewTrim creates a trim of clip's edge to timeMs.
func NewTrim(clip timeline.ID, edge Edge, timeMs int64) *Trim {
	return &Trim{ClipID: clip, Edge: edge, TimeMs: timeMs}
}

// Execute validates and applies the trim.
func (t *Trim) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := editableClip(tl, t.ClipID)
	if err != nil {
		return err
	}
	if t.TimeMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTime, t.TimeMs)
	}
	floor := minDuration(t.MinDurationMs)

	next := placementOf(c)
	switch t.Edge {
	case InEdge:
		delta := t.TimeMs - c.StartMs
		next.startMs = t.TimeMs
		next.durationMs -= delta
		next.trimStartMs += delta
	case OutEdge:
		next.durationMs = t.TimeMs - c.StartMs
	}
	if next.durationMs < floor {
		return fmt.Errorf("%w: %d ms, minimum %d", ErrMinDuration, next.durationMs, floor)
	}
	if next.trimStartMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrim, next.trimStartMs)
	}

	t.before = save(c)
	next.apply(c)
	sy.SyncClip(tl, c)
	return nil
}

// Undo restores the clip.
func (t *Trim) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	restore(tl, sy, t.before)
	return nil
}

// Description implements history.Command.
func (t *Trim) Description() string {
	if t.Edge == OutEdge {
		return "Trim Out Point"
	}
	return "Trim In Point"
}
