// Package snap aligns proposed times to nearby edit points.
package snap

import (
	"github.com/dshills/cutline/internal/engine/timeline"
)

// DefaultThresholdMs is the snapping distance used when none is configured.
const DefaultThresholdMs = 100

// TargetKind identifies what a time snapped to.
type TargetKind int

const (
	// TargetNone means the time was not snapped.
	TargetNone TargetKind = iota
	// TargetPlayhead is the playhead position.
	TargetPlayhead
	// TargetClipStart is a clip's start edge.
	TargetClipStart
	// TargetClipEnd is a clip's end edge.
	TargetClipEnd
	// TargetMarker is a marker time or region end.
	TargetMarker
)

// String returns the target kind name.
func (k TargetKind) String() string {
	switch k {
	case TargetPlayhead:
		return "playhead"
	case TargetClipStart:
		return "clip-start"
	case TargetClipEnd:
		return "clip-end"
	case TargetMarker:
		return "marker"
	default:
		return "none"
	}
}

// Result is the outcome of a snap query.
type Result struct {
	TimeMs  int64
	Snapped bool
	Target  TargetKind
	// Source is the clip or marker that produced the target, if any.
	Source timeline.ID
}

// Resolver finds the nearest alignment target within a threshold.
// It only reads the timeline.
type Resolver struct {
	Enabled        bool
	ThresholdMs    int64
	IncludeMarkers bool
}

// NewResolver creates an enabled resolver with the default threshold.
func NewResolver() *Resolver {
	return &Resolver{Enabled: true, ThresholdMs: DefaultThresholdMs}
}

// Resolve snaps proposedMs to the closest candidate edge.
//
// Candidates are the playhead, then the start and end of every clip except
// exclude (in arena order), then markers when IncludeMarkers is set. The first
// candidate seen wins exact ties. If the closest candidate is farther than
// the threshold, the proposed time is returned unchanged.
func (r *Resolver) Resolve(tl *timeline.Timeline, proposedMs int64, exclude timeline.ID) Result {
	unsnapped := Result{TimeMs: proposedMs}
	if r == nil || !r.Enabled || tl == nil {
		return unsnapped
	}

	best := Result{TimeMs: tl.Playhead(), Snapped: true, Target: TargetPlayhead}
	bestDist := abs(tl.Playhead() - proposedMs)

	consider := func(t int64, kind TargetKind, src timeline.ID) {
		if d := abs(t - proposedMs); d < bestDist {
			bestDist = d
			best = Result{TimeMs: t, Snapped: true, Target: kind, Source: src}
		}
	}

	for _, c := range tl.Clips() {
		if exclude != "" && c.ID == exclude {
			continue
		}
		consider(c.StartMs, TargetClipStart, c.ID)
		consider(c.EndMs(), TargetClipEnd, c.ID)
	}

	if r.IncludeMarkers {
		for _, m := range tl.Markers() {
			consider(m.TimeMs, TargetMarker, m.ID)
			if m.Kind == timeline.Region {
				consider(m.EndMs(), TargetMarker, m.ID)
			}
		}
	}

	if bestDist > r.ThresholdMs {
		return unsnapped
	}
	return best
}

// ResolveClip snaps a clip being dragged so that either edge aligns.
// It returns the adjusted start time for a clip of durationMs proposed at startMs.
func (r *Resolver) ResolveClip(tl *timeline.Timeline, startMs, durationMs int64, exclude timeline.ID) Result {
	head := r.Resolve(tl, startMs, exclude)
	tail := r.Resolve(tl, startMs+durationMs, exclude)

	switch {
	case head.Snapped && tail.Snapped:
		if abs(head.TimeMs-startMs) <= abs(tail.TimeMs-(startMs+durationMs)) {
			return head
		}
	case head.Snapped:
		return head
	case !tail.Snapped:
		return Result{TimeMs: startMs}
	}
	tail.TimeMs -= durationMs
	return tail
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
