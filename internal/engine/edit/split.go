package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/history"
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// Split cuts a clip in two at AtMs.
//
// The left part keeps the clip's ID and source trim. The right part is a
// new clip starting at the cut whose source range continues where the left
// one ends, so the two ranges partition the original. The right part
// inherits track, proxy and colour label, starts unlinked, and receives
// copies of the keyframes at or after the cut shifted to its own origin.
type Split struct {
	ClipID timeline.ID
	AtMs   int64

	rightID      timeline.ID
	origDuration int64
}

// NewSplit creates a split of clip at atMs.
func NewSplit(clip timeline.ID, atMs int64) *Split {
	return &Split{ClipID: clip, AtMs: atMs}
}

// RightID returns the ID of the clip created by the cut. It is empty until
// the first Execute.
func (s *Split) RightID() timeline.ID {
	return s.rightID
}

// Execute performs the cut.
func (s *Split) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := editableClip(tl, s.ClipID)
	if err != nil {
		return err
	}
	if s.AtMs <= c.StartMs || s.AtMs >= c.EndMs() {
		return fmt.Errorf("%w: %d not inside [%d, %d)", ErrInvalidCut, s.AtMs, c.StartMs, c.EndMs())
	}
	if s.rightID == "" {
		s.rightID = timeline.NewID()
	}

	leftDur := s.AtMs - c.StartMs
	right := c.Clone()
	right.ID = s.rightID
	right.Handle = 0
	right.StartMs = s.AtMs
	right.DurationMs = c.DurationMs - leftDur
	right.SourceTrimStartMs = c.SourceTrimStartMs + leftDur
	right.LinkedAudio, right.LinkedVideo = "", ""
	offset := float64(leftDur) / 1000
	for _, p := range timeline.Properties() {
		right.SetCurve(p, c.Curve(p).SliceFrom(offset))
	}
	if err := tl.AddClip(right); err != nil {
		return err
	}

	s.origDuration = c.DurationMs
	c.DurationMs = leftDur
	sy.SyncClip(tl, c)
	sy.AddClip(tl, right)
	return nil
}

// Undo removes the right part and restores the left part's duration.
func (s *Split) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	c, err := findClip(tl, s.ClipID)
	if err != nil {
		return err
	}
	removeClip(tl, sy, s.rightID)
	c.DurationMs = s.origDuration
	sy.SyncClip(tl, c)
	return nil
}

// Description implements history.Command.
func (s *Split) Description() string {
	return "Split Clip"
}

// SplitAll cuts every clip under AtMs on every unlocked track.
// The cuts form one undo unit and are reversed in reverse order.
type SplitAll struct {
	AtMs int64

	splits *history.CompoundCommand
}

// NewSplitAll creates a cut across all tracks at atMs.
func NewSplitAll(atMs int64) *SplitAll {
	return &SplitAll{AtMs: atMs}
}

// Execute cuts each clip. The set of clips is fixed on the first run so
// redo cuts exactly the same ones.
func (s *SplitAll) Execute(tl *timeline.Timeline, sy *render.Adapter) error {
	if s.splits == nil {
		s.splits = history.NewCompoundCommand(s.Description())
		for _, c := range tl.ClipsAt(s.AtMs) {
			if t := tl.TrackOf(c); t != nil && t.Locked {
				continue
			}
			s.splits.Add(NewSplit(c.ID, s.AtMs))
		}
	}
	if s.splits.IsEmpty() {
		s.splits = nil
		return fmt.Errorf("%w: no clip under %d", ErrInvalidCut, s.AtMs)
	}
	return s.splits.Execute(tl, sy)
}

// Undo reverses every cut.
func (s *SplitAll) Undo(tl *timeline.Timeline, sy *render.Adapter) error {
	if s.splits == nil {
		return nil
	}
	return s.splits.Undo(tl, sy)
}

// Description implements history.Command.
func (s *SplitAll) Description() string {
	return "Split All Tracks"
}
