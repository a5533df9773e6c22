package edit

import (
	"fmt"

	"github.com/dshills/cutline/internal/engine/link"
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// linkState records every clip's link pointers.
type linkState map[timeline.ID][2]timeline.ID

func captureLinks(tl *timeline.Timeline) linkState {
	s := make(linkState, tl.ClipCount())
	for _, c := range tl.Clips() {
		s[c.ID] = [2]timeline.ID{c.LinkedAudio, c.LinkedVideo}
	}
	return s
}

func (s linkState) restore(tl *timeline.Timeline) {
	for id, v := range s {
		if c := tl.Clip(id); c != nil {
			c.LinkedAudio, c.LinkedVideo = v[0], v[1]
		}
	}
}

// Link pairs two clips as video and audio.
type Link struct {
	AID, BID timeline.ID

	before linkState
}

// NewLink creates a link of a and b.
func NewLink(a, b timeline.ID) *Link {
	return &Link{AID: a, BID: b}
}

// Execute implements history.Command.
func (l *Link) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	before := captureLinks(tl)
	if err := link.New(tl).Link(l.AID, l.BID); err != nil {
		return err
	}
	l.before = before
	return nil
}

// Undo restores every pointer the link changed, including those of the
// clips' previous partners.
func (l *Link) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	l.before.restore(tl)
	return nil
}

// Description implements history.Command.
func (l *Link) Description() string {
	return "Link Clips"
}

// Unlink clears a clip's link on both sides.
type Unlink struct {
	ClipID timeline.ID

	before linkState
}

// NewUnlink creates an unlink of clip.
func NewUnlink(clip timeline.ID) *Unlink {
	return &Unlink{ClipID: clip}
}

// Execute implements history.Command.
func (u *Unlink) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	if tl.Clip(u.ClipID) == nil {
		return fmt.Errorf("%w: %s", ErrClipNotFound, u.ClipID)
	}
	u.before = captureLinks(tl)
	link.New(tl).Unlink(u.ClipID)
	return nil
}

// Undo implements history.Command.
func (u *Unlink) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	u.before.restore(tl)
	return nil
}

// Description implements history.Command.
func (u *Unlink) Description() string {
	return "Unlink Clips"
}

// AutoLink pairs unlinked clips sharing a source path and start time.
type AutoLink struct {
	pairs  [][2]timeline.ID
	before linkState
}

// NewAutoLink creates an auto-link pass.
func NewAutoLink() *AutoLink {
	return &AutoLink{}
}

// Pairs returns the (video, audio) pairs linked by the last Execute.
func (a *AutoLink) Pairs() [][2]timeline.ID {
	return a.pairs
}

// Execute implements history.Command.
func (a *AutoLink) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	a.before = captureLinks(tl)
	a.pairs = link.New(tl).AutoLinkBySameFileAndStartTime()
	return nil
}

// Undo implements history.Command.
func (a *AutoLink) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	a.before.restore(tl)
	return nil
}

// Description implements history.Command.
func (a *AutoLink) Description() string {
	return "Auto-Link Clips"
}
