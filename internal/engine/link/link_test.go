package link

import (
	"errors"
	"testing"

	"github.com/dshills/cutline/internal/engine/timeline"
)

type fixture struct {
	tl    *timeline.Timeline
	m     *Manager
	video *timeline.Track
	audio *timeline.Track
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tl := timeline.New()
	v := timeline.NewTrack(timeline.Video, "V1")
	a := timeline.NewTrack(timeline.Audio, "A1")
	tl.AddTrack(v)
	tl.AddTrack(a)
	return &fixture{tl: tl, m: New(tl), video: v, audio: a}
}

func (f *fixture) clip(t *testing.T, tr *timeline.Track, path string, start int64) *timeline.Clip {
	t.Helper()
	c := timeline.NewClip(tr.ID, path, start, 1000)
	if err := f.tl.AddClip(c); err != nil {
		t.Fatalf("AddClip: %v", err)
	}
	return c
}

func assertLinked(t *testing.T, video, audio *timeline.Clip) {
	t.Helper()
	if video.LinkedAudio != audio.ID || audio.LinkedVideo != video.ID {
		t.Errorf("not linked: video.LinkedAudio=%q audio.LinkedVideo=%q", video.LinkedAudio, audio.LinkedVideo)
	}
	if video.LinkedVideo != "" || audio.LinkedAudio != "" {
		t.Errorf("wrong-direction pointers set")
	}
}

func TestLinkIsSymmetric(t *testing.T) {
	f := newFixture(t)
	v := f.clip(t, f.video, "/a.mov", 0)
	a := f.clip(t, f.audio, "/a.mov", 0)

	// Argument order must not matter; roles come from track kinds.
	if err := f.m.Link(a.ID, v.ID); err != nil {
		t.Fatalf("Link: %v", err)
	}
	assertLinked(t, v, a)

	f.m.Unlink(a.ID)
	if v.IsLinked() || a.IsLinked() {
		t.Error("unlink from audio side left pointers")
	}

	f.m.Link(v.ID, a.ID)
	f.m.Unlink(v.ID)
	if v.IsLinked() || a.IsLinked() {
		t.Error("unlink from video side left pointers")
	}
}

func TestLinkReplacesPriorPartner(t *testing.T) {
	f := newFixture(t)
	v := f.clip(t, f.video, "/a.mov", 0)
	a1 := f.clip(t, f.audio, "/a.mov", 0)
	a2 := f.clip(t, f.audio, "/b.wav", 2000)

	f.m.Link(v.ID, a1.ID)
	f.m.Link(v.ID, a2.ID)

	assertLinked(t, v, a2)
	if a1.IsLinked() {
		t.Error("previous partner still linked")
	}
}

func TestLinkErrors(t *testing.T) {
	f := newFixture(t)
	v := f.clip(t, f.video, "/a.mov", 0)
	if err := f.m.Link(v.ID, v.ID); !errors.Is(err, ErrSelfLink) {
		t.Errorf("self link err = %v", err)
	}
	if err := f.m.Link(v.ID, "missing"); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("missing link err = %v", err)
	}
}

func TestUnlinkMissingPartner(t *testing.T) {
	f := newFixture(t)
	v := f.clip(t, f.video, "/a.mov", 0)
	a := f.clip(t, f.audio, "/a.mov", 0)
	f.m.Link(v.ID, a.ID)

	f.tl.RemoveClip(a.ID)
	f.m.Unlink(v.ID)
	if v.IsLinked() {
		t.Error("surviving side not cleared")
	}
	f.m.Unlink("missing")
}

func TestMoveWithLinked(t *testing.T) {
	f := newFixture(t)
	v := f.clip(t, f.video, "/a.mov", 1000)
	a := f.clip(t, f.audio, "/a.mov", 1000)
	solo := f.clip(t, f.video, "/c.mov", 5000)
	f.m.Link(v.ID, a.ID)

	moved := f.m.MoveWithLinked(a.ID, 500)
	if len(moved) != 2 || v.StartMs != 1500 || a.StartMs != 1500 {
		t.Errorf("linked move: moved=%d v=%d a=%d", len(moved), v.StartMs, a.StartMs)
	}

	moved = f.m.MoveWithLinked(solo.ID, -1000)
	if len(moved) != 1 || solo.StartMs != 4000 {
		t.Errorf("solo move: moved=%d start=%d", len(moved), solo.StartMs)
	}
}

func TestDeleteWithLinked(t *testing.T) {
	f := newFixture(t)
	v := f.clip(t, f.video, "/a.mov", 0)
	a := f.clip(t, f.audio, "/a.mov", 0)
	f.m.Link(v.ID, a.ID)

	removed := f.m.DeleteWithLinked(v.ID)
	if len(removed) != 2 {
		t.Fatalf("removed %d clips, want 2", len(removed))
	}
	if f.tl.ClipCount() != 0 {
		t.Errorf("clips left: %d", f.tl.ClipCount())
	}
}

func TestAutoLink(t *testing.T) {
	f := newFixture(t)
	a := f.clip(t, f.audio, "/a.mov", 0)
	v := f.clip(t, f.video, "/a.mov", 0)
	third := f.clip(t, f.video, "/a.mov", 0)
	other := f.clip(t, f.video, "/b.mov", 0)

	pairs := f.m.AutoLinkBySameFileAndStartTime()
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0] != [2]timeline.ID{v.ID, a.ID} {
		t.Errorf("pair = %v", pairs[0])
	}
	assertLinked(t, v, a)
	if third.IsLinked() || other.IsLinked() {
		t.Error("extra clips linked")
	}
}
