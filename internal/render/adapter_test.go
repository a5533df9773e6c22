package render

import (
	"errors"
	"testing"

	"github.com/dshills/cutline/internal/engine/timeline"
)

type captured struct {
	ops  []string
	errs []error
}

func (c *captured) handler(op string, err error) {
	c.ops = append(c.ops, op)
	c.errs = append(c.errs, err)
}

func newAdapterFixture(t *testing.T) (*MemoryEngine, *Adapter, *timeline.Timeline, *timeline.Track, *captured) {
	t.Helper()
	eng := NewMemoryEngine()
	rec := &captured{}
	a := NewAdapter(eng, WithErrorHandler(rec.handler))
	if err := a.Open(1920, 1080, 30); err != nil {
		t.Fatalf("Open: %v", err)
	}
	tl := timeline.New()
	tr := timeline.NewTrack(timeline.Video, "V1")
	tl.AddTrack(tr)
	a.RegisterTrack(tr)
	if tr.Handle == 0 {
		t.Fatal("track not registered")
	}
	return eng, a, tl, tr, rec
}

func TestSyncClipReissuesHandle(t *testing.T) {
	eng, a, tl, tr, rec := newAdapterFixture(t)
	c := timeline.NewClip(tr.ID, "/a.mov", 0, 4000)
	tl.AddClip(c)

	a.AddClip(tl, c)
	first := c.Handle
	if first == 0 {
		t.Fatal("clip not registered")
	}

	c.StartMs = 1000
	a.SyncClip(tl, c)
	if c.Handle == first || c.Handle == 0 {
		t.Errorf("handle not reissued: %d -> %d", first, c.Handle)
	}
	if _, ok := eng.Clip(a.TimelineHandle(), first); ok {
		t.Error("old handle still registered")
	}
	info, ok := eng.Clip(a.TimelineHandle(), c.Handle)
	if !ok || info.StartMs != 1000 || info.DurationMs != 4000 {
		t.Errorf("engine clip = %+v", info)
	}
	if len(rec.errs) != 0 {
		t.Errorf("unexpected errors: %v", rec.errs)
	}
}

func TestSyncClipSetsTrim(t *testing.T) {
	eng, a, tl, tr, _ := newAdapterFixture(t)
	c := timeline.NewClip(tr.ID, "/a.mov", 4000, 6000)
	c.SourceTrimStartMs = 4000
	tl.AddClip(c)
	eng.ResetCalls()

	a.SyncClip(tl, c)

	info, _ := eng.Clip(a.TimelineHandle(), c.Handle)
	if info.TrimStartMs != 4000 || info.TrimEndMs != 10000 {
		t.Errorf("trim = [%d,%d), want [4000,10000)", info.TrimStartMs, info.TrimEndMs)
	}
	calls := eng.Calls()
	if len(calls) != 2 || calls[0] != "add-clip" || calls[1] != "set-clip-trim" {
		t.Errorf("calls = %v", calls)
	}
}

func TestRemoveUnknownHandleIsAbsorbed(t *testing.T) {
	_, a, tl, tr, rec := newAdapterFixture(t)
	c := timeline.NewClip(tr.ID, "/a.mov", 0, 1000)
	tl.AddClip(c)
	c.Handle = 9999

	a.RemoveClip(tl, c)
	if c.Handle != 0 {
		t.Error("handle not cleared")
	}
	if len(rec.errs) != 0 {
		t.Errorf("not-found was reported: %v", rec.errs)
	}
}

func TestSyncAfterTrackChangeRemovesFromOldTrack(t *testing.T) {
	eng, a, tl, tr, rec := newAdapterFixture(t)
	tr2 := timeline.NewTrack(timeline.Video, "V2")
	tl.AddTrack(tr2)
	a.RegisterTrack(tr2)

	c := timeline.NewClip(tr.ID, "/a.mov", 0, 1000)
	tl.AddClip(c)
	a.AddClip(tl, c)
	old := c.Handle

	c.TrackID = tr2.ID
	a.SyncClip(tl, c)

	if _, ok := eng.Clip(a.TimelineHandle(), old); ok {
		t.Error("clip left on old track")
	}
	info, _ := eng.Clip(a.TimelineHandle(), c.Handle)
	if info.Track != tr2.Handle {
		t.Errorf("clip on track %d, want %d", info.Track, tr2.Handle)
	}
	if len(rec.errs) != 0 {
		t.Errorf("errors: %v", rec.errs)
	}
}

func TestEngineFailureIsReported(t *testing.T) {
	eng, a, tl, tr, rec := newAdapterFixture(t)
	c := timeline.NewClip(tr.ID, "/a.mov", 0, 1000)
	tl.AddClip(c)

	boom := errors.New("decoder exploded")
	eng.FailNext("add-clip", boom)
	a.AddClip(tl, c)

	if c.Handle != 0 {
		t.Error("failed add left a handle")
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], boom) || rec.ops[0] != "add-clip" {
		t.Errorf("reported = %v %v", rec.ops, rec.errs)
	}
}

func TestSubtitleClipsStayLocal(t *testing.T) {
	eng, a, tl, _, rec := newAdapterFixture(t)
	sub := timeline.NewTrack(timeline.Subtitle, "S1")
	tl.AddTrack(sub)
	a.RegisterTrack(sub)
	if sub.Handle != 0 {
		t.Error("subtitle track got an engine handle")
	}

	c := timeline.NewClip(sub.ID, "/subs.srt", 0, 1000)
	tl.AddClip(c)
	eng.ResetCalls()
	a.SyncClip(tl, c)

	if c.Handle != 0 || len(eng.Calls()) != 0 {
		t.Errorf("subtitle clip reached engine: handle=%d calls=%v", c.Handle, eng.Calls())
	}
	if len(rec.errs) != 0 {
		t.Errorf("errors: %v", rec.errs)
	}
}

func TestRebuildReissuesEverything(t *testing.T) {
	eng, a, tl, tr, _ := newAdapterFixture(t)
	c := timeline.NewClip(tr.ID, "/a.mov", 0, 1000)
	tl.AddClip(c)
	a.AddClip(tl, c)
	oldTL, oldTrack, oldClip := a.TimelineHandle(), tr.Handle, c.Handle

	if err := a.Rebuild(tl); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if a.TimelineHandle() == oldTL || tr.Handle == oldTrack || c.Handle == oldClip {
		t.Error("handles survived rebuild")
	}
	if got := len(eng.Clips(a.TimelineHandle())); got != 1 {
		t.Errorf("engine clips after rebuild = %d", got)
	}
	if eng.Clips(oldTL) != nil {
		t.Error("old timeline not destroyed")
	}
}

func TestClearCacheAndRender(t *testing.T) {
	eng, a, _, _, _ := newAdapterFixture(t)
	a.ClearCache()
	a.ClearCache()
	if got := eng.CacheClears(a.TimelineHandle()); got != 2 {
		t.Errorf("CacheClears = %d", got)
	}
	f, err := a.RenderFrame(500)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if f.Width != 1920 || len(f.Pixels) != 1920*1080*4 {
		t.Errorf("frame %dx%d, %d bytes", f.Width, f.Height, len(f.Pixels))
	}
}

func TestNilEngineIsNoop(t *testing.T) {
	a := NewAdapter(nil)
	if err := a.Open(1, 1, 1); err != nil {
		t.Fatalf("Open: %v", err)
	}
	tl := timeline.New()
	tr := timeline.NewTrack(timeline.Video, "V1")
	tl.AddTrack(tr)
	a.RegisterTrack(tr)
	c := timeline.NewClip(tr.ID, "/a.mov", 0, 1000)
	tl.AddClip(c)
	a.SyncClip(tl, c)
	a.ClearCache()
	if c.Handle != 0 || tr.Handle != 0 {
		t.Error("nil engine issued handles")
	}
	if _, err := a.RenderFrame(0); !errors.Is(err, ErrNoTimeline) {
		t.Errorf("RenderFrame err = %v", err)
	}
}

func TestUnregisterTrack(t *testing.T) {
	eng, a, tl, tr, rec := newAdapterFixture(t)
	c := timeline.NewClip(tr.ID, "/a.mov", 0, 1000)
	tl.AddClip(c)
	a.AddClip(tl, c)

	a.UnregisterTrack(tr)
	if tr.Handle != 0 || eng.TrackCount(a.TimelineHandle()) != 0 {
		t.Error("track still registered")
	}
	// The clip went with its track; removing it now is a benign not-found.
	a.RemoveClip(tl, c)
	if len(rec.errs) != 0 {
		t.Errorf("errors: %v", rec.errs)
	}
}

func TestAddClipDropsCopiedHandle(t *testing.T) {
	eng, a, tl, tr, rec := newAdapterFixture(t)
	left := timeline.NewClip(tr.ID, "/a.mov", 0, 2000)
	tl.AddClip(left)
	a.AddClip(tl, left)

	right := left.Clone()
	right.ID = timeline.NewID()
	right.StartMs = 2000
	tl.AddClip(right)
	eng.ResetCalls()

	a.AddClip(tl, right)
	if calls := eng.Calls(); len(calls) != 1 || calls[0] != "add-clip" {
		t.Errorf("calls = %v, want [add-clip]", calls)
	}
	if _, ok := eng.Clip(a.TimelineHandle(), left.Handle); !ok {
		t.Error("registering the copy removed the original")
	}
	if right.Handle == 0 || right.Handle == left.Handle {
		t.Errorf("copy handle = %d, original %d", right.Handle, left.Handle)
	}
	if len(rec.errs) != 0 {
		t.Errorf("errors: %v", rec.errs)
	}
}

func TestSyncClips(t *testing.T) {
	eng, a, tl, tr, _ := newAdapterFixture(t)
	var clips []*timeline.Clip
	for i := int64(0); i < 3; i++ {
		c := timeline.NewClip(tr.ID, "/a.mov", i*1000, 1000)
		tl.AddClip(c)
		clips = append(clips, c)
	}

	a.SyncClips(tl, clips...)
	if got := len(eng.Clips(a.TimelineHandle())); got != 3 {
		t.Fatalf("engine clips = %d, want 3", got)
	}
	for i, c := range clips {
		info, ok := eng.Clip(a.TimelineHandle(), c.Handle)
		if !ok || info.StartMs != int64(i)*1000 {
			t.Errorf("clip %d: %+v", i, info)
		}
	}
}

func TestConfigureAppliesOnRebuild(t *testing.T) {
	_, a, tl, _, _ := newAdapterFixture(t)
	a.Configure(640, 360, 25)
	if f, _ := a.RenderFrame(0); f.Width != 1920 {
		t.Errorf("Configure changed the open timeline: width %d", f.Width)
	}

	if err := a.Rebuild(tl); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	f, err := a.RenderFrame(0)
	if err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	if f.Width != 640 || f.Height != 360 || len(f.Pixels) != 640*360*4 {
		t.Errorf("frame %dx%d, %d bytes", f.Width, f.Height, len(f.Pixels))
	}
}
