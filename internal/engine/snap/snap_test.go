package snap

import (
	"testing"

	"github.com/dshills/cutline/internal/engine/timeline"
)

func setup(t *testing.T) (*timeline.Timeline, *timeline.Clip, *timeline.Clip) {
	t.Helper()
	tl := timeline.New()
	tr := timeline.NewTrack(timeline.Video, "V1")
	tl.AddTrack(tr)
	a := timeline.NewClip(tr.ID, "/a.mov", 1000, 2000)
	b := timeline.NewClip(tr.ID, "/b.mov", 5000, 1000)
	tl.AddClip(a)
	tl.AddClip(b)
	tl.SetPlayhead(10000)
	return tl, a, b
}

func TestResolve(t *testing.T) {
	tl, a, b := setup(t)
	r := NewResolver()

	tests := []struct {
		name     string
		proposed int64
		exclude  timeline.ID
		want     int64
		snapped  bool
		target   TargetKind
	}{
		{"snap to clip start", 1040, "", 1000, true, TargetClipStart},
		{"snap to clip end", 2950, "", 3000, true, TargetClipEnd},
		{"snap to playhead", 9920, "", 10000, true, TargetPlayhead},
		{"out of range", 4000, "", 4000, false, TargetNone},
		{"exactly at threshold", 4900, "", 5000, true, TargetClipStart},
		{"excluded clip ignored", 1040, a.ID, 1040, false, TargetNone},
		{"other clip still used", 6050, a.ID, 6000, true, TargetClipEnd},
	}
	_ = b

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tl, tt.proposed, tt.exclude)
			if got.TimeMs != tt.want || got.Snapped != tt.snapped || got.Target != tt.target {
				t.Errorf("Resolve(%d) = %+v, want time %d snapped %v target %v",
					tt.proposed, got, tt.want, tt.snapped, tt.target)
			}
		})
	}
}

func TestResolveDisabled(t *testing.T) {
	tl, _, _ := setup(t)
	r := NewResolver()
	r.Enabled = false
	if got := r.Resolve(tl, 1001, ""); got.Snapped || got.TimeMs != 1001 {
		t.Errorf("disabled resolver snapped: %+v", got)
	}
	var nilResolver *Resolver
	if got := nilResolver.Resolve(tl, 1001, ""); got.Snapped {
		t.Error("nil resolver snapped")
	}
}

func TestResolveTieFirstSeenWins(t *testing.T) {
	tl, _, _ := setup(t)
	tl.SetPlayhead(1100)
	r := NewResolver()

	// 1050 is 50ms from both the playhead and the clip start; playhead is seen first.
	got := r.Resolve(tl, 1050, "")
	if got.Target != TargetPlayhead || got.TimeMs != 1100 {
		t.Errorf("tie resolved to %+v, want playhead", got)
	}
}

func TestResolveMarkers(t *testing.T) {
	tl, _, _ := setup(t)
	m := timeline.NewMarker(7500, "region", timeline.Region)
	m.RegionDurationMs = 1000
	tl.AddMarker(m)

	r := NewResolver()
	if got := r.Resolve(tl, 7480, ""); got.Snapped {
		t.Errorf("markers used while disabled: %+v", got)
	}
	r.IncludeMarkers = true
	if got := r.Resolve(tl, 7480, ""); got.TimeMs != 7500 || got.Target != TargetMarker || got.Source != m.ID {
		t.Errorf("marker snap = %+v", got)
	}
	if got := r.Resolve(tl, 8530, ""); got.TimeMs != 8500 {
		t.Errorf("region end snap = %+v", got)
	}
}

func TestResolveClip(t *testing.T) {
	tl, a, _ := setup(t)
	r := NewResolver()

	// Tail edge lands 30ms before b's start; head is far from everything.
	got := r.ResolveClip(tl, 3470, 1500, a.ID)
	if !got.Snapped || got.TimeMs != 3500 {
		t.Errorf("ResolveClip tail = %+v, want start 3500", got)
	}

	got = r.ResolveClip(tl, 6020, 500, "")
	if !got.Snapped || got.TimeMs != 6000 {
		t.Errorf("ResolveClip head = %+v, want 6000", got)
	}

	got = r.ResolveClip(tl, 7000, 500, "")
	if got.Snapped || got.TimeMs != 7000 {
		t.Errorf("ResolveClip none = %+v", got)
	}
}
