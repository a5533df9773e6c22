package project

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/cutline/internal/engine/keyframe"
	"github.com/dshills/cutline/internal/engine/timeline"
)

func buildTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl := timeline.New()
	v1 := timeline.NewTrack(timeline.Video, "V1")
	v2 := timeline.NewTrack(timeline.Video, "V2")
	a1 := timeline.NewTrack(timeline.Audio, "A1")
	s1 := timeline.NewTrack(timeline.Subtitle, "S1")
	a1.Muted = true
	v2.Locked = true
	v2.ColorLabel = "orange"
	v2.Height = 90
	for _, tr := range []*timeline.Track{s1, a1, v1, v2} {
		if err := tl.AddTrack(tr); err != nil {
			t.Fatalf("AddTrack: %v", err)
		}
	}

	video := timeline.NewClip(v1.ID, "/media/a.mov", 0, 10000)
	video.SourceTrimStartMs = 2500
	video.ProxyPath = "/proxy/a.mov"
	video.ColorLabel = "red"
	audio := timeline.NewClip(a1.ID, "/media/a.mov", 0, 10000)
	video.LinkedAudio, audio.LinkedVideo = audio.ID, video.ID

	op := video.Curve(timeline.Opacity)
	op.Add(0, 0, keyframe.EaseIn)
	id := op.Add(2, 1, keyframe.Bezier)
	op.SetHandles(id, &keyframe.Tangent{TimeOffset: -0.5, ValueOffset: 0.1}, nil)
	audio.Curve(timeline.Volume).Add(1.5, 0.8, keyframe.Hold)

	title := timeline.NewClip(s1.ID, "/subs/a.srt", 500, 2000)
	overlay := timeline.NewClip(v2.ID, "/media/logo.png", 3000, 1000)

	for _, c := range []*timeline.Clip{video, audio, title, overlay} {
		if err := tl.AddClip(c); err != nil {
			t.Fatalf("AddClip: %v", err)
		}
	}

	region := timeline.NewMarker(4000, "intro", timeline.Region)
	region.RegionDurationMs = 1500
	region.Comment = "trim later"
	for _, m := range []*timeline.Marker{region, timeline.NewMarker(1000, "beat", timeline.Chapter)} {
		if err := tl.AddMarker(m); err != nil {
			t.Fatalf("AddMarker: %v", err)
		}
	}
	tl.SetPlayhead(1234)
	tl.SetInOut(500, 9000)
	return tl
}

func TestRoundTripPreservesState(t *testing.T) {
	tl := buildTimeline(t)
	settings := Settings{Width: 1280, Height: 720, FPS: 25, SnapEnabled: true, SnapThresholdMs: 80}

	data, err := Marshal(FromTimeline(tl, settings))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	doc, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !reflect.DeepEqual(got.Snapshot(), tl.Snapshot()) {
		t.Errorf("snapshot changed across save/load\n got: %+v\nwant: %+v", got.Snapshot(), tl.Snapshot())
	}
	if in, out := got.InOut(); in != 500 || out != 9000 {
		t.Errorf("in/out = %d/%d", in, out)
	}
	if doc.Settings.Width != 1280 || !doc.Settings.SnapEnabled || doc.Settings.SnapThresholdMs != 80 {
		t.Errorf("settings = %+v", doc.Settings)
	}
}

func TestFromTimelineFlattensTrackIndex(t *testing.T) {
	tl := buildTimeline(t)
	doc := FromTimeline(tl, Settings{})

	kinds := make([]string, len(doc.Tracks))
	for i, tr := range doc.Tracks {
		kinds[i] = tr.Kind
	}
	if want := []string{"video", "video", "audio", "subtitle"}; !reflect.DeepEqual(kinds, want) {
		t.Fatalf("track order = %v, want %v", kinds, want)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/media/logo.png", 1},
		{"/subs/a.srt", 3},
	}
	for _, tt := range tests {
		found := false
		for _, c := range doc.Clips {
			if c.SourcePath == tt.path {
				found = true
				if c.TrackIndex != tt.want {
					t.Errorf("%s trackIndex = %d, want %d", tt.path, c.TrackIndex, tt.want)
				}
			}
		}
		if !found {
			t.Errorf("%s not saved", tt.path)
		}
	}

	for _, c := range doc.Clips {
		if len(c.Curves) != len(timeline.Properties()) {
			t.Errorf("clip %s saved %d curves, want %d", c.ID, len(c.Curves), len(timeline.Properties()))
		}
	}
}

func TestBuildRemapsOutOfOrderTracks(t *testing.T) {
	doc := &Document{
		Version: Version,
		Tracks: []Track{
			{Kind: "audio", Name: "A1"},
			{Kind: "video", Name: "V1"},
			{Kind: "subtitle", Name: "S1"},
			{Kind: "video", Name: "V2"},
		},
		Clips: []Clip{
			{SourcePath: "a.wav", DurationMs: 1000, TrackIndex: 2},
			{SourcePath: "b.mov", DurationMs: 1000, TrackIndex: 1},
			{SourcePath: "c.srt", DurationMs: 1000, TrackIndex: 3},
		},
	}
	tl, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := map[string]string{"a.wav": "A1", "b.mov": "V2", "c.srt": "S1"}
	for _, c := range tl.Clips() {
		if name := tl.TrackOf(c).Name; name != want[c.SourcePath] {
			t.Errorf("%s on %s, want %s", c.SourcePath, name, want[c.SourcePath])
		}
		if c.ID == "" {
			t.Errorf("%s has no id", c.SourcePath)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	valid := func() *Document {
		return &Document{
			Version: Version,
			Tracks:  []Track{{ID: "t1", Kind: "video"}},
			Clips:   []Clip{{ID: "c1", DurationMs: 1000}},
		}
	}
	tests := []struct {
		name   string
		mutate func(d *Document)
		want   error
	}{
		{"newer version", func(d *Document) { d.Version = Version + 1 }, ErrUnsupportedVersion},
		{"zero version", func(d *Document) { d.Version = 0 }, ErrUnsupportedVersion},
		{"unknown kind", func(d *Document) { d.Tracks[0].Kind = "midi" }, ErrInvalidTrack},
		{"index past end", func(d *Document) { d.Clips[0].TrackIndex = 1 }, ErrTrackIndex},
		{"negative index", func(d *Document) { d.Clips[0].TrackIndex = -1 }, ErrTrackIndex},
		{"zero duration", func(d *Document) { d.Clips[0].DurationMs = 0 }, ErrInvalidClip},
		{"negative trim", func(d *Document) { d.Clips[0].SourceTrimStartMs = -1 }, ErrInvalidClip},
		{"unknown property", func(d *Document) {
			d.Clips[0].Curves = map[string][]Keyframe{"blur": nil}
		}, ErrInvalidClip},
		{"duplicate clip", func(d *Document) { d.Clips = append(d.Clips, d.Clips[0]) }, timeline.ErrDuplicateID},
		{"empty region", func(d *Document) {
			d.Markers = []Marker{{Kind: "region", TimeMs: 10}}
		}, ErrInvalidMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			_, err := d.Build()
			if !errors.Is(err, tt.want) {
				t.Errorf("Build err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := valid().Build(); err != nil {
		t.Errorf("valid document: %v", err)
	}
}

func TestRecordErrorLocatesRecord(t *testing.T) {
	d := &Document{
		Version: Version,
		Tracks:  []Track{{Kind: "video"}},
		Clips:   []Clip{{DurationMs: 1000}, {DurationMs: 1000, TrackIndex: 4}},
	}
	_, err := d.Build()
	var rerr *RecordError
	if !errors.As(err, &rerr) || rerr.Kind != "clip" || rerr.Index != 1 {
		t.Errorf("err = %v", err)
	}
}

func TestSplitIndex(t *testing.T) {
	counts := map[timeline.TrackKind]int{timeline.Video: 2, timeline.Audio: 1, timeline.Subtitle: 1}
	tests := []struct {
		flat  int
		kind  timeline.TrackKind
		local int
		ok    bool
	}{
		{0, timeline.Video, 0, true},
		{1, timeline.Video, 1, true},
		{2, timeline.Audio, 0, true},
		{3, timeline.Subtitle, 0, true},
		{4, 0, 0, false},
		{-1, 0, 0, false},
	}
	for _, tt := range tests {
		kind, local, ok := SplitIndex(counts, tt.flat)
		if ok != tt.ok || (ok && (kind != tt.kind || local != tt.local)) {
			t.Errorf("SplitIndex(%d) = %v,%d,%v", tt.flat, kind, local, ok)
		}
		if ok {
			if back := FlatIndex(counts, kind, local); back != tt.flat {
				t.Errorf("FlatIndex(%v,%d) = %d, want %d", kind, local, back, tt.flat)
			}
		}
	}
}

func TestKeyframesWithoutIDs(t *testing.T) {
	d := &Document{
		Version: Version,
		Tracks:  []Track{{Kind: "video"}},
		Clips: []Clip{{
			DurationMs: 1000,
			Curves: map[string][]Keyframe{
				"opacity": {
					{Time: 1, Value: 1, Interpolation: "linear"},
					{Time: 0, Value: 0, Interpolation: "ease-out"},
				},
			},
		}},
	}
	tl, err := d.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	keys := tl.Clips()[0].Curve(timeline.Opacity).Keyframes()
	if len(keys) != 2 || keys[0].Time != 0 || keys[0].Interpolation != keyframe.EaseOut {
		t.Fatalf("keys = %+v", keys)
	}
	if keys[0].ID == 0 || keys[1].ID == 0 || keys[0].ID == keys[1].ID {
		t.Errorf("ids not assigned: %d, %d", keys[0].ID, keys[1].ID)
	}
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, FromTimeline(buildTimeline(t), Settings{FPS: 30})); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `"trackIndex"`) {
		t.Error("trackIndex field missing from output")
	}
	doc, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Clips) != 4 || len(doc.Markers) != 2 {
		t.Errorf("decoded %d clips, %d markers", len(doc.Clips), len(doc.Markers))
	}

	if _, err := Decode(strings.NewReader(`{"version": 2}`)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Decode newer err = %v", err)
	}
	if _, err := Decode(strings.NewReader(`{`)); err == nil {
		t.Error("Decode accepted truncated JSON")
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cut.json")
	tl := buildTimeline(t)

	if err := Save(path, FromTimeline(tl, Settings{})); err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := doc.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(got.Snapshot(), tl.Snapshot()) {
		t.Error("snapshot changed across Save/Load")
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "nested", ".cutline-tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}

	_, err = Load(filepath.Join(dir, "missing.json"))
	var perr *PathError
	if !errors.As(err, &perr) || perr.Op != "load" || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load missing err = %v", err)
	}
}
