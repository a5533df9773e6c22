package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/cutline/internal/engine/timeline"
)

// ClipInfo describes a clip registered in a MemoryEngine.
type ClipInfo struct {
	Handle      Handle
	Track       Handle
	Path        string
	StartMs     int64
	DurationMs  int64
	TrimStartMs int64
	TrimEndMs   int64
}

type memTimeline struct {
	width, height int
	fps           float64
	tracks        map[Handle]timeline.TrackKind
	clips         map[Handle]*ClipInfo
	cacheClears   int
}

// MemoryEngine is an in-process Engine. It keeps registrations in maps,
// renders blank frames and can be told to fail specific calls.
// It is safe for concurrent use.
type MemoryEngine struct {
	mu        sync.Mutex
	next      Handle
	timelines map[Handle]*memTimeline
	failures  map[string]error
	calls     []string
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		timelines: make(map[Handle]*memTimeline),
		failures:  make(map[string]error),
	}
}

// FailNext makes the next call named op return err.
// Op names: create-timeline, add-track, remove-track, add-clip,
// remove-clip, set-clip-trim, clear-cache, render-frame.
func (m *MemoryEngine) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls returns the names of every call made, in order.
func (m *MemoryEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// ResetCalls clears the call log.
func (m *MemoryEngine) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Clips returns the clips registered on a timeline, ordered by handle.
func (m *MemoryEngine) Clips(tl Handle) []ClipInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timelines[tl]
	if !ok {
		return nil
	}
	out := make([]ClipInfo, 0, len(t.clips))
	for _, c := range t.clips {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Clip returns one registered clip.
func (m *MemoryEngine) Clip(tl, clip Handle) (ClipInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timelines[tl]; ok {
		if c, ok := t.clips[clip]; ok {
			return *c, true
		}
	}
	return ClipInfo{}, false
}

// TrackCount returns the number of tracks on a timeline.
func (m *MemoryEngine) TrackCount(tl Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timelines[tl]; ok {
		return len(t.tracks)
	}
	return 0
}

// CacheClears returns how many times ClearCache ran on a timeline.
func (m *MemoryEngine) CacheClears(tl Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timelines[tl]; ok {
		return t.cacheClears
	}
	return 0
}

// begin records a call and returns any injected failure. Caller holds mu.
func (m *MemoryEngine) begin(op string) error {
	m.calls = append(m.calls, op)
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

func (m *MemoryEngine) issue() Handle {
	m.next++
	return m.next
}

// CreateTimeline implements Engine.
func (m *MemoryEngine) CreateTimeline(width, height int, fps float64) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("create-timeline"); err != nil {
		return 0, err
	}
	if width <= 0 || height <= 0 || fps <= 0 {
		return 0, fmt.Errorf("invalid format %dx%d@%g", width, height, fps)
	}
	h := m.issue()
	m.timelines[h] = &memTimeline{
		width:  width,
		height: height,
		fps:    fps,
		tracks: make(map[Handle]timeline.TrackKind),
		clips:  make(map[Handle]*ClipInfo),
	}
	return h, nil
}

// DestroyTimeline implements Engine.
func (m *MemoryEngine) DestroyTimeline(tl Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("destroy-timeline"); err != nil {
		return err
	}
	if _, ok := m.timelines[tl]; !ok {
		return ErrNotFound
	}
	delete(m.timelines, tl)
	return nil
}

// AddTrack implements Engine.
func (m *MemoryEngine) AddTrack(tl Handle, kind timeline.TrackKind) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("add-track"); err != nil {
		return 0, err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return 0, ErrNotFound
	}
	if !kind.HasEngineTrack() {
		return 0, fmt.Errorf("unsupported track kind %s", kind)
	}
	h := m.issue()
	t.tracks[h] = kind
	return h, nil
}

// RemoveTrack implements Engine.
func (m *MemoryEngine) RemoveTrack(tl, track Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("remove-track"); err != nil {
		return err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return ErrNotFound
	}
	if _, ok := t.tracks[track]; !ok {
		return ErrNotFound
	}
	delete(t.tracks, track)
	for h, c := range t.clips {
		if c.Track == track {
			delete(t.clips, h)
		}
	}
	return nil
}

// AddClip implements Engine.
func (m *MemoryEngine) AddClip(tl, track Handle, path string, startMs, durationMs int64) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("add-clip"); err != nil {
		return 0, err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return 0, ErrNotFound
	}
	if _, ok := t.tracks[track]; !ok {
		return 0, ErrNotFound
	}
	if durationMs <= 0 {
		return 0, fmt.Errorf("invalid clip duration %d", durationMs)
	}
	h := m.issue()
	t.clips[h] = &ClipInfo{
		Handle:     h,
		Track:      track,
		Path:       path,
		StartMs:    startMs,
		DurationMs: durationMs,
		TrimEndMs:  durationMs,
	}
	return h, nil
}

// RemoveClip implements Engine.
func (m *MemoryEngine) RemoveClip(tl, track, clip Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("remove-clip"); err != nil {
		return err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return ErrNotFound
	}
	c, ok := t.clips[clip]
	if !ok || c.Track != track {
		return ErrNotFound
	}
	delete(t.clips, clip)
	return nil
}

// SetClipTrim implements Engine.
func (m *MemoryEngine) SetClipTrim(tl, track, clip Handle, trimStartMs, trimEndMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("set-clip-trim"); err != nil {
		return err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return ErrNotFound
	}
	c, ok := t.clips[clip]
	if !ok || c.Track != track {
		return ErrNotFound
	}
	if trimStartMs < 0 || trimEndMs <= trimStartMs {
		return fmt.Errorf("invalid trim [%d,%d)", trimStartMs, trimEndMs)
	}
	c.TrimStartMs, c.TrimEndMs = trimStartMs, trimEndMs
	return nil
}

// ClearCache implements Engine.
func (m *MemoryEngine) ClearCache(tl Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("clear-cache"); err != nil {
		return err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return ErrNotFound
	}
	t.cacheClears++
	return nil
}

// RenderFrame implements Engine. Frames are opaque black.
func (m *MemoryEngine) RenderFrame(tl Handle, timestampMs int64) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("render-frame"); err != nil {
		return Frame{}, err
	}
	t, ok := m.timelines[tl]
	if !ok {
		return Frame{}, ErrNotFound
	}
	pixels := make([]byte, t.width*t.height*4)
	for i := 3; i < len(pixels); i += 4 {
		pixels[i] = 0xff
	}
	return Frame{TimestampMs: timestampMs, Width: t.width, Height: t.height, Pixels: pixels}, nil
}
