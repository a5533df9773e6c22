package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newCollector() *collector {
	return &collector{ch: make(chan Event, 16)}
}

func (c *collector) handle(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	c.ch <- ev
}

func (c *collector) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-c.ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func (c *collector) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case ev := <-c.ch:
		t.Fatalf("unexpected event %s %s", ev.Op, ev.Path)
	case <-time.After(d):
	}
}

func newTestWatcher(t *testing.T) (*Watcher, *collector) {
	t.Helper()
	c := newCollector()
	w, err := New(c.handle, WithDebounce(30*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, c
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatchAndUnwatch(t *testing.T) {
	dir := t.TempDir()
	w, _ := newTestWatcher(t)

	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")
	for _, p := range []string{a, b, a} {
		if err := w.Watch(p); err != nil {
			t.Fatalf("Watch(%s): %v", p, err)
		}
	}
	if got := len(w.WatchedFiles()); got != 2 {
		t.Errorf("WatchedFiles = %d, want 2", got)
	}
	if w.dirs[dir] != 2 {
		t.Errorf("directory refcount = %d, want 2", w.dirs[dir])
	}

	if err := w.Unwatch(a); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if err := w.Unwatch(b); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if len(w.WatchedFiles()) != 0 || len(w.dirs) != 0 {
		t.Errorf("state after unwatch: files=%v dirs=%v", w.WatchedFiles(), w.dirs)
	}

	if err := w.Watch(filepath.Join(dir, "missing", "c.toml")); err == nil {
		t.Error("Watch in a missing directory succeeded")
	}
}

func TestWritesAreDebounced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cutline.toml")
	writeFile(t, path, "a = 1\n")

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	for i := 0; i < 5; i++ {
		writeFile(t, path, "a = 2\n")
	}

	ev := c.next(t)
	if ev.Path != path {
		t.Errorf("Path = %q, want %q", ev.Path, path)
	}
	if ev.Op != OpWrite && ev.Op != OpCreate {
		t.Errorf("Op = %s, want write", ev.Op)
	}
	c.quiet(t, 150*time.Millisecond)
}

func TestCreateAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cutline.toml")

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, path, "a = 1\n")
	if ev := c.next(t); ev.Op != OpCreate {
		t.Errorf("Op = %s, want create", ev.Op)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if ev := c.next(t); ev.Op != OpRemove {
		t.Errorf("Op = %s, want remove", ev.Op)
	}
}

func TestOtherFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cutline.toml")
	writeFile(t, path, "a = 1\n")

	w, c := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, filepath.Join(dir, "other.toml"), "b = 1\n")
	c.quiet(t, 150*time.Millisecond)
}

func TestHandlerPanicKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cutline.toml")
	writeFile(t, path, "a = 1\n")

	calls := make(chan struct{}, 4)
	w, err := New(func(Event) {
		calls <- struct{}{}
		panic("boom")
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	for i := 0; i < 2; i++ {
		writeFile(t, path, "a = 2\n")
		select {
		case <-calls:
		case <-time.After(3 * time.Second):
			t.Fatalf("handler not called for write %d", i)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.Watch("x.toml"); err != ErrClosed {
		t.Errorf("Watch after Close = %v, want ErrClosed", err)
	}
}
