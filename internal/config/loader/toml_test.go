package loader

import (
	"errors"
	"io/fs"
	"reflect"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/cutline.toml", `
[timeline]
width = 1280
fps = 25.0

[snap]
enabled = false
threshold_ms = 40
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/cutline.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tl, ok := config["timeline"].(map[string]any)
	if !ok {
		t.Fatal("expected timeline to be a map")
	}
	if tl["width"] != int64(1280) {
		t.Errorf("width = %v (%T), want 1280", tl["width"], tl["width"])
	}
	if tl["fps"] != 25.0 {
		t.Errorf("fps = %v, want 25", tl["fps"])
	}

	snap, ok := config["snap"].(map[string]any)
	if !ok {
		t.Fatal("expected snap to be a map")
	}
	if snap["enabled"] != false || snap["threshold_ms"] != int64(40) {
		t.Errorf("snap = %v", snap)
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", "[timeline\nwidth = 4\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/invalid.toml").Load()
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Path != "/invalid.toml" {
		t.Errorf("Path = %q", pe.Path)
	}
	if pe.Line == 0 {
		t.Error("expected a line number")
	}
	if pe.Unwrap() == nil {
		t.Error("Unwrap returned nil")
	}
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Path: "a.toml", Message: "bad"}, "parse error in a.toml: bad"},
		{&ParseError{Path: "a.toml", Line: 3, Message: "bad"}, "parse error in a.toml at line 3: bad"},
		{&ParseError{Path: "a.toml", Line: 3, Column: 7, Message: "bad"}, "parse error in a.toml at line 3, column 7: bad"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"timeline": map[string]any{"width": int64(1920), "height": int64(1080)},
		"logging":  map[string]any{"level": "info"},
	}
	src := map[string]any{
		"timeline": map[string]any{"width": int64(1280)},
		"logging":  "flat",
		"preview":  map[string]any{"workers": int64(2)},
	}

	got := DeepMerge(dst, src)
	want := map[string]any{
		"timeline": map[string]any{"width": int64(1280), "height": int64(1080)},
		"logging":  "flat",
		"preview":  map[string]any{"workers": int64(2)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeepMerge = %v, want %v", got, want)
	}

	if got := DeepMerge(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("DeepMerge(nil, nil) = %v", got)
	}
}
