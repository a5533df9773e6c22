package loader

import (
	"testing"
)

func getByPath(data map[string]any, path string) (any, bool) {
	section, key := path, ""
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			section, key = path[:i], path[i+1:]
			break
		}
	}
	table, ok := data[section].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := table[key]
	return v, ok
}

func newTestEnvLoader(vars ...string) *EnvLoader {
	l := NewEnvLoader(DefaultEnvPrefix)
	l.environ = func() []string { return vars }
	return l
}

func TestEnvLoader_Load(t *testing.T) {
	l := newTestEnvLoader(
		"CUTLINE_LOG_LEVEL=debug",
		"CUTLINE_SNAP_THRESHOLD_MS=250",
		"CUTLINE_SNAP_ENABLED=off",
		"CUTLINE_TIMELINE_FPS=23.976",
		"CUTLINE_DB=/tmp/cutline.db",
		"HOME=/root",
		"CUTLINE_BARE=1",
	)
	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"logging.level", "debug"},
		{"snap.threshold_ms", int64(250)},
		{"snap.enabled", false},
		{"timeline.fps", 23.976},
		{"autosave.path", "/tmp/cutline.db"},
	}
	for _, tt := range tests {
		got, ok := getByPath(config, tt.path)
		if !ok || got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.path, got, got, tt.want)
		}
	}

	if _, ok := config["home"]; ok {
		t.Error("unprefixed variable was loaded")
	}
	if _, ok := config["bare"]; ok {
		t.Error("variable without a key part was loaded")
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	l := newTestEnvLoader("CUTLINE_WORKERS=3")
	l.AddMapping("CUTLINE_WORKERS", "preview.workers")

	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, ok := getByPath(config, "preview.workers"); !ok || got != int64(3) {
		t.Errorf("preview.workers = %v", got)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		env  string
		want string
	}{
		{"CUTLINE_EDIT_MIN_CLIP_DURATION_MS", "edit.min_clip_duration_ms"},
		{"CUTLINE_HISTORY_MAX_ENTRIES", "history.max_entries"},
		{"CUTLINE_PREVIEW_WORKERS", "preview.workers"},
		{"CUTLINE_SIMPLE", ""},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"1", int64(1)},
		{"0", int64(0)},
		{"-40", int64(-40)},
		{"29.97", 29.97},
		{"yes", true},
		{"Off", false},
		{"json", "json"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v", tt.in, got, got, tt.want)
		}
	}
}
