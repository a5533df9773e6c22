package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/cutline/internal/config/loader"
)

// Config holds every tunable setting.
type Config struct {
	Timeline TimelineConfig `toml:"timeline"`
	Snap     SnapConfig     `toml:"snap"`
	History  HistoryConfig  `toml:"history"`
	Edit     EditConfig     `toml:"edit"`
	Logging  LoggingConfig  `toml:"logging"`
	Autosave AutosaveConfig `toml:"autosave"`
	Preview  PreviewConfig  `toml:"preview"`
}

// TimelineConfig is the engine timeline format.
type TimelineConfig struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	FPS    float64 `toml:"fps"`
}

// SnapConfig controls snapping during drags.
type SnapConfig struct {
	Enabled        bool  `toml:"enabled"`
	ThresholdMs    int64 `toml:"threshold_ms"`
	IncludeMarkers bool  `toml:"include_markers"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// EditConfig holds edit algorithm limits.
type EditConfig struct {
	MinClipDurationMs int64 `toml:"min_clip_duration_ms"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AutosaveConfig locates the revision database.
type AutosaveConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// Keep is how many revisions per project survive pruning.
	Keep int `toml:"keep"`
}

// PreviewConfig bounds background thumbnail and waveform jobs.
type PreviewConfig struct {
	Workers int `toml:"workers"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Timeline: TimelineConfig{Width: 1920, Height: 1080, FPS: 30},
		Snap:     SnapConfig{Enabled: true, ThresholdMs: 100},
		History:  HistoryConfig{MaxEntries: 100},
		Edit:     EditConfig{MinClipDurationMs: 100},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Autosave: AutosaveConfig{Path: "cutline-autosave.db", Keep: 50},
		Preview:  PreviewConfig{Workers: 4},
	}
}

// Load reads path and CUTLINE_ environment variables over the defaults.
// The environment wins over the file. An empty path or a missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	var file loader.Loader
	if path != "" {
		file = loader.NewTOMLLoader(path)
	}
	return LoadFrom(file, loader.NewEnvLoader(loader.DefaultEnvPrefix))
}

// LoadFrom merges sources in order, later sources winning, then decodes
// and validates the result. Nil sources are skipped.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, src := range sources {
		if src == nil {
			continue
		}
		m, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg, err := Decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode applies a settings map over the defaults.
func Decode(m map[string]any) (*Config, error) {
	cfg := Default()
	if len(m) == 0 {
		return cfg, nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs ValidationErrors
	check := func(ok bool, path, msg string, v any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
		}
	}

	check(c.Timeline.Width > 0, "timeline.width", "must be positive", c.Timeline.Width)
	check(c.Timeline.Height > 0, "timeline.height", "must be positive", c.Timeline.Height)
	check(c.Timeline.FPS > 0, "timeline.fps", "must be positive", c.Timeline.FPS)
	check(c.Snap.ThresholdMs >= 0, "snap.threshold_ms", "must not be negative", c.Snap.ThresholdMs)
	check(c.History.MaxEntries > 0, "history.max_entries", "must be positive", c.History.MaxEntries)
	check(c.Edit.MinClipDurationMs > 0, "edit.min_clip_duration_ms", "must be positive", c.Edit.MinClipDurationMs)
	check(validLevel(c.Logging.Level), "logging.level", "must be debug, info, warn or error", c.Logging.Level)
	check(c.Logging.Format == "text" || c.Logging.Format == "json", "logging.format", "must be text or json", c.Logging.Format)
	check(c.Autosave.Keep >= 0, "autosave.keep", "must not be negative", c.Autosave.Keep)
	check(!c.Autosave.Enabled || c.Autosave.Path != "", "autosave.path", "required when autosave is enabled", c.Autosave.Path)
	check(c.Preview.Workers > 0, "preview.workers", "must be positive", c.Preview.Workers)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
