package engine

import (
	"log/slog"

	"github.com/dshills/cutline/internal/engine/notify"
	"github.com/dshills/cutline/internal/render"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 100
	DefaultWidth          = 1920
	DefaultHeight         = 1080
	DefaultFPS            = 30.0
)

// Option configures an Editor during creation.
type Option func(*Editor)

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Editor) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithMinClipDuration sets the shortest clip a trim or rolling edit may leave.
func WithMinClipDuration(ms int64) Option {
	return func(e *Editor) {
		if ms > 0 {
			e.minClipMs = ms
		}
	}
}

// WithSnap configures the snap resolver.
func WithSnap(enabled bool, thresholdMs int64, includeMarkers bool) Option {
	return func(e *Editor) {
		e.snap.Enabled = enabled
		if thresholdMs >= 0 {
			e.snap.ThresholdMs = thresholdMs
		}
		e.snap.IncludeMarkers = includeMarkers
	}
}

// WithFormat sets the engine timeline format.
func WithFormat(width, height int, fps float64) Option {
	return func(e *Editor) {
		if width > 0 && height > 0 && fps > 0 {
			e.width, e.height, e.fps = width, height, fps
		}
	}
}

// WithRenderEngine sets the rendering engine the editor keeps in sync.
// Without it the editor runs offline and every sync is a no-op.
func WithRenderEngine(eng render.Engine) Option {
	return func(e *Editor) {
		e.renderEngine = eng
	}
}

// WithNotifier sets the notifier that receives change notifications.
// The caller keeps ownership and closes it.
func WithNotifier(n *notify.Notifier) Option {
	return func(e *Editor) {
		if n != nil {
			e.notifier = n
			e.ownsNotifier = false
		}
	}
}

// WithLogger sets the editor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}
