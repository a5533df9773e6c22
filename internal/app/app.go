// Package app wires the editing core into a headless application: settings,
// logging, the in-memory rendering engine, the project document, autosave
// revisions and the preview cache, driven by a line-oriented edit script.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/cutline/internal/autosave"
	"github.com/dshills/cutline/internal/config"
	"github.com/dshills/cutline/internal/engine"
	"github.com/dshills/cutline/internal/engine/notify"
	"github.com/dshills/cutline/internal/logging"
	"github.com/dshills/cutline/internal/preview"
	"github.com/dshills/cutline/internal/project"
	"github.com/dshills/cutline/internal/render"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML settings file. Empty uses defaults and the
	// environment only.
	ConfigPath string

	// ProjectPath is the document to open. A missing file starts a new
	// project with one video and one audio track.
	ProjectPath string

	// OutputPath is where Save writes. Defaults to ProjectPath.
	OutputPath string

	// ProjectName keys autosave revisions. Defaults to the base name of
	// ProjectPath.
	ProjectName string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// NoAutosave disables the revision store even if configured.
	NoAutosave bool

	// WatchConfig reloads settings when the config file changes.
	WatchConfig bool
}

// Application owns every component of a headless editing session.
// Apart from settings reloads it is used from one goroutine.
type Application struct {
	opts     Options
	config   *config.Manager
	logger   *slog.Logger
	engine   *render.MemoryEngine
	editor   *engine.Editor
	store    *autosave.Store
	previews *preview.Cache

	settings project.Settings
	name     string
	dirty    bool
	sub      *notify.Subscription
	reloaded atomic.Pointer[config.Config]

	closers []func()
}

// New bootstraps an application. On failure everything already started
// is shut down again.
func New(opts Options) (*Application, error) {
	a := &Application{opts: opts}
	if err := a.bootstrap(); err != nil {
		a.Shutdown()
		return nil, err
	}
	return a, nil
}

func (a *Application) bootstrap() error {
	mgr, err := config.NewManager(a.opts.ConfigPath, nil)
	if err != nil {
		return NewOperationError("load config", a.opts.ConfigPath, err)
	}
	a.config = mgr
	a.onClose(func() { mgr.Close() })
	cfg := mgr.Current()

	level := cfg.Logging.Level
	if a.opts.LogLevel != "" {
		level = a.opts.LogLevel
	}
	a.logger = logging.New(level, cfg.Logging.Format, a.opts.LogOutput)

	doc, err := openDocument(a.opts.ProjectPath)
	if err != nil {
		return err
	}
	a.settings = settingsFrom(cfg)
	if doc != nil {
		a.settings = doc.Settings
	}

	a.engine = render.NewMemoryEngine()
	ed, err := engine.New(
		engine.WithRenderEngine(a.engine),
		engine.WithFormat(a.settings.Width, a.settings.Height, a.settings.FPS),
		engine.WithSnap(a.settings.SnapEnabled, a.settings.SnapThresholdMs, cfg.Snap.IncludeMarkers),
		engine.WithMaxUndoEntries(cfg.History.MaxEntries),
		engine.WithMinClipDuration(cfg.Edit.MinClipDurationMs),
		engine.WithLogger(a.logger),
	)
	if err != nil {
		return NewOperationError("create editor", "", err)
	}
	a.editor = ed
	a.onClose(ed.Close)

	if err := a.loadInitial(doc); err != nil {
		return err
	}

	a.name = a.opts.ProjectName
	if a.name == "" {
		a.name = projectName(a.opts.ProjectPath)
	}
	if cfg.Autosave.Enabled && !a.opts.NoAutosave {
		store, err := autosave.Open(cfg.Autosave.Path, a.logger)
		if err != nil {
			return NewOperationError("open autosave", cfg.Autosave.Path, err)
		}
		a.store = store
		a.onClose(func() { store.Close() })
	}

	notifier := ed.Notifier()
	a.previews = preview.New(
		preview.EngineThumbnails{Engine: a.engine, FPS: a.settings.FPS},
		nil,
		preview.WithWorkers(cfg.Preview.Workers),
		preview.WithLogger(a.logger),
		preview.OnError(func(k preview.Key, err error) {
			notifier.NotifyError(notify.ChangeResourceError, k.String(), err)
		}),
	)
	a.onClose(a.previews.Close)

	a.sub = notifier.SubscribeType(func(notify.Change) {
		a.dirty = true
	}, notify.ChangeEdit, notify.ChangeUndo, notify.ChangeRedo)
	notifier.SubscribeType(func(c notify.Change) {
		a.logger.Warn("engine call failed", "op", c.Op, "error", c.Err)
	}, notify.ChangeEngineError, notify.ChangeResourceError)

	mgr.Subscribe(func(_, cur *config.Config) {
		a.reloaded.Store(cur)
	})
	if a.opts.WatchConfig {
		if err := mgr.Watch(100 * time.Millisecond); err != nil {
			return NewOperationError("watch config", a.opts.ConfigPath, err)
		}
	}

	a.logger.Info("session ready",
		"project", a.name,
		"tracks", len(ed.Timeline().AllTracks()),
		"clips", ed.Timeline().ClipCount(),
		"autosave", a.store != nil,
	)
	return nil
}

func (a *Application) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// applyReload adopts settings reloaded since the last call. Snapping and
// the history bound are live; the timeline format needs a new session.
func (a *Application) applyReload() {
	cfg := a.reloaded.Swap(nil)
	if cfg == nil {
		return
	}
	s := a.editor.Snapper()
	s.Enabled = cfg.Snap.Enabled
	s.ThresholdMs = cfg.Snap.ThresholdMs
	s.IncludeMarkers = cfg.Snap.IncludeMarkers
	a.settings.SnapEnabled = cfg.Snap.Enabled
	a.settings.SnapThresholdMs = cfg.Snap.ThresholdMs
	a.editor.SetMaxUndoEntries(cfg.History.MaxEntries)
	a.logger.Info("settings applied",
		"snap", s.Enabled,
		"threshold_ms", s.ThresholdMs,
		"max_undo", cfg.History.MaxEntries,
	)
}

// Editor returns the editing facade.
func (a *Application) Editor() *engine.Editor {
	return a.editor
}

// Engine returns the in-memory rendering engine.
func (a *Application) Engine() *render.MemoryEngine {
	return a.engine
}

// Config returns the active settings.
func (a *Application) Config() *config.Config {
	return a.config.Current()
}

// Previews returns the thumbnail cache.
func (a *Application) Previews() *preview.Cache {
	return a.previews
}

// Name returns the autosave project name.
func (a *Application) Name() string {
	return a.name
}

// Dirty reports edits since the last save or autosave.
func (a *Application) Dirty() bool {
	return a.dirty
}

// Shutdown flushes a final autosave revision and stops every component
// in reverse start order. It is safe to call more than once.
func (a *Application) Shutdown() {
	if a.store != nil && a.dirty {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := a.Checkpoint(ctx, "shutdown"); err != nil && !errors.Is(err, ErrNoAutosave) {
			a.logger.Warn("final autosave failed", "error", err)
		}
		cancel()
	}
	if a.sub != nil {
		a.sub.Unsubscribe()
		a.sub = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.store = nil
}

func projectName(path string) string {
	if path == "" {
		return "untitled"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
