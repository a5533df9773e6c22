package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dshills/cutline/internal/autosave"
	"github.com/dshills/cutline/internal/config"
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/project"
)

func settingsFrom(cfg *config.Config) project.Settings {
	return project.Settings{
		Width:           cfg.Timeline.Width,
		Height:          cfg.Timeline.Height,
		FPS:             cfg.Timeline.FPS,
		SnapEnabled:     cfg.Snap.Enabled,
		SnapThresholdMs: cfg.Snap.ThresholdMs,
		OutPointMs:      -1,
	}
}

// openDocument reads path. A missing file yields nil and no error.
func openDocument(path string) (*project.Document, error) {
	if path == "" {
		return nil, nil
	}
	doc, err := project.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	return doc, nil
}

// loadInitial hands the editor either the opened document or a fresh
// timeline with one video and one audio track.
func (a *Application) loadInitial(doc *project.Document) error {
	if doc == nil {
		tl := timeline.New()
		for _, t := range []*timeline.Track{
			timeline.NewTrack(timeline.Video, "V1"),
			timeline.NewTrack(timeline.Audio, "A1"),
		} {
			if err := tl.AddTrack(t); err != nil {
				return err
			}
		}
		return a.editor.Load(tl)
	}

	tl, err := doc.Build()
	if err != nil {
		return NewOperationError("open", a.opts.ProjectPath, err)
	}
	return a.editor.Load(tl)
}

// Document captures the current timeline.
func (a *Application) Document() *project.Document {
	s := a.settings
	snapper := a.editor.Snapper()
	s.SnapEnabled = snapper.Enabled
	s.SnapThresholdMs = snapper.ThresholdMs
	return project.FromTimeline(a.editor.Timeline(), s)
}

// Save writes the document to the output path, or to path if given.
func (a *Application) Save(path string) error {
	if path == "" {
		path = a.opts.OutputPath
	}
	if path == "" {
		path = a.opts.ProjectPath
	}
	if path == "" {
		return NewOperationError("save", "", fmt.Errorf("%w: no output path", ErrUsage))
	}
	if err := project.Save(path, a.Document()); err != nil {
		return NewOperationError("save", path, err)
	}
	a.dirty = false
	a.logger.Info("project saved", "path", path)
	return nil
}

// Checkpoint stores the current document as a new autosave revision and
// prunes old ones.
func (a *Application) Checkpoint(ctx context.Context, description string) (autosave.Revision, error) {
	if a.store == nil {
		return autosave.Revision{}, ErrNoAutosave
	}
	rev, err := a.store.Save(ctx, a.name, a.Document(), description)
	if err != nil {
		return autosave.Revision{}, NewOperationError("autosave", a.name, err)
	}
	if _, err := a.store.Prune(ctx, a.name, a.config.Current().Autosave.Keep); err != nil {
		a.logger.Warn("autosave prune failed", "project", a.name, "error", err)
	}
	a.dirty = false
	return rev, nil
}

// Revisions lists stored autosave revisions, newest first.
func (a *Application) Revisions(ctx context.Context) ([]autosave.Revision, error) {
	if a.store == nil {
		return nil, ErrNoAutosave
	}
	return a.store.Revisions(ctx, a.name)
}

// Restore replaces the timeline with an autosave revision. A number of
// zero or less restores the newest.
func (a *Application) Restore(ctx context.Context, number int64) (autosave.Revision, error) {
	if a.store == nil {
		return autosave.Revision{}, ErrNoAutosave
	}

	var (
		doc *project.Document
		rev autosave.Revision
		err error
	)
	if number > 0 {
		doc, rev, err = a.store.Load(ctx, a.name, number)
	} else {
		doc, rev, err = a.store.Latest(ctx, a.name)
	}
	if err != nil {
		return autosave.Revision{}, NewOperationError("restore", a.name, err)
	}

	tl, err := doc.Build()
	if err != nil {
		return autosave.Revision{}, NewOperationError("restore", a.name, err)
	}
	s := doc.Settings
	a.editor.SetFormat(s.Width, s.Height, s.FPS)
	if err := a.editor.Load(tl); err != nil {
		return autosave.Revision{}, err
	}
	a.settings.Width, a.settings.Height, a.settings.FPS = a.editor.Format()
	a.logger.Info("revision restored", "project", a.name, "revision", rev.Number)
	return rev, nil
}
