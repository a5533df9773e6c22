package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/cutline/internal/engine/edit"
	"github.com/dshills/cutline/internal/engine/history"
	"github.com/dshills/cutline/internal/engine/keyframe"
	"github.com/dshills/cutline/internal/engine/link"
	"github.com/dshills/cutline/internal/engine/notify"
	"github.com/dshills/cutline/internal/engine/snap"
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/logging"
	"github.com/dshills/cutline/internal/render"
)

// Type re-exports for convenience.
type (
	// ID is the stable local identity of a track, clip or marker.
	ID = timeline.ID

	// Command is an undoable edit.
	Command = history.Command

	// Change is a published timeline notification.
	Change = notify.Change
)

// Editor is the command surface of the editing core.
//
// It owns the timeline, the render adapter and the undo history. Every edit
// goes through Execute, which applies the command, records it and publishes
// a notify.ChangeEdit. Undo and redo clear the engine's frame cache and
// publish notify.ChangeCacheClear.
//
// An Editor is single-writer: all calls must come from one goroutine.
// Observers registered on the notifier may run elsewhere when the notifier
// is asynchronous.
type Editor struct {
	tl       *timeline.Timeline
	sy       *render.Adapter
	history  *history.History
	links    *link.Manager
	snap     *snap.Resolver
	notifier *notify.Notifier
	logger   *slog.Logger

	gesture     *notify.Batch
	gestureName string

	// Configuration
	maxUndoEntries int
	minClipMs      int64
	width, height  int
	fps            float64
	renderEngine   render.Engine
	ownsNotifier   bool
	closed         bool
}

// New creates an Editor over an empty timeline with the given options.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		snap:           snap.NewResolver(),
		notifier:       notify.New(),
		ownsNotifier:   true,
		logger:         logging.Discard(),
		maxUndoEntries: DefaultMaxUndoEntries,
		minClipMs:      edit.MinClipDurationMs,
		width:          DefaultWidth,
		height:         DefaultHeight,
		fps:            DefaultFPS,
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}

	e.tl = timeline.New()
	e.links = link.New(e.tl)
	e.history = history.NewHistory(e.maxUndoEntries)
	e.sy = render.NewAdapter(e.renderEngine,
		render.WithLogger(logging.WithComponent(e.logger, "render")),
		render.WithErrorHandler(e.engineFailed),
	)
	if err := e.sy.Open(e.width, e.height, e.fps); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Editor) engineFailed(op string, err error) {
	e.notifier.NotifyError(notify.ChangeEngineError, op, err)
}

// Close destroys the engine timeline and, when the editor created it,
// closes the notifier.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.sy.Close()
	if e.ownsNotifier {
		e.notifier.Close()
	}
}

// ============================================================================
// Accessors
// ============================================================================

// Timeline returns the edited timeline. Callers must not mutate it directly.
func (e *Editor) Timeline() *timeline.Timeline {
	return e.tl
}

// Adapter returns the render adapter.
func (e *Editor) Adapter() *render.Adapter {
	return e.sy
}

// History returns the undo history.
func (e *Editor) History() *history.History {
	return e.history
}

// Notifier returns the change notifier.
func (e *Editor) Notifier() *notify.Notifier {
	return e.notifier
}

// Snapper returns the snap resolver. Its settings may be changed in place.
func (e *Editor) Snapper() *snap.Resolver {
	return e.snap
}

// MinClipDuration returns the trim and roll floor in milliseconds.
func (e *Editor) MinClipDuration() int64 {
	return e.minClipMs
}

// ============================================================================
// Execution
// ============================================================================

// Execute applies cmd and records it for undo. A rejected command changes
// nothing and is not recorded.
func (e *Editor) Execute(cmd Command) error {
	if e.closed {
		return ErrClosed
	}
	if err := e.history.Execute(cmd, e.tl, e.sy); err != nil {
		e.logger.Debug("edit rejected", "edit", cmd.Description(), "error", err)
		return err
	}

	e.edited(cmd.Description())
	return nil
}

// ExecuteGrouped applies cmds as one undo entry named name. If any command
// fails, the ones already applied are reverted and nothing is recorded.
func (e *Editor) ExecuteGrouped(name string, cmds ...Command) error {
	if e.closed {
		return ErrClosed
	}
	if len(cmds) == 0 {
		return nil
	}
	if err := e.history.ExecuteGrouped(name, e.tl, e.sy, cmds...); err != nil {
		e.logger.Debug("edit rejected", "edit", name, "error", err)
		return err
	}
	e.edited(name)
	return nil
}

// edited publishes an edit, or holds it back while a gesture is open.
func (e *Editor) edited(desc string) {
	change := notify.Change{Type: notify.ChangeEdit, Description: desc}
	if e.gesture != nil {
		e.gesture.Add(change)
		return
	}
	e.notifier.Notify(change)
}

// Undo reverses the most recent edit. It returns
// history.ErrGestureInProgress while a gesture is open.
func (e *Editor) Undo() error {
	info, _ := e.history.PeekUndo()
	if err := e.history.Undo(e.tl, e.sy); err != nil {
		return err
	}
	e.afterReplay(notify.ChangeUndo, info.Description)
	return nil
}

// Redo reapplies the most recently undone edit.
func (e *Editor) Redo() error {
	info, _ := e.history.PeekRedo()
	if err := e.history.Redo(e.tl, e.sy); err != nil {
		return err
	}
	e.afterReplay(notify.ChangeRedo, info.Description)
	return nil
}

// afterReplay drops frames cached under reissued handles.
func (e *Editor) afterReplay(t notify.ChangeType, desc string) {
	e.sy.ClearCache()
	e.notifier.Notify(notify.Change{Type: t, Description: desc})
	e.notifier.Notify(notify.Change{Type: notify.ChangeCacheClear})
}

// CanUndo returns true if an undo is possible now.
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if a redo is possible now.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of undoable edits.
func (e *Editor) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of redoable edits.
func (e *Editor) RedoCount() int {
	return e.history.RedoCount()
}

// UndoHistory describes the undoable edits, oldest first.
func (e *Editor) UndoHistory() []history.OperationInfo {
	return e.history.UndoInfo()
}

// SetMaxUndoEntries changes the history bound. The oldest entries beyond
// it are dropped.
func (e *Editor) SetMaxUndoEntries(max int) {
	e.history.SetMaxEntries(max)
}

// ClearHistory drops all undo and redo entries.
func (e *Editor) ClearHistory() {
	e.history.Clear()
	e.gesture = nil
}

// Checkpoint marks the current history position.
func (e *Editor) Checkpoint() history.Checkpoint {
	return e.history.CreateCheckpoint()
}

// UndoToCheckpoint undoes edits until the history is back at cp.
func (e *Editor) UndoToCheckpoint(cp history.Checkpoint) error {
	if e.history.IsEditing() {
		return history.ErrGestureInProgress
	}
	before := e.history.UndoCount()
	err := e.history.UndoToCheckpoint(cp, e.tl, e.sy)
	if e.history.UndoCount() != before {
		e.afterReplay(notify.ChangeUndo, "Undo To Checkpoint")
	}
	return err
}

// ============================================================================
// Gestures
// ============================================================================

// BeginGesture opens an interactive gesture such as a drag. Edits executed
// until CommitGesture form one undo entry, their notifications are held
// back, and Undo and Redo refuse to run.
func (e *Editor) BeginGesture(name string) error {
	if e.history.IsEditing() {
		return history.ErrGestureInProgress
	}
	e.history.SetEditing(true)
	e.history.BeginGroup(name)
	e.gesture = e.notifier.NewBatch()
	e.gestureName = name
	return nil
}

// InGesture returns true while a gesture is open.
func (e *Editor) InGesture() bool {
	return e.history.IsEditing()
}

// CommitGesture closes the open gesture and records its edits.
func (e *Editor) CommitGesture() error {
	if e.gesture == nil {
		return ErrNoGesture
	}
	e.history.EndGroup()
	e.history.SetEditing(false)
	e.gesture.Commit()
	e.gesture = nil
	return nil
}

// CancelGesture closes the open gesture and reverses its edits.
func (e *Editor) CancelGesture() error {
	if e.gesture == nil {
		return ErrNoGesture
	}
	cmds := e.history.CancelGroup()
	var errs []error
	for i := len(cmds) - 1; i >= 0; i-- {
		if err := cmds[i].Undo(e.tl, e.sy); err != nil {
			errs = append(errs, fmt.Errorf("cancel %s: %w", cmds[i].Description(), err))
		}
	}
	e.history.SetEditing(false)
	e.gesture.Discard()
	e.gesture = nil
	if len(cmds) > 0 {
		e.afterReplay(notify.ChangeUndo, e.gestureName)
	}
	return errors.Join(errs...)
}

// ============================================================================
// Clip edits
// ============================================================================

// Split cuts a clip at atMs and returns the ID of the new right half.
func (e *Editor) Split(clip ID, atMs int64) (ID, error) {
	cmd := edit.NewSplit(clip, atMs)
	if err := e.Execute(cmd); err != nil {
		return "", err
	}
	return cmd.RightID(), nil
}

// SplitAll cuts every clip under atMs on unlocked tracks as one edit.
func (e *Editor) SplitAll(atMs int64) error {
	return e.Execute(edit.NewSplitAll(atMs))
}

// RippleDelete removes a clip and closes the gap behind it.
func (e *Editor) RippleDelete(clip ID) error {
	return e.Execute(edit.NewRippleDelete(clip))
}

// RippleMove moves a clip and everything after it on its track.
func (e *Editor) RippleMove(clip ID, newStartMs int64) error {
	return e.Execute(edit.NewRippleMove(clip, newStartMs))
}

// RippleInsert places a copy of clip on track at atMs, pushing later clips
// right. It returns the stored clip's ID.
func (e *Editor) RippleInsert(clip *timeline.Clip, track ID, atMs int64) (ID, error) {
	cmd := edit.NewRippleInsert(clip, track, atMs)
	if err := e.Execute(cmd); err != nil {
		return "", err
	}
	return cmd.ClipID(), nil
}

// Roll moves the cut between two adjacent clips to boundaryMs.
func (e *Editor) Roll(left, right ID, boundaryMs int64) error {
	cmd := edit.NewRoll(left, right, boundaryMs)
	cmd.MinDurationMs = e.minClipMs
	return e.Execute(cmd)
}

// Trim moves one edge of a clip to timeMs.
func (e *Editor) Trim(clip ID, edge edit.Edge, timeMs int64) error {
	cmd := edit.NewTrim(clip, edge, timeMs)
	cmd.MinDurationMs = e.minClipMs
	return e.Execute(cmd)
}

// Move repositions a clip. An empty track keeps the clip's current track.
func (e *Editor) Move(clip ID, newStartMs int64, track ID, withLinked bool) error {
	cmd := edit.NewMove(clip, newStartMs, withLinked)
	cmd.TrackID = track
	return e.Execute(cmd)
}

// Delete removes a clip, and its linked partner when withLinked is set.
func (e *Editor) Delete(clip ID, withLinked bool) error {
	return e.Execute(edit.NewDelete(clip, withLinked))
}

// DeleteClips removes several clips as one edit. With withLinked, a partner
// that is also listed is deleted once.
func (e *Editor) DeleteClips(clips []ID, withLinked bool) error {
	seen := make(map[ID]bool, len(clips))
	cmds := make([]Command, 0, len(clips))
	for _, id := range clips {
		if seen[id] {
			continue
		}
		seen[id] = true
		if withLinked {
			if p := e.links.Partner(id); p != nil {
				seen[p.ID] = true
			}
		}
		cmds = append(cmds, edit.NewDelete(id, withLinked))
	}
	return e.ExecuteGrouped("Delete Clips", cmds...)
}

// AddClip stores a copy of clip where its TrackID and StartMs say and
// returns the stored ID.
func (e *Editor) AddClip(clip *timeline.Clip) (ID, error) {
	cmd := edit.NewAddClip(clip)
	if err := e.Execute(cmd); err != nil {
		return "", err
	}
	return cmd.ClipID(), nil
}

// DropClip adds a clip of the given source and duration at the insert
// position chosen by InsertPosition.
func (e *Editor) DropClip(sourcePath string, durationMs int64) (ID, error) {
	track, at, ok := e.InsertPosition(durationMs)
	if !ok {
		return "", ErrNoVideoTrack
	}
	return e.AddClip(timeline.NewClip(track, sourcePath, at, durationMs))
}

// SetClipColor changes a clip's colour label.
func (e *Editor) SetClipColor(clip ID, color string) error {
	return e.Execute(edit.NewSetClipColor(clip, color))
}

// ============================================================================
// Tracks
// ============================================================================

// AddTrack appends a track of kind and returns its ID.
func (e *Editor) AddTrack(kind timeline.TrackKind, name string) (ID, error) {
	return e.InsertTrack(kind, name, -1)
}

// InsertTrack inserts a track at index within its kind and returns its ID.
func (e *Editor) InsertTrack(kind timeline.TrackKind, name string, index int) (ID, error) {
	cmd := edit.NewAddTrack(kind, name, index)
	if err := e.Execute(cmd); err != nil {
		return "", err
	}
	return cmd.TrackID(), nil
}

// RemoveTrack removes a track and every clip on it.
func (e *Editor) RemoveTrack(track ID) error {
	return e.Execute(edit.NewRemoveTrack(track))
}

// SetTrackProps replaces a track's presentational state.
func (e *Editor) SetTrackProps(track ID, props edit.TrackProps) error {
	return e.Execute(edit.NewSetTrackProps(track, props))
}

// ============================================================================
// Markers
// ============================================================================

// AddMarker stores a copy of m and returns its ID.
func (e *Editor) AddMarker(m *timeline.Marker) (ID, error) {
	cmd := edit.NewAddMarker(m)
	if err := e.Execute(cmd); err != nil {
		return "", err
	}
	return cmd.MarkerID(), nil
}

// RemoveMarker removes a marker.
func (e *Editor) RemoveMarker(id ID) error {
	return e.Execute(edit.NewRemoveMarker(id))
}

// UpdateMarker replaces every field of a marker except its ID.
func (e *Editor) UpdateMarker(id ID, value timeline.Marker) error {
	return e.Execute(edit.NewUpdateMarker(id, value))
}

// ============================================================================
// Keyframes
// ============================================================================

// AddKeyframe adds a keyframe to a clip property curve. Time is in seconds
// from the clip start.
func (e *Editor) AddKeyframe(clip ID, p timeline.Property, time, value float64, interp keyframe.Interpolation) (keyframe.ID, error) {
	cmd := edit.NewAddKeyframe(clip, p, time, value, interp)
	if err := e.Execute(cmd); err != nil {
		return 0, err
	}
	return cmd.KeyframeID(), nil
}

// RemoveKeyframe removes a keyframe from a clip property curve.
func (e *Editor) RemoveKeyframe(clip ID, p timeline.Property, id keyframe.ID) error {
	return e.Execute(edit.NewRemoveKeyframe(clip, p, id))
}

// MoveKeyframe changes a keyframe's time and value.
func (e *Editor) MoveKeyframe(clip ID, p timeline.Property, id keyframe.ID, time, value float64) error {
	return e.Execute(edit.NewMoveKeyframe(clip, p, id, time, value))
}

// ============================================================================
// Links
// ============================================================================

// Link pairs a video clip with an audio clip.
func (e *Editor) Link(a, b ID) error {
	return e.Execute(edit.NewLink(a, b))
}

// Unlink clears a clip's link on both sides.
func (e *Editor) Unlink(clip ID) error {
	return e.Execute(edit.NewUnlink(clip))
}

// AutoLink pairs clips sharing a source and start time and returns the
// (video, audio) pairs it linked.
func (e *Editor) AutoLink() ([][2]ID, error) {
	cmd := edit.NewAutoLink()
	if err := e.Execute(cmd); err != nil {
		return nil, err
	}
	return cmd.Pairs(), nil
}

// Partner returns the clip linked to id, or nil.
func (e *Editor) Partner(id ID) *timeline.Clip {
	return e.links.Partner(id)
}

// ============================================================================
// Transport and queries
// ============================================================================

// Playhead returns the playhead position.
func (e *Editor) Playhead() int64 {
	return e.tl.Playhead()
}

// SetPlayhead moves the playhead. It is not an undoable edit.
func (e *Editor) SetPlayhead(ms int64) {
	e.tl.SetPlayhead(ms)
}

// SetInOut sets the in and out points. It is not an undoable edit.
func (e *Editor) SetInOut(in, out int64) {
	e.tl.SetInOut(in, out)
}

// Snap aligns a proposed time to the nearest edit point.
func (e *Editor) Snap(proposedMs int64, exclude ID) snap.Result {
	return e.snap.Resolve(e.tl, proposedMs, exclude)
}

// SnapClip aligns a dragged clip so either edge meets an edit point.
func (e *Editor) SnapClip(startMs, durationMs int64, exclude ID) snap.Result {
	return e.snap.ResolveClip(e.tl, startMs, durationMs, exclude)
}

// InsertPosition picks the track and time for a clip dropped without a
// target. ok is false when there are no video tracks.
func (e *Editor) InsertPosition(durationMs int64) (track ID, atMs int64, ok bool) {
	t, at := edit.FindInsertTrack(e.tl, durationMs)
	if t == nil {
		return "", 0, false
	}
	return t.ID, at, true
}

// RenderFrame renders the engine timeline at timestampMs.
func (e *Editor) RenderFrame(timestampMs int64) (render.Frame, error) {
	return e.sy.RenderFrame(timestampMs)
}

// ============================================================================
// Loading
// ============================================================================

// SetFormat changes the engine timeline format. It takes effect at the
// next Load, which recreates the engine timeline.
func (e *Editor) SetFormat(width, height int, fps float64) {
	if width <= 0 || height <= 0 || fps <= 0 {
		return
	}
	e.width, e.height, e.fps = width, height, fps
	e.sy.Configure(width, height, fps)
}

// Format returns the engine timeline format.
func (e *Editor) Format() (width, height int, fps float64) {
	return e.width, e.height, e.fps
}

// Load replaces the edited timeline with tl. The engine timeline is torn
// down and rebuilt, so every handle is reissued, and history is cleared.
func (e *Editor) Load(tl *timeline.Timeline) error {
	if e.closed {
		return ErrClosed
	}
	if e.history.IsEditing() {
		return history.ErrGestureInProgress
	}
	e.tl = tl
	e.links = link.New(tl)
	if err := e.sy.Rebuild(tl); err != nil {
		return fmt.Errorf("rebuild engine timeline: %w", err)
	}
	e.history.Clear()
	e.logger.Info("timeline loaded",
		"tracks", len(tl.AllTracks()),
		"clips", tl.ClipCount(),
		"markers", len(tl.Markers()),
	)
	e.notifier.Notify(notify.Change{Type: notify.ChangeLoad})
	return nil
}
