package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// markerCommand adds a marker on Execute and removes it on Undo. The marker
// keeps its ID across redo, as every real command must.
type markerCommand struct {
	timeMs int64
	id     timeline.ID
}

func newMarkerCommand(ms int64) *markerCommand {
	return &markerCommand{timeMs: ms}
}

func (c *markerCommand) Execute(tl *timeline.Timeline, _ *render.Adapter) error {
	m := timeline.NewMarker(c.timeMs, fmt.Sprintf("m%d", c.timeMs), timeline.Comment)
	if c.id != "" {
		m.ID = c.id
	}
	if err := tl.AddMarker(m); err != nil {
		return err
	}
	c.id = m.ID
	return nil
}

func (c *markerCommand) Undo(tl *timeline.Timeline, _ *render.Adapter) error {
	if _, ok := tl.RemoveMarker(c.id); !ok {
		return errors.New("marker missing")
	}
	return nil
}

func (c *markerCommand) Description() string {
	return fmt.Sprintf("Add Marker %d", c.timeMs)
}

var errBoom = errors.New("boom")

type failingCommand struct{}

func (failingCommand) Execute(*timeline.Timeline, *render.Adapter) error { return errBoom }
func (failingCommand) Undo(*timeline.Timeline, *render.Adapter) error    { return nil }
func (failingCommand) Description() string                              { return "Fail" }

func markerTimes(tl *timeline.Timeline) []int64 {
	var out []int64
	for _, m := range tl.Markers() {
		out = append(out, m.TimeMs)
	}
	return out
}

func equalTimes(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// Compound Commands
// ============================================================================

func TestCompoundCommandExecute(t *testing.T) {
	tl := timeline.New()
	cmd := NewCompoundCommand("Add Two", newMarkerCommand(100), newMarkerCommand(200))

	if err := cmd.Execute(tl, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := markerTimes(tl); !equalTimes(got, []int64{100, 200}) {
		t.Errorf("markers = %v", got)
	}
}

func TestCompoundCommandUndo(t *testing.T) {
	tl := timeline.New()
	cmd := NewCompoundCommand("Add Two", newMarkerCommand(100), newMarkerCommand(200))
	cmd.Execute(tl, nil)

	if err := cmd.Undo(tl, nil); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(tl.Markers()) != 0 {
		t.Errorf("markers after undo = %v", markerTimes(tl))
	}
}

func TestCompoundCommandRollsBackOnFailure(t *testing.T) {
	tl := timeline.New()
	cmd := NewCompoundCommand("Partial", newMarkerCommand(100), failingCommand{})

	err := cmd.Execute(tl, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(tl.Markers()) != 0 {
		t.Errorf("first step not rolled back: %v", markerTimes(tl))
	}
}

func TestCompoundCommandDescription(t *testing.T) {
	tests := []struct {
		name string
		cmd  *CompoundCommand
		want string
	}{
		{"named", NewCompoundCommand("Cut All", newMarkerCommand(1)), "Cut All"},
		{"single", NewCompoundCommand("", newMarkerCommand(1)), "Add Marker 1"},
		{"many", NewCompoundCommand("", newMarkerCommand(1), newMarkerCommand(2)), "2 operations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHistoryPushAndUndo(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	history.Execute(newMarkerCommand(100), tl, nil)
	if len(tl.Markers()) != 1 {
		t.Fatalf("after execute: %v", markerTimes(tl))
	}

	if err := history.Undo(tl, nil); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if len(tl.Markers()) != 0 {
		t.Errorf("after undo: %v", markerTimes(tl))
	}
}

func TestHistoryRedoKeepsIdentity(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	cmd := newMarkerCommand(100)
	history.Execute(cmd, tl, nil)
	id := cmd.id
	history.Undo(tl, nil)

	if err := history.Redo(tl, nil); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if tl.Marker(id) == nil {
		t.Error("redo did not restore the same marker id")
	}
}

func TestHistoryRedoClearedOnPush(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	history.Execute(newMarkerCommand(1), tl, nil)
	history.Undo(tl, nil)

	if !history.CanRedo() {
		t.Error("should be able to redo")
	}

	history.Execute(newMarkerCommand(2), tl, nil)

	if history.CanRedo() {
		t.Error("redo should be cleared after new command")
	}
}

func TestHistoryFailedCommandNotRecorded(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	if err := history.Execute(failingCommand{}, tl, nil); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v", err)
	}
	if history.CanUndo() {
		t.Error("failed command was recorded")
	}
}

func TestHistoryMaxEntries(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(3)

	for i := 0; i < 5; i++ {
		history.Execute(newMarkerCommand(int64(i)), tl, nil)
	}

	if history.UndoCount() != 3 {
		t.Errorf("undo count = %d, want 3", history.UndoCount())
	}
	info := history.UndoInfo()
	if info[0].Description != "Add Marker 2" {
		t.Errorf("oldest surviving entry = %q", info[0].Description)
	}
}

func TestHistoryDefaultMaxEntries(t *testing.T) {
	if got := NewHistory(0).MaxEntries(); got != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d, want %d", got, DefaultMaxEntries)
	}
	if DefaultMaxEntries != 100 {
		t.Errorf("DefaultMaxEntries = %d", DefaultMaxEntries)
	}
}

func TestHistorySetMaxEntriesTrims(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(10)
	for i := 0; i < 6; i++ {
		history.Execute(newMarkerCommand(int64(i)), tl, nil)
	}
	history.SetMaxEntries(2)
	if history.UndoCount() != 2 {
		t.Errorf("undo count = %d, want 2", history.UndoCount())
	}
}

func TestHistoryCanUndoRedo(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	if history.CanUndo() {
		t.Error("should not be able to undo initially")
	}
	if history.CanRedo() {
		t.Error("should not be able to redo initially")
	}

	history.Execute(newMarkerCommand(1), tl, nil)

	if !history.CanUndo() {
		t.Error("should be able to undo after execute")
	}

	history.Undo(tl, nil)

	if history.CanUndo() {
		t.Error("should not be able to undo after undoing single command")
	}
	if !history.CanRedo() {
		t.Error("should be able to redo after undo")
	}
}

func TestHistoryErrors(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	if err := history.Undo(tl, nil); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo err = %v, want ErrNothingToUndo", err)
	}
	if err := history.Redo(tl, nil); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo err = %v, want ErrNothingToRedo", err)
	}
}

func TestHistoryGestureGuard(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)
	history.Execute(newMarkerCommand(1), tl, nil)
	history.Execute(newMarkerCommand(2), tl, nil)
	history.Undo(tl, nil)

	history.SetEditing(true)
	if !history.IsEditing() {
		t.Fatal("guard not set")
	}
	if err := history.Undo(tl, nil); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("Undo err = %v", err)
	}
	if err := history.Redo(tl, nil); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("Redo err = %v", err)
	}
	if history.UndoCount() != 1 || history.RedoCount() != 1 {
		t.Errorf("stacks touched: undo=%d redo=%d", history.UndoCount(), history.RedoCount())
	}
	if !equalTimes(markerTimes(tl), []int64{1}) {
		t.Errorf("timeline touched: %v", markerTimes(tl))
	}

	history.SetEditing(false)
	if err := history.Undo(tl, nil); err != nil {
		t.Errorf("Undo after gesture: %v", err)
	}
}

func TestHistoryClear(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)
	history.Execute(newMarkerCommand(1), tl, nil)
	history.Execute(newMarkerCommand(2), tl, nil)
	history.Undo(tl, nil)
	history.SetEditing(true)

	history.Clear()

	if history.UndoCount() != 0 || history.RedoCount() != 0 || history.IsEditing() {
		t.Error("history not cleared")
	}
}

// ============================================================================
// Grouping
// ============================================================================

func TestHistoryGrouping(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	history.BeginGroup("Add Three")
	history.Execute(newMarkerCommand(1), tl, nil)
	history.Execute(newMarkerCommand(2), tl, nil)
	history.Execute(newMarkerCommand(3), tl, nil)
	history.EndGroup()

	if history.UndoCount() != 1 {
		t.Errorf("undo count = %d, want 1", history.UndoCount())
	}

	history.Undo(tl, nil)
	if len(tl.Markers()) != 0 {
		t.Errorf("after undo: %v", markerTimes(tl))
	}
}

func TestHistoryEmptyGroupNotRecorded(t *testing.T) {
	history := NewHistory(100)
	history.BeginGroup("Nothing")
	history.EndGroup()
	if history.CanUndo() {
		t.Error("empty group recorded")
	}
}

func TestHistoryCancelGroup(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	history.BeginGroup("Cancelled")
	history.Execute(newMarkerCommand(1), tl, nil)
	cmds := history.CancelGroup()

	if history.CanUndo() {
		t.Error("should have nothing to undo after cancel")
	}
	if len(cmds) != 1 {
		t.Errorf("collected %d commands", len(cmds))
	}
	if len(tl.Markers()) != 1 {
		t.Error("cancel should not revert executed commands")
	}
}

func TestHistoryExecuteGrouped(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	err := history.ExecuteGrouped("Pair", tl, nil, newMarkerCommand(1), newMarkerCommand(2))
	if err != nil {
		t.Fatalf("ExecuteGrouped: %v", err)
	}
	if history.UndoCount() != 1 {
		t.Errorf("undo count = %d", history.UndoCount())
	}
	if info, _ := history.PeekUndo(); info.Description != "Pair" {
		t.Errorf("description = %q", info.Description)
	}

	err = history.ExecuteGrouped("Broken", tl, nil, newMarkerCommand(3), failingCommand{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v", err)
	}
	if !equalTimes(markerTimes(tl), []int64{1, 2}) {
		t.Errorf("markers = %v", markerTimes(tl))
	}
}

func TestHistoryPeek(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	if _, ok := history.PeekUndo(); ok {
		t.Error("peek on empty stack")
	}
	history.Execute(newMarkerCommand(7), tl, nil)
	info, ok := history.PeekUndo()
	if !ok || info.Description != "Add Marker 7" || info.Timestamp.IsZero() {
		t.Errorf("PeekUndo = %+v, %v", info, ok)
	}
	history.Undo(tl, nil)
	if info, ok := history.PeekRedo(); !ok || info.Description != "Add Marker 7" {
		t.Errorf("PeekRedo = %+v, %v", info, ok)
	}
	if got := len(history.RedoInfo()); got != 1 {
		t.Errorf("RedoInfo len = %d", got)
	}
}

func TestHistoryCheckpoint(t *testing.T) {
	tl := timeline.New()
	history := NewHistory(100)

	history.Execute(newMarkerCommand(1), tl, nil)
	cp := history.CreateCheckpoint()
	history.Execute(newMarkerCommand(2), tl, nil)
	history.Execute(newMarkerCommand(3), tl, nil)

	if err := history.UndoToCheckpoint(cp, tl, nil); err != nil {
		t.Fatalf("UndoToCheckpoint: %v", err)
	}
	if !equalTimes(markerTimes(tl), []int64{1}) {
		t.Errorf("after undo to checkpoint: %v", markerTimes(tl))
	}
	if got := history.RedoCount(); got != 2 {
		t.Errorf("redo count = %d, want 2", got)
	}
}
