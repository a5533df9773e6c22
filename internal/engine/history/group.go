package history

import (
	"github.com/dshills/cutline/internal/engine/timeline"
	"github.com/dshills/cutline/internal/render"
)

// ExecuteGrouped executes multiple commands as a single undo unit.
// If any command fails, those already applied are undone.
func (h *History) ExecuteGrouped(name string, tl *timeline.Timeline, sy *render.Adapter, cmds ...Command) error {
	if len(cmds) == 0 {
		return nil
	}

	if len(cmds) == 1 {
		return h.Execute(cmds[0], tl, sy)
	}

	return h.Execute(NewCompoundCommand(name, cmds...), tl, sy)
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint creates a checkpoint at the current history position.
func (h *History) CreateCheckpoint() Checkpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Checkpoint{undoDepth: len(h.undoStack)}
}

// UndoToCheckpoint undoes all operations since the checkpoint.
func (h *History) UndoToCheckpoint(cp Checkpoint, tl *timeline.Timeline, sy *render.Adapter) error {
	for h.UndoCount() > cp.undoDepth {
		if err := h.Undo(tl, sy); err != nil {
			return err
		}
	}
	return nil
}
