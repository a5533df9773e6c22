// Package history provides undo/redo for timeline edits.
//
// The history system uses the Command pattern. Every edit the editor
// performs is a Command that applies itself to the timeline store, syncs
// the rendering engine, and knows how to reverse both.
//
// # Commands
//
// Commands implement the Command interface with Execute and Undo methods.
// They hold stable clip, track and marker IDs plus the plain values they
// need to reverse themselves. Engine handles are never captured: a handle
// is reissued on every sync, so replay resolves clips through the store.
//
// CompoundCommand runs several commands as one undo unit and reverses
// them in strictly reverse order.
//
// # History Stack
//
// The History type manages undo/redo stacks and command grouping:
//
//	h := NewHistory(100) // oldest entries are evicted silently past 100
//
//	h.Execute(cmd, tl, sync)
//	h.Undo(tl, sync)
//	h.Redo(tl, sync)
//
// # Command Grouping
//
// Multiple commands can be grouped as a single undo unit:
//
//	h.BeginGroup("Cut All Tracks")
//	// ... multiple edits ...
//	h.EndGroup()
//
// ExecuteGrouped does the same for commands known up front and reverts
// the applied ones if any fails.
//
// # Gestures
//
// A drag or trim gesture sets the editing guard with SetEditing(true).
// While it is set, Undo and Redo return ErrGestureInProgress and leave both
// stacks alone, so the gesture's eventual record cannot land on top of an
// unrelated undo.
package history
