// Package engine provides the editing core of cutline.
//
// The engine package serves as the main facade, combining the timeline
// store, the edit commands, the undo history and the render adapter into
// one command surface suitable for building a non-linear video editor on
// top of any UI toolkit.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - keyframe: per-property animation curves
//   - timeline: tracks, clips and markers with stable local IDs
//   - snap: alignment of proposed times to nearby edit points
//   - link: the video/audio clip pairing
//   - edit: split, ripple, roll, trim and the other undoable edits
//   - history: bounded undo/redo with groups and checkpoints
//   - notify: change notifications for the presentation layer
//
// The rendering engine sits behind internal/render. The store is the ground
// truth: every edit updates the timeline first and then re-registers the
// touched clips with the engine, which issues them new handles. Nothing but
// the clip record holds an engine handle.
//
// # Thread Safety
//
// The Editor has one writer. All edits, undo and redo must be called from
// the same goroutine. Background producers (see internal/preview) only read
// clip source paths and report back through callbacks.
//
// # Basic Usage
//
//	e, _ := engine.New(engine.WithRenderEngine(render.NewMemoryEngine()))
//	v1, _ := e.AddTrack(timeline.Video, "V1")
//	clip, _ := e.AddClip(timeline.NewClip(v1, "/media/a.mov", 0, 10000))
//
//	// Razor cut at 4s
//	right, _ := e.Split(clip, 4000)
//
//	// Close the gap left by the right half
//	e.RippleDelete(right)
//
//	// Undo both, clearing the engine frame cache after each
//	e.Undo()
//	e.Undo()
//
// # Gestures
//
// Interactive drags bracket their edits with BeginGesture and
// CommitGesture. The edits become a single undo entry and Undo returns
// history.ErrGestureInProgress until the gesture ends:
//
//	e.BeginGesture("Drag Clip")
//	e.Move(clip, 1200, "", true)
//	e.Move(clip, 1500, "", true)
//	e.CommitGesture()
//
// # Notifications
//
// Subscribe to the notifier to learn about edits, undo and redo, cache
// clears and absorbed engine failures:
//
//	e.Notifier().SubscribeType(func(c engine.Change) {
//		log.Printf("engine call %s failed: %v", c.Op, c.Err)
//	}, notify.ChangeEngineError)
package engine
