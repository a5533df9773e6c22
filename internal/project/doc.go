// Package project converts between a timeline and its saved document.
//
// A Document is a structural snapshot: global settings, tracks, clips with
// all six keyframe curves, and markers. Engine handles are never saved; a
// loaded timeline is registered with a fresh engine timeline and every
// handle is reissued.
//
// # Track indexes
//
// A clip records its track as a flattened index across video tracks, then
// audio tracks, then subtitle tracks. Build reconstructs the per-kind track
// lists and maps each flattened index back to (kind, local index):
//
//	doc, err := project.Load("/projects/cut.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tl, err := doc.Build()
//
// # Versions
//
// Documents carry a format version. Decoding a document newer than Version
// fails with ErrUnsupportedVersion; there is no migration.
package project
