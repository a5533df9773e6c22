package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dshills/cutline/internal/engine/timeline"
)

func short(id timeline.ID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Describe writes a table of tracks, clips and markers, followed by the
// engine's view of the same timeline.
func (a *Application) Describe(w io.Writer) error {
	tl := a.editor.Timeline()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, t := range tl.AllTracks() {
		flags := ""
		if t.Locked {
			flags += " locked"
		}
		if t.Muted {
			flags += " muted"
		}
		fmt.Fprintf(tw, "%s %d\t%s\t%s%s\n", t.Kind, t.Index, t.Name, short(t.ID), flags)
		for _, c := range tl.ClipsOnTrack(t.ID) {
			link := ""
			if c.IsLinked() {
				link = "linked " + short(c.Partner())
			}
			fmt.Fprintf(tw, "  %s\t%s\t%d-%d\ttrim %d\t%s\n",
				short(c.ID), c.SourcePath, c.StartMs, c.EndMs(), c.SourceTrimStartMs, link)
		}
	}
	for _, m := range tl.Markers() {
		fmt.Fprintf(tw, "marker\t%s\t%s\t%d\n", m.Kind, m.Name, m.TimeMs)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	in, out := tl.InOut()
	_, err := fmt.Fprintf(w, "duration %d playhead %d in %d out %d undo %d redo %d engine-clips %d\n",
		tl.Duration(), tl.Playhead(), in, out,
		a.editor.UndoCount(), a.editor.RedoCount(),
		len(a.engine.Clips(a.editor.Adapter().TimelineHandle())))
	return err
}
