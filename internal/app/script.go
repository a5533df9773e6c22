package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/cutline/internal/engine"
	"github.com/dshills/cutline/internal/engine/edit"
	"github.com/dshills/cutline/internal/engine/keyframe"
	"github.com/dshills/cutline/internal/engine/timeline"
)

// Script runs edit commands, one per line. Blank lines and lines starting
// with '#' are skipped. Arguments are separated by spaces; double quotes
// group an argument containing spaces.
//
// Records are referenced by full ID, by a unique ID prefix, or by a
// variable bound with a trailing "as NAME" on the command that created
// them and used as $NAME. Tracks may also be named.
//
// A failing line stops the script and is returned as a *ScriptError.
type Script struct {
	app  *Application
	vars map[string]engine.ID
	out  io.Writer
}

type command struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(s *Script, ctx context.Context, args []string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"add-track":     {"add-track video|audio|subtitle NAME", 2, 2, (*Script).addTrack},
		"remove-track":  {"remove-track TRACK", 1, 1, (*Script).removeTrack},
		"lock":          {"lock TRACK on|off", 2, 2, (*Script).lockTrack},
		"add-clip":      {"add-clip TRACK PATH START_MS DURATION_MS", 4, 4, (*Script).addClip},
		"drop":          {"drop PATH DURATION_MS", 2, 2, (*Script).drop},
		"split":         {"split CLIP MS", 2, 2, (*Script).split},
		"split-all":     {"split-all MS", 1, 1, (*Script).splitAll},
		"ripple-delete": {"ripple-delete CLIP", 1, 1, (*Script).rippleDelete},
		"ripple-move":   {"ripple-move CLIP START_MS", 2, 2, (*Script).rippleMove},
		"roll":          {"roll LEFT RIGHT BOUNDARY_MS", 3, 3, (*Script).roll},
		"trim":          {"trim CLIP in|out MS", 3, 3, (*Script).trim},
		"move":          {"move CLIP START_MS [TRACK] [solo]", 2, 4, (*Script).move},
		"delete":        {"delete CLIP... [solo]", 1, 64, (*Script).delete},
		"color":         {"color CLIP LABEL", 2, 2, (*Script).color},
		"link":          {"link VIDEO AUDIO", 2, 2, (*Script).link},
		"unlink":        {"unlink CLIP", 1, 1, (*Script).unlink},
		"auto-link":     {"auto-link", 0, 0, (*Script).autoLink},
		"marker":        {"marker MS comment|chapter|region NAME [DURATION_MS]", 3, 4, (*Script).marker},
		"keyframe":      {"keyframe CLIP PROPERTY SECONDS VALUE [INTERPOLATION]", 4, 5, (*Script).keyframe},
		"playhead":      {"playhead MS", 1, 1, (*Script).playhead},
		"begin":         {"begin NAME", 1, 1, (*Script).begin},
		"commit":        {"commit", 0, 0, (*Script).commit},
		"cancel":        {"cancel", 0, 0, (*Script).cancel},
		"undo":          {"undo", 0, 0, (*Script).undo},
		"history":       {"history", 0, 0, (*Script).history},
		"redo":          {"redo", 0, 0, (*Script).redo},
		"save":          {"save [PATH]", 0, 1, (*Script).save},
		"checkpoint":    {"checkpoint [DESCRIPTION]", 0, 1, (*Script).checkpoint},
		"restore":       {"restore [REVISION]", 0, 1, (*Script).restore},
		"thumbnails":    {"thumbnails WIDTH HEIGHT", 2, 2, (*Script).thumbnails},
		"print":         {"print", 0, 0, (*Script).print},
	}
}

// Usage lists every command.
func Usage() []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		out = append(out, c.usage)
	}
	sort.Strings(out)
	return out
}

// NewScript creates a runner writing command results to out.
func (a *Application) NewScript(out io.Writer) *Script {
	if out == nil {
		out = io.Discard
	}
	return &Script{app: a, vars: make(map[string]engine.ID), out: out}
}

// Run executes every line of r.
func (s *Script) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Exec(ctx, sc.Text()); err != nil {
			var se *ScriptError
			if errors.As(err, &se) {
				se.Line = lineNo
			}
			return err
		}
	}
	return sc.Err()
}

// Exec runs a single line.
func (s *Script) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	s.app.applyReload()

	fields, err := splitFields(line)
	if err != nil {
		return &ScriptError{Command: line, Err: err}
	}
	name, args := fields[0], fields[1:]

	bind := ""
	if n := len(args); n >= 2 && args[n-2] == "as" {
		bind = args[n-1]
		args = args[:n-2]
	}

	cmd, ok := commands[name]
	if !ok {
		return &ScriptError{Command: name, Err: ErrUnknownCommand}
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return &ScriptError{Command: name, Err: fmt.Errorf("%w: usage: %s", ErrUsage, cmd.usage)}
	}

	result, err := cmd.run(s, ctx, args)
	if err != nil {
		return &ScriptError{Command: name, Err: err}
	}
	if bind != "" {
		if result == "" {
			return &ScriptError{Command: name, Err: fmt.Errorf("%w: nothing to bind to %s", ErrUsage, bind)}
		}
		s.vars[bind] = engine.ID(result)
	}
	if result != "" {
		fmt.Fprintf(s.out, "%s %s\n", name, result)
	}
	return nil
}

// Var returns the ID bound to name.
func (s *Script) Var(name string) (engine.ID, bool) {
	id, ok := s.vars[name]
	return id, ok
}

func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, started := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				fields = append(fields, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: unterminated quote", ErrUsage)
	}
	if started {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// ============================================================================
// References
// ============================================================================

func (s *Script) resolve(ref string, ids []engine.ID) (engine.ID, error) {
	if strings.HasPrefix(ref, "$") {
		id, ok := s.vars[ref[1:]]
		if !ok {
			return "", fmt.Errorf("%w: variable %s", ErrUnknownRef, ref)
		}
		return id, nil
	}
	var match engine.ID
	for _, id := range ids {
		if string(id) == ref {
			return id, nil
		}
		if strings.HasPrefix(string(id), ref) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousRef, ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	return match, nil
}

func (s *Script) clip(ref string) (engine.ID, error) {
	clips := s.app.editor.Timeline().Clips()
	ids := make([]engine.ID, len(clips))
	for i, c := range clips {
		ids[i] = c.ID
	}
	return s.resolve(ref, ids)
}

func (s *Script) track(ref string) (engine.ID, error) {
	tracks := s.app.editor.Timeline().AllTracks()
	ids := make([]engine.ID, len(tracks))
	for i, t := range tracks {
		if t.Name == ref {
			return t.ID, nil
		}
		ids[i] = t.ID
	}
	return s.resolve(ref, ids)
}

func parseMs(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a time in milliseconds", ErrUsage, s)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrUsage, s)
	}
	return v, nil
}

// ============================================================================
// Tracks
// ============================================================================

func (s *Script) addTrack(_ context.Context, args []string) (string, error) {
	kind, ok := timeline.ParseTrackKind(args[0])
	if !ok {
		return "", fmt.Errorf("%w: track kind %q", ErrUsage, args[0])
	}
	id, err := s.app.editor.AddTrack(kind, args[1])
	return string(id), err
}

func (s *Script) removeTrack(_ context.Context, args []string) (string, error) {
	id, err := s.track(args[0])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.RemoveTrack(id)
}

func (s *Script) lockTrack(_ context.Context, args []string) (string, error) {
	id, err := s.track(args[0])
	if err != nil {
		return "", err
	}
	props := edit.PropsOf(s.app.editor.Timeline().Track(id))
	switch args[1] {
	case "on":
		props.Locked = true
	case "off":
		props.Locked = false
	default:
		return "", fmt.Errorf("%w: want on or off", ErrUsage)
	}
	return "", s.app.editor.SetTrackProps(id, props)
}

// ============================================================================
// Clips
// ============================================================================

func (s *Script) addClip(_ context.Context, args []string) (string, error) {
	track, err := s.track(args[0])
	if err != nil {
		return "", err
	}
	start, err := parseMs(args[2])
	if err != nil {
		return "", err
	}
	dur, err := parseMs(args[3])
	if err != nil {
		return "", err
	}
	id, err := s.app.editor.AddClip(timeline.NewClip(track, args[1], start, dur))
	return string(id), err
}

func (s *Script) drop(_ context.Context, args []string) (string, error) {
	dur, err := parseMs(args[1])
	if err != nil {
		return "", err
	}
	id, err := s.app.editor.DropClip(args[0], dur)
	return string(id), err
}

func (s *Script) split(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	at, err := parseMs(args[1])
	if err != nil {
		return "", err
	}
	id, err := s.app.editor.Split(clip, at)
	return string(id), err
}

func (s *Script) splitAll(_ context.Context, args []string) (string, error) {
	at, err := parseMs(args[0])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.SplitAll(at)
}

func (s *Script) rippleDelete(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.RippleDelete(clip)
}

func (s *Script) rippleMove(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	start, err := parseMs(args[1])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.RippleMove(clip, start)
}

func (s *Script) roll(_ context.Context, args []string) (string, error) {
	left, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	right, err := s.clip(args[1])
	if err != nil {
		return "", err
	}
	at, err := parseMs(args[2])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.Roll(left, right, at)
}

func (s *Script) trim(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	var edge edit.Edge
	switch args[1] {
	case "in":
		edge = edit.InEdge
	case "out":
		edge = edit.OutEdge
	default:
		return "", fmt.Errorf("%w: edge must be in or out", ErrUsage)
	}
	at, err := parseMs(args[2])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.Trim(clip, edge, at)
}

func (s *Script) move(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	start, err := parseMs(args[1])
	if err != nil {
		return "", err
	}

	withLinked := true
	if args[len(args)-1] == "solo" {
		withLinked = false
		args = args[:len(args)-1]
	}
	track := s.app.editor.Timeline().Clip(clip).TrackID
	if len(args) == 3 {
		if track, err = s.track(args[2]); err != nil {
			return "", err
		}
	}
	return "", s.app.editor.Move(clip, start, track, withLinked)
}

func (s *Script) delete(_ context.Context, args []string) (string, error) {
	withLinked := true
	if n := len(args); n > 1 && args[n-1] == "solo" {
		withLinked = false
		args = args[:n-1]
	}
	clips := make([]engine.ID, 0, len(args))
	for _, ref := range args {
		id, err := s.clip(ref)
		if err != nil {
			return "", err
		}
		clips = append(clips, id)
	}
	if len(clips) == 1 {
		return "", s.app.editor.Delete(clips[0], withLinked)
	}
	return "", s.app.editor.DeleteClips(clips, withLinked)
}

func (s *Script) color(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.SetClipColor(clip, args[1])
}

// ============================================================================
// Links, markers, keyframes
// ============================================================================

func (s *Script) link(_ context.Context, args []string) (string, error) {
	a, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	b, err := s.clip(args[1])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.Link(a, b)
}

func (s *Script) unlink(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	return "", s.app.editor.Unlink(clip)
}

func (s *Script) autoLink(_ context.Context, _ []string) (string, error) {
	pairs, err := s.app.editor.AutoLink()
	if err != nil {
		return "", err
	}
	return strconv.Itoa(len(pairs)), nil
}

func (s *Script) marker(_ context.Context, args []string) (string, error) {
	at, err := parseMs(args[0])
	if err != nil {
		return "", err
	}
	m := timeline.NewMarker(at, args[2], timeline.ParseMarkerKind(args[1]))
	if len(args) == 4 {
		if m.RegionDurationMs, err = parseMs(args[3]); err != nil {
			return "", err
		}
	}
	id, err := s.app.editor.AddMarker(m)
	return string(id), err
}

func (s *Script) keyframe(_ context.Context, args []string) (string, error) {
	clip, err := s.clip(args[0])
	if err != nil {
		return "", err
	}
	prop, ok := timeline.ParseProperty(args[1])
	if !ok {
		return "", fmt.Errorf("%w: property %q", ErrUsage, args[1])
	}
	at, err := parseFloat(args[2])
	if err != nil {
		return "", err
	}
	value, err := parseFloat(args[3])
	if err != nil {
		return "", err
	}
	interp := keyframe.Linear
	if len(args) == 5 {
		interp = keyframe.ParseInterpolation(args[4])
	}
	_, err = s.app.editor.AddKeyframe(clip, prop, at, value, interp)
	return "", err
}

// ============================================================================
// Transport, history, persistence
// ============================================================================

func (s *Script) playhead(_ context.Context, args []string) (string, error) {
	at, err := parseMs(args[0])
	if err != nil {
		return "", err
	}
	s.app.editor.SetPlayhead(at)
	return "", nil
}

func (s *Script) begin(_ context.Context, args []string) (string, error) {
	return "", s.app.editor.BeginGesture(args[0])
}

func (s *Script) commit(_ context.Context, _ []string) (string, error) {
	return "", s.app.editor.CommitGesture()
}

func (s *Script) cancel(_ context.Context, _ []string) (string, error) {
	return "", s.app.editor.CancelGesture()
}

func (s *Script) undo(_ context.Context, _ []string) (string, error) {
	return "", s.app.editor.Undo()
}

func (s *Script) redo(_ context.Context, _ []string) (string, error) {
	return "", s.app.editor.Redo()
}

// history lists the undoable edits, newest first.
func (s *Script) history(_ context.Context, _ []string) (string, error) {
	infos := s.app.editor.UndoHistory()
	for i := len(infos) - 1; i >= 0; i-- {
		fmt.Fprintf(s.out, "%d\t%s\n", i+1, infos[i].Description)
	}
	return "", nil
}

func (s *Script) save(_ context.Context, args []string) (string, error) {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	return "", s.app.Save(path)
}

func (s *Script) checkpoint(ctx context.Context, args []string) (string, error) {
	desc := "checkpoint"
	if len(args) == 1 {
		desc = args[0]
	}
	rev, err := s.app.Checkpoint(ctx, desc)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(rev.Number, 10), nil
}

func (s *Script) restore(ctx context.Context, args []string) (string, error) {
	var n int64
	if len(args) == 1 {
		v, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: revision %q", ErrUsage, args[0])
		}
		n = v
	}
	rev, err := s.app.Restore(ctx, n)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(rev.Number, 10), nil
}

// thumbnails generates a picture of every video clip at its first frame
// and reports how many are cached.
func (s *Script) thumbnails(_ context.Context, args []string) (string, error) {
	w, err := strconv.Atoi(args[0])
	if err != nil || w <= 0 {
		return "", fmt.Errorf("%w: width %q", ErrUsage, args[0])
	}
	h, err := strconv.Atoi(args[1])
	if err != nil || h <= 0 {
		return "", fmt.Errorf("%w: height %q", ErrUsage, args[1])
	}

	tl := s.app.editor.Timeline()
	var want int
	for _, c := range tl.Clips() {
		if t := tl.TrackOf(c); t != nil && t.Kind == timeline.Video {
			s.app.previews.Thumbnail(c.SourcePath, c.SourceTrimStartMs, w, h)
			want++
		}
	}
	s.app.previews.Wait()

	have := 0
	for _, c := range tl.Clips() {
		if t := tl.TrackOf(c); t != nil && t.Kind == timeline.Video {
			if _, ok := s.app.previews.Thumbnail(c.SourcePath, c.SourceTrimStartMs, w, h); ok {
				have++
			}
		}
	}
	return fmt.Sprintf("%d/%d", have, want), nil
}

func (s *Script) print(_ context.Context, _ []string) (string, error) {
	return "", s.app.Describe(s.out)
}
