// Package watcher reports changes to configuration files.
//
// Files are watched through their parent directory so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen. Bursts of events for one file are coalesced and delivered
// once the file has been quiet for the debounce interval.
package watcher

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/cutline/internal/logging"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher closed")

// Event is a debounced change to a watched file.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Operation is the kind of change.
type Operation int

const (
	OpWrite Operation = iota
	OpCreate
	OpRemove
	OpRename
)

func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler receives debounced events on the watcher's goroutine.
type Handler func(Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before an event is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logging.WithComponent(l, "config-watcher")
	}
}

// Watcher delivers changes of individual files.
type Watcher struct {
	fsw     *fsnotify.Watcher
	handler Handler
	logger  *slog.Logger

	mu       sync.Mutex
	files    map[string]bool
	dirs     map[string]int
	pending  map[string]*pendingEvent
	debounce time.Duration
	closed   bool

	done chan struct{}
	wg   sync.WaitGroup
}

type pendingEvent struct {
	op    Operation
	timer *time.Timer
}

// New starts a watcher that calls handler for every debounced event.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		handler:  handler,
		logger:   logging.WithComponent(nil, "config-watcher"),
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		pending:  make(map[string]*pendingEvent),
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds a file. The file need not exist yet, but its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.files[abs] {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	return nil
}

// Unwatch removes a file.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		if !w.closed {
			return w.fsw.Remove(dir)
		}
	}
	return nil
}

// WatchedFiles returns the watched paths.
func (w *Watcher) WatchedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// Close stops the watcher. Pending events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	op, ok := convertOp(ev.Op)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.files[path] {
		return
	}
	w.queue(path, op)
}

// queue coalesces events for path: remove wins over everything, create
// survives later writes, anything else is replaced. Callers hold mu.
func (w *Watcher) queue(path string, op Operation) {
	p, exists := w.pending[path]
	if !exists {
		p = &pendingEvent{op: op}
		w.pending[path] = p
		p.timer = time.AfterFunc(w.debounce, func() { w.fire(path) })
		return
	}

	switch {
	case op == OpRemove:
		p.op = OpRemove
	case op == OpWrite && (p.op == OpCreate || p.op == OpRemove):
		// A write after a create is still a create; a write after a
		// remove means the file came back.
		if p.op == OpRemove {
			p.op = OpCreate
		}
	default:
		p.op = op
	}
	p.timer.Reset(w.debounce)
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	w.emit(Event{Path: path, Op: p.op, Time: time.Now()})
}

// emit calls the handler, keeping the watcher alive if it panics.
func (w *Watcher) emit(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("config change handler panicked", "path", ev.Path, "panic", r)
		}
	}()
	if w.handler != nil {
		w.handler(ev)
	}
}

func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	}
	return 0, false
}
