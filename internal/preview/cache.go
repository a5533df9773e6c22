// Package preview caches thumbnails and audio waveforms produced by
// external generators.
//
// Lookups never block. A miss returns false and schedules at most one
// background job per key; the result is announced through the OnReady
// callback, which runs on the job's goroutine. Consumers that render on a
// single thread must hand the notification over themselves. Failures are
// reported through OnError and are neither cached nor retried: the next
// lookup for the same key schedules a fresh job.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/cutline/internal/logging"
	"github.com/dshills/cutline/internal/render"
)

// DefaultWorkers bounds concurrent producer calls.
const DefaultWorkers = 4

// ErrClosed is reported for jobs that were waiting when the cache closed.
var ErrClosed = errors.New("preview cache closed")

// ThumbnailProducer renders a picture of a source file at a time.
type ThumbnailProducer interface {
	Thumbnail(ctx context.Context, path string, timeMs int64, width, height int) (render.Frame, error)
}

// WaveformProducer computes the amplitude envelope of a source file.
type WaveformProducer interface {
	Waveform(ctx context.Context, path string) (Waveform, error)
}

// Waveform is a downsampled amplitude envelope.
type Waveform struct {
	// Peaks holds normalized peak amplitudes in [0, 1].
	Peaks []float32
	// BucketMs is the source duration each peak covers.
	BucketMs int64
}

// Kind distinguishes cached artifacts.
type Kind uint8

const (
	KindThumbnail Kind = iota
	KindWaveform
)

func (k Kind) String() string {
	if k == KindWaveform {
		return "waveform"
	}
	return "thumbnail"
}

// Key identifies a cached artifact. Waveform keys carry only a path.
type Key struct {
	Kind   Kind
	Path   string
	TimeMs int64
	Width  int
	Height int
}

func (k Key) String() string {
	if k.Kind == KindWaveform {
		return "waveform:" + k.Path
	}
	return fmt.Sprintf("thumbnail:%s@%d:%dx%d", k.Path, k.TimeMs, k.Width, k.Height)
}

// Option configures a Cache.
type Option func(*Cache)

// WithWorkers bounds concurrent producer calls.
func WithWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.WithComponent(l, "preview")
	}
}

// OnReady registers the completion callback.
func OnReady(fn func(Key)) Option {
	return func(c *Cache) {
		c.onReady = fn
	}
}

// OnError registers the failure callback.
func OnError(fn func(Key, error)) Option {
	return func(c *Cache) {
		c.onError = fn
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	thumbs ThumbnailProducer
	waves  WaveformProducer

	mu         sync.Mutex
	thumbnails map[Key]render.Frame
	waveforms  map[string]Waveform
	closed     bool

	group   singleflight.Group
	sem     *semaphore.Weighted
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    sync.WaitGroup

	onReady func(Key)
	onError func(Key, error)
	logger  *slog.Logger
}

// New creates a cache over the given producers. Either may be nil, in
// which case lookups of that kind always miss.
func New(thumbs ThumbnailProducer, waves WaveformProducer, opts ...Option) *Cache {
	c := &Cache{
		thumbs:     thumbs,
		waves:      waves,
		thumbnails: make(map[Key]render.Frame),
		waveforms:  make(map[string]Waveform),
		workers:    DefaultWorkers,
		logger:     logging.WithComponent(nil, "preview"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sem = semaphore.NewWeighted(int64(c.workers))
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Thumbnail returns the cached picture for path at timeMs, or false after
// scheduling its generation.
func (c *Cache) Thumbnail(path string, timeMs int64, width, height int) (render.Frame, bool) {
	key := Key{Kind: KindThumbnail, Path: path, TimeMs: timeMs, Width: width, Height: height}

	c.mu.Lock()
	frame, ok := c.thumbnails[key]
	closed := c.closed
	c.mu.Unlock()
	if ok || closed || c.thumbs == nil {
		return frame, ok
	}

	c.schedule(key, func(ctx context.Context) error {
		frame, err := c.thumbs.Thumbnail(ctx, path, timeMs, width, height)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.thumbnails[key] = frame
		c.mu.Unlock()
		return nil
	})
	return render.Frame{}, false
}

// Waveform returns the cached envelope for path, or false after scheduling
// its generation.
func (c *Cache) Waveform(path string) (Waveform, bool) {
	key := Key{Kind: KindWaveform, Path: path}

	c.mu.Lock()
	wf, ok := c.waveforms[path]
	closed := c.closed
	c.mu.Unlock()
	if ok || closed || c.waves == nil {
		return wf, ok
	}

	c.schedule(key, func(ctx context.Context) error {
		wf, err := c.waves.Waveform(ctx, path)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.waveforms[path] = wf
		c.mu.Unlock()
		return nil
	})
	return Waveform{}, false
}

// schedule starts produce unless a job for key is already in flight.
// Every caller waits on the shared result so Wait covers the whole flight.
func (c *Cache) schedule(key Key, produce func(context.Context) error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.jobs.Add(1)
	c.mu.Unlock()

	ch := c.group.DoChan(key.String(), func() (any, error) {
		c.run(key, produce)
		return nil, nil
	})
	go func() {
		<-ch
		c.jobs.Done()
	}()
}

func (c *Cache) run(key Key, produce func(context.Context) error) {
	if err := c.sem.Acquire(c.ctx, 1); err != nil {
		c.fail(key, ErrClosed)
		return
	}
	defer c.sem.Release(1)

	if err := produce(c.ctx); err != nil {
		c.fail(key, err)
		return
	}
	c.logger.Debug("preview ready", "key", key.String())
	if c.onReady != nil {
		c.onReady(key)
	}
}

func (c *Cache) fail(key Key, err error) {
	c.logger.Warn("preview failed", "key", key.String(), "error", err)
	if c.onError != nil {
		c.onError(key, err)
	}
}

// Invalidate drops every cached artifact for path. Jobs already running
// still store their result.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.waveforms, path)
	for k := range c.thumbnails {
		if k.Path == path {
			delete(c.thumbnails, k)
		}
	}
}

// Len returns the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.thumbnails) + len(c.waveforms)
}

// Wait blocks until every scheduled job has finished.
func (c *Cache) Wait() {
	c.jobs.Wait()
}

// Close cancels pending jobs and waits for running ones. Later lookups
// return only what is already cached.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.jobs.Wait()
}
