// Package notify delivers timeline change notifications.
//
// The editor publishes a Change after every committed edit, undo and redo,
// after every render cache clear, and whenever the rendering engine or a
// preview producer reports a failure it absorbed. Observers subscribe to
// all changes or to specific change types. Delivery is synchronous by
// default; WithAsync moves it to a goroutine so a UI can re-marshal onto
// its own thread.
package notify

import (
	"sync"
)

// ChangeType represents the type of timeline change.
type ChangeType int

const (
	// ChangeEdit indicates an edit was applied and recorded.
	ChangeEdit ChangeType = iota

	// ChangeUndo indicates an edit was undone.
	ChangeUndo

	// ChangeRedo indicates an edit was redone.
	ChangeRedo

	// ChangeCacheClear indicates the engine's frame cache was dropped.
	// Frames cached under earlier handles must be fetched again.
	ChangeCacheClear

	// ChangeEngineError indicates an engine call failed. The edit that
	// caused it still happened.
	ChangeEngineError

	// ChangeResourceError indicates a thumbnail or waveform job failed.
	ChangeResourceError

	// ChangeLoad indicates a whole project was loaded.
	ChangeLoad
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeEdit:
		return "edit"
	case ChangeUndo:
		return "undo"
	case ChangeRedo:
		return "redo"
	case ChangeCacheClear:
		return "cache-clear"
	case ChangeEngineError:
		return "engine-error"
	case ChangeResourceError:
		return "resource-error"
	case ChangeLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Change represents a timeline change event.
type Change struct {
	// Type is the type of change.
	Type ChangeType

	// Description names the edit, e.g. "Ripple Delete".
	Description string

	// Op is the failing engine or producer call for error changes.
	Op string

	// Err is the failure for error changes.
	Err error
}

// Observer is called when timeline changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers that receive all changes
	globalObservers map[uint64]Observer

	// Observers keyed by change type
	typeObservers map[ChangeType]map[uint64]Observer

	nextID uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup

	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous notification delivery.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers: make(map[uint64]Observer),
		typeObservers:   make(map[ChangeType]map[uint64]Observer),
		done:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeType registers an observer for the given change types only.
func (n *Notifier) SubscribeType(observer Observer, types ...ChangeType) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	for _, t := range types {
		if n.typeObservers[t] == nil {
			n.typeObservers[t] = make(map[uint64]Observer)
		}
		n.typeObservers[t][id] = observer
	}

	return &Subscription{id: id, notifier: n}
}

// Notify sends a change notification to all relevant observers.
// It is a no-op on a nil or closed Notifier.
func (n *Notifier) Notify(change Change) {
	if n == nil {
		return
	}
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliverChange(change)
}

// NotifyError is a convenience method for failure changes.
func (n *Notifier) NotifyError(t ChangeType, op string, err error) {
	n.Notify(Change{Type: t, Op: op, Err: err})
}

// Close shuts down the notifier, delivering anything still buffered.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for t, observers := range n.typeObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.typeObservers, t)
		}
	}
}

// deliverChange sends a change to all matching observers.
func (n *Notifier) deliverChange(change Change) {
	n.mu.RLock()

	var observers []Observer
	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}
	for _, obs := range n.typeObservers[change.Type] {
		observers = append(observers, obs)
	}

	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliverChange(change)
		case <-n.done:
			// Drain remaining buffered changes
			for {
				select {
				case change := <-n.buffer:
					n.deliverChange(change)
				default:
					return
				}
			}
		}
	}
}

// Batch collects changes and delivers them together. The editor holds
// notifications in a batch while a gesture is in progress.
type Batch struct {
	notifier *Notifier
	changes  []Change
	mu       sync.Mutex
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Add adds a change to the batch.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Commit sends all batched changes to observers.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = nil
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}

// Discard clears the batch without sending notifications.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = nil
}

// Len returns the number of pending changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}
