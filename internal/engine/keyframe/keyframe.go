// Package keyframe provides per-property animation curves for timeline clips.
//
// A Curve is an ordered list of time/value samples. Times are seconds
// relative to the owning clip's start. The curve is a pure function of time:
// Interpolate never fails and never consults anything outside the curve.
package keyframe

import (
	"sort"
)

// Interpolation selects how a keyframe blends toward the next one.
type Interpolation int

const (
	// Linear blends with a straight line.
	Linear Interpolation = iota
	// Bezier blends with a cubic curve shaped by tangent handles.
	Bezier
	// EaseIn starts slow and accelerates.
	EaseIn
	// EaseOut starts fast and decelerates.
	EaseOut
	// EaseInOut accelerates then decelerates.
	EaseInOut
	// Hold keeps the value until the next keyframe.
	Hold
)

// String returns the interpolation name.
func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "linear"
	case Bezier:
		return "bezier"
	case EaseIn:
		return "ease-in"
	case EaseOut:
		return "ease-out"
	case EaseInOut:
		return "ease-in-out"
	case Hold:
		return "hold"
	default:
		return "unknown"
	}
}

// ParseInterpolation parses a name produced by String.
// Unknown names map to Linear.
func ParseInterpolation(s string) Interpolation {
	switch s {
	case "bezier":
		return Bezier
	case "ease-in":
		return EaseIn
	case "ease-out":
		return EaseOut
	case "ease-in-out":
		return EaseInOut
	case "hold":
		return Hold
	default:
		return Linear
	}
}

// Tangent is a Bezier handle expressed as offsets from its keyframe.
type Tangent struct {
	TimeOffset  float64
	ValueOffset float64
}

// ID identifies a keyframe within one curve. IDs are never reused by a curve.
type ID uint64

// Keyframe is a single sample on a curve.
type Keyframe struct {
	ID            ID
	Time          float64
	Value         float64
	Interpolation Interpolation
	InHandle      *Tangent
	OutHandle     *Tangent
}

// clone returns a deep copy including handles.
func (k Keyframe) clone() Keyframe {
	if k.InHandle != nil {
		h := *k.InHandle
		k.InHandle = &h
	}
	if k.OutHandle != nil {
		h := *k.OutHandle
		k.OutHandle = &h
	}
	return k
}

// Curve is a time-ordered list of keyframes owned by one clip property.
type Curve struct {
	keys   []*Keyframe
	nextID ID
}

// NewCurve creates an empty curve.
func NewCurve() *Curve {
	return &Curve{nextID: 1}
}

// Len returns the number of keyframes.
func (c *Curve) Len() int {
	return len(c.keys)
}

// IsEmpty returns true if the curve has no keyframes.
func (c *Curve) IsEmpty() bool {
	return len(c.keys) == 0
}

// Keyframes returns copies of all keyframes in time order.
func (c *Curve) Keyframes() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	for i, k := range c.keys {
		out[i] = k.clone()
	}
	return out
}

// Get returns a copy of the keyframe with the given id.
func (c *Curve) Get(id ID) (Keyframe, bool) {
	if k := c.find(id); k != nil {
		return k.clone(), true
	}
	return Keyframe{}, false
}

// Add inserts a keyframe and keeps the curve sorted.
// Keyframes sharing a time keep insertion order, so the newest sorts last.
func (c *Curve) Add(time, value float64, interp Interpolation) ID {
	if c.nextID == 0 {
		c.nextID = 1
	}
	k := &Keyframe{
		ID:            c.nextID,
		Time:          time,
		Value:         value,
		Interpolation: interp,
	}
	c.nextID++
	c.keys = append(c.keys, k)
	c.sort()
	return k.ID
}

// Restore re-inserts a previously removed keyframe with its original id.
// Returns false if a keyframe with that id is already present.
func (c *Curve) Restore(k Keyframe) bool {
	if k.ID == 0 || c.find(k.ID) != nil {
		return false
	}
	nk := k.clone()
	c.keys = append(c.keys, &nk)
	if k.ID >= c.nextID {
		c.nextID = k.ID + 1
	}
	c.sort()
	return true
}

// RestoreAt re-inserts a keyframe at a list position, then re-sorts.
// Restoring at the position Index reported before removal puts the keyframe
// back exactly, even among keyframes sharing its time.
func (c *Curve) RestoreAt(k Keyframe, index int) bool {
	if k.ID == 0 || c.find(k.ID) != nil {
		return false
	}
	if index < 0 || index > len(c.keys) {
		index = len(c.keys)
	}
	nk := k.clone()
	c.keys = append(c.keys, nil)
	copy(c.keys[index+1:], c.keys[index:])
	c.keys[index] = &nk
	if k.ID >= c.nextID {
		c.nextID = k.ID + 1
	}
	c.sort()
	return true
}

// Index returns the list position of a keyframe, or -1.
func (c *Curve) Index(id ID) int {
	for i, k := range c.keys {
		if k.ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes the keyframe with the given id.
func (c *Curve) Remove(id ID) (Keyframe, bool) {
	for i, k := range c.keys {
		if k.ID == id {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return *k, true
		}
	}
	return Keyframe{}, false
}

// Update moves a keyframe to a new time and value and re-sorts.
func (c *Curve) Update(id ID, time, value float64) bool {
	k := c.find(id)
	if k == nil {
		return false
	}
	k.Time = time
	k.Value = value
	c.sort()
	return true
}

// SetHandles replaces the Bezier handles of a keyframe. Nil clears a handle.
func (c *Curve) SetHandles(id ID, in, out *Tangent) bool {
	k := c.find(id)
	if k == nil {
		return false
	}
	k.InHandle, k.OutHandle = nil, nil
	if in != nil {
		h := *in
		k.InHandle = &h
	}
	if out != nil {
		h := *out
		k.OutHandle = &h
	}
	return true
}

// Clear removes every keyframe.
func (c *Curve) Clear() {
	c.keys = nil
}

// Clone returns a deep copy of the curve, ids included.
func (c *Curve) Clone() *Curve {
	nc := &Curve{nextID: c.nextID, keys: make([]*Keyframe, len(c.keys))}
	for i, k := range c.keys {
		kk := k.clone()
		nc.keys[i] = &kk
	}
	return nc
}

// SliceFrom returns a new curve holding the keyframes at or after from,
// shifted so that from becomes time zero. Used when a clip is split.
func (c *Curve) SliceFrom(from float64) *Curve {
	nc := NewCurve()
	for _, k := range c.keys {
		if k.Time < from {
			continue
		}
		kk := k.clone()
		kk.ID = nc.nextID
		kk.Time -= from
		nc.nextID++
		nc.keys = append(nc.keys, &kk)
	}
	return nc
}

func (c *Curve) find(id ID) *Keyframe {
	for _, k := range c.keys {
		if k.ID == id {
			return k
		}
	}
	return nil
}

func (c *Curve) sort() {
	sort.SliceStable(c.keys, func(i, j int) bool {
		return c.keys[i].Time < c.keys[j].Time
	})
}
