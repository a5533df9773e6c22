package edit

import "errors"

// Errors returned by edit commands. Every one is returned before the
// timeline is touched.
var (
	// ErrClipNotFound indicates a clip id did not resolve.
	ErrClipNotFound = errors.New("clip not found")

	// ErrTrackNotFound indicates a track id did not resolve.
	ErrTrackNotFound = errors.New("track not found")

	// ErrMarkerNotFound indicates a marker id did not resolve.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrKeyframeNotFound indicates a keyframe id did not resolve.
	ErrKeyframeNotFound = errors.New("keyframe not found")

	// ErrInvalidProperty indicates an unknown animatable property.
	ErrInvalidProperty = errors.New("invalid property")

	// ErrInvalidCut indicates a razor cut at or outside a clip's bounds.
	ErrInvalidCut = errors.New("cut outside clip")

	// ErrMinDuration indicates an edit would leave a clip shorter than the
	// minimum duration.
	ErrMinDuration = errors.New("clip below minimum duration")

	// ErrNotAdjacent indicates a rolling edit on clips that do not touch.
	ErrNotAdjacent = errors.New("clips are not adjacent")

	// ErrInvalidTrim indicates a trim that would start before the source.
	ErrInvalidTrim = errors.New("trim before source start")

	// ErrInvalidTime indicates a negative timeline position.
	ErrInvalidTime = errors.New("time before timeline start")

	// ErrInvalidDuration indicates a clip with a non-positive duration.
	ErrInvalidDuration = errors.New("invalid clip duration")

	// ErrTrackLocked indicates an edit on a clip whose track is locked.
	ErrTrackLocked = errors.New("track is locked")

	// ErrTrackKind indicates a clip move between tracks of different kinds.
	ErrTrackKind = errors.New("track kind mismatch")
)
