package keyframe

// Interpolate returns the curve value at time (seconds from clip start).
//
// An empty curve yields 0 and a single keyframe yields its value everywhere.
// Times outside the keyframe range clamp to the nearest endpoint. Between
// keyframes the left keyframe's interpolation mode shapes the blend.
func (c *Curve) Interpolate(time float64) float64 {
	n := len(c.keys)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return c.keys[0].Value
	}

	first, last := c.keys[0], c.keys[n-1]
	if time <= first.Time {
		return first.Value
	}
	if time >= last.Time {
		return last.Value
	}

	for i := 0; i < n-1; i++ {
		k1, k2 := c.keys[i], c.keys[i+1]
		if time < k1.Time || time >= k2.Time {
			continue
		}
		if time == k1.Time {
			return k1.Value
		}
		t := (time - k1.Time) / (k2.Time - k1.Time)
		return blend(k1, k2, t)
	}

	// Unreachable for a sorted curve.
	return last.Value
}

// blend applies k1's interpolation mode at fraction t in (0,1).
func blend(k1, k2 *Keyframe, t float64) float64 {
	v1, v2 := k1.Value, k2.Value
	switch k1.Interpolation {
	case Hold:
		return v1
	case EaseIn:
		return lerp(v1, v2, t*t)
	case EaseOut:
		u := 1 - t
		return lerp(v1, v2, 1-u*u)
	case EaseInOut:
		return lerp(v1, v2, easeInOut(t))
	case Bezier:
		return bezier(k1, k2, t)
	default:
		return lerp(v1, v2, t)
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOut is the symmetric quadratic ease.
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// bezier evaluates a cubic through the two values and their handles.
// The value is parameterized directly by the linear time fraction; the
// handles' time offsets are not solved for.
func bezier(k1, k2 *Keyframe, t float64) float64 {
	p0, p3 := k1.Value, k2.Value
	p1 := p0 + (p3-p0)/3
	p2 := p0 + 2*(p3-p0)/3
	if k1.OutHandle != nil {
		p1 = p0 + k1.OutHandle.ValueOffset
	}
	if k2.InHandle != nil {
		p2 = p3 + k2.InHandle.ValueOffset
	}

	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
}
