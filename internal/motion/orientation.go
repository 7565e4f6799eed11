package motion

import "sync/atomic"

// OrientationSample is a device attitude reading in radians.
type OrientationSample struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

type baseline struct {
	pitch, roll float64
}

// OrientationTracker turns absolute orientation samples into a tilt offset
// relative to the first sample it sees.
type OrientationTracker struct {
	sensitivity float64
	base        atomic.Pointer[baseline]
	tilt        atomicVec2
}

func NewOrientationTracker(sensitivity float64) *OrientationTracker {
	return &OrientationTracker{sensitivity: sensitivity}
}

// Apply is called from the sensor goroutine for every sample.
func (t *OrientationTracker) Apply(s OrientationSample) {
	if !finite(s.Pitch) || !finite(s.Roll) {
		return
	}
	b := t.base.Load()
	if b == nil {
		candidate := &baseline{pitch: s.Pitch, roll: s.Roll}
		if !t.base.CompareAndSwap(nil, candidate) {
			candidate = t.base.Load()
		}
		b = candidate
	}
	t.tilt.Store(Vec2{
		X: (s.Roll - b.roll) * t.sensitivity,
		// Tilting the top edge away moves the view up.
		Y: -(s.Pitch - b.pitch) * t.sensitivity,
	})
}

// Rebaseline discards the captured baseline; the next sample becomes the new
// zero reference. The current tilt is kept until that sample arrives.
func (t *OrientationTracker) Rebaseline() {
	t.base.Store(nil)
}

func (t *OrientationTracker) Initialized() bool {
	return t.base.Load() != nil
}

// Baseline returns the captured reference and whether one exists.
func (t *OrientationTracker) Baseline() (OrientationSample, bool) {
	b := t.base.Load()
	if b == nil {
		return OrientationSample{}, false
	}
	return OrientationSample{Pitch: b.pitch, Roll: b.roll}, true
}

func (t *OrientationTracker) Tilt() Vec2 {
	return t.tilt.Load()
}
