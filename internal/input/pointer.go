// Package input turns raw pointer, pinch and orientation data into the
// events consumed by the motion trackers, and routes them to the goroutine
// that owns each tracker.
package input

import (
	"math"

	"depthflow/internal/motion"
)

const MaxPointers = 4

// PointerState is a polled snapshot of the active pointers. Positions[0] is
// the primary pointer; only the first Count entries are meaningful.
type PointerState struct {
	Count     int
	Positions [MaxPointers]motion.Vec2
}

func (s PointerState) Primary() motion.Vec2 { return s.Positions[0] }

// PointerDiffer converts successive PointerState snapshots into the
// down/move/up/pointer-down/pointer-up stream the drag tracker expects.
// Because it diffs against the last snapshot it saw, a skipped snapshot
// never leaves it in an inconsistent state.
type PointerDiffer struct {
	last PointerState
	buf  []motion.PointerEvent
}

// Diff returns the events leading from the previous snapshot to s. The
// returned slice is reused by the next call.
func (d *PointerDiffer) Diff(s PointerState) []motion.PointerEvent {
	s.Count = min(max(s.Count, 0), MaxPointers)
	prev := d.last
	d.last = s
	d.buf = d.buf[:0]

	pos := s.Primary()
	switch {
	case prev.Count == 0 && s.Count == 0:
		// hover

	case prev.Count == 0:
		d.emit(motion.PointerDown, pos, 1)
		if s.Count > 1 {
			d.emit(motion.SecondaryDown, pos, s.Count)
		}

	case s.Count == 0:
		if prev.Count > 1 {
			d.emit(motion.SecondaryUp, prev.Primary(), 1)
		}
		d.emit(motion.PointerUp, prev.Primary(), 0)

	case s.Count > prev.Count:
		d.emit(motion.SecondaryDown, pos, s.Count)

	case s.Count < prev.Count:
		d.emit(motion.SecondaryUp, pos, s.Count)

	case pos != prev.Primary():
		d.emit(motion.PointerMove, pos, s.Count)
	}
	return d.buf
}

func (d *PointerDiffer) emit(a motion.PointerAction, pos motion.Vec2, n int) {
	d.buf = append(d.buf, motion.PointerEvent{Action: a, Position: pos, Pointers: n})
}

// PinchDetector derives incremental pinch scale factors from two-finger
// snapshots: each update reports the ratio of the current finger distance to
// the previous one.
type PinchDetector struct {
	active   bool
	prevDist float64
}

// Update returns the pinch event for s, if any. The first two-finger
// snapshot only starts the gesture; leaving two-finger state ends it.
func (p *PinchDetector) Update(s PointerState) (motion.PinchEvent, bool) {
	if s.Count != 2 {
		if p.active {
			p.active = false
			return motion.PinchEvent{Scale: 1, InProgress: false}, true
		}
		return motion.PinchEvent{}, false
	}

	a, b := s.Positions[0], s.Positions[1]
	dist := math.Hypot(b.X-a.X, b.Y-a.Y)

	if !p.active {
		p.active = true
		p.prevDist = dist
		return motion.PinchEvent{Scale: 1, InProgress: true}, true
	}

	scale := 1.0
	if p.prevDist > 0 && dist > 0 {
		scale = dist / p.prevDist
	}
	if dist > 0 {
		p.prevDist = dist
	}
	return motion.PinchEvent{Scale: scale, InProgress: true}, true
}

func (p *PinchDetector) Active() bool { return p.active }
