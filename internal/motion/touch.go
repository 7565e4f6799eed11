package motion

import "sync/atomic"

type PointerAction int

const (
	PointerDown PointerAction = iota
	PointerMove
	PointerUp
	// SecondaryDown is an additional finger landing while one is already down.
	SecondaryDown
	// SecondaryUp is a finger lifting while at least one other stays down.
	SecondaryUp
)

func (a PointerAction) String() string {
	switch a {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case SecondaryDown:
		return "pointer-down"
	case SecondaryUp:
		return "pointer-up"
	}
	return "unknown"
}

// PointerEvent is one entry of the pointer stream. Pointers is the number of
// pointers still down after the event: 1 for down, 0 for up, the remaining
// count for SecondaryUp.
type PointerEvent struct {
	Action   PointerAction
	Position Vec2
	Pointers int
}

// GestureState reports which kind of touch currently owns the input.
type GestureState struct {
	MultiTouch  bool
	SingleTouch bool
}

// TouchDragTracker accumulates single-finger drags into a planar offset.
//
// Handle and SetPinching must be called from one goroutine only. The offset
// is additionally re-anchored by the compositor from the render goroutine.
type TouchDragTracker struct {
	sensitivity float64

	// gesture goroutine state
	last     Vec2
	pointers int
	pinching bool

	offset   atomicVec2
	touching atomic.Bool
	multi    atomic.Bool
}

func NewTouchDragTracker(sensitivity float64) *TouchDragTracker {
	return &TouchDragTracker{sensitivity: sensitivity}
}

func (t *TouchDragTracker) Handle(ev PointerEvent) {
	if !finite(ev.Position.X) || !finite(ev.Position.Y) {
		return
	}

	switch ev.Action {
	case PointerDown:
		t.last = ev.Position
		t.pointers = 1
		t.touching.Store(true)
		t.multi.Store(false)

	case SecondaryDown:
		t.pointers = max(ev.Pointers, 2)
		t.last = ev.Position
		t.multi.Store(true)

	case PointerMove:
		n := ev.Pointers
		if n <= 0 {
			n = t.pointers
		}
		if t.pointers == 0 && n > 0 {
			// The down was lost: start the drag here instead of jumping.
			t.last = ev.Position
			t.pointers = n
			t.touching.Store(true)
			t.multi.Store(n > 1)
			return
		}
		t.pointers = n
		wasMulti, isMulti := t.multi.Load(), n > 1
		if wasMulti != isMulti {
			// Pointer count changed without an explicit pointer-down/up.
			t.multi.Store(isMulti)
		} else if n == 1 && !t.pinching {
			delta := ev.Position.Sub(t.last).Scale(t.sensitivity)
			// Dragging right moves the apparent camera left.
			t.offset.x.Add(-delta.X)
			t.offset.y.Add(-delta.Y)
		}
		t.last = ev.Position

	case SecondaryUp:
		t.pointers = max(ev.Pointers, 1)
		t.last = ev.Position
		if t.pointers == 1 {
			t.multi.Store(false)
		}

	case PointerUp:
		t.last = ev.Position
		t.pointers = 0
		t.multi.Store(false)
		t.touching.Store(false)
	}
}

// SetPinching suppresses drag while a pinch gesture is in progress. Moves
// during the pinch only update the last position, so the drag resumes from
// where the finger is when the pinch ends. A pinch that ends with no pointer
// down also ends the touch.
func (t *TouchDragTracker) SetPinching(active bool) {
	if active {
		t.touching.Store(true)
	} else if t.pointers == 0 {
		t.touching.Store(false)
		t.multi.Store(false)
	}
	t.pinching = active
}

// Touching gates the idle animation.
func (t *TouchDragTracker) Touching() bool { return t.touching.Load() }

func (t *TouchDragTracker) Gesture() GestureState {
	multi := t.multi.Load()
	return GestureState{
		MultiTouch:  multi,
		SingleTouch: t.touching.Load() && !multi,
	}
}

func (t *TouchDragTracker) Offset() Vec2 { return t.offset.Load() }
