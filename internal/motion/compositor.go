package motion

import "sync/atomic"

// Snapshot is a per-frame copy of every contributor. Each field is read
// atomically; fields may come from slightly different instants.
type Snapshot struct {
	Drag     Vec2
	Tilt     Vec2
	Zoom     float64
	Touching bool
}

// Composition is the full result of one fusion step.
type Composition struct {
	Pose    Pose
	Raw     Vec2
	Breathe Vec2
	Limit   float64
	// ClampedX/ClampedY report which components hit the boundary.
	ClampedX bool
	ClampedY bool
	// Anchor is the drag offset that reproduces Pose given the same tilt and
	// breathe. Only meaningful for clamped components.
	Anchor Vec2
}

// PoseCompositor fuses the trackers into a bounded pose. Compose is called
// from the render goroutine only.
type PoseCompositor struct {
	params Params
	drag   *TouchDragTracker
	tilt   *OrientationTracker
	zoom   *PinchZoomController
	idle   IdleAnimator

	last   atomic.Pointer[Pose]
	frames atomic.Uint64
}

func NewPoseCompositor(params Params, drag *TouchDragTracker, tilt *OrientationTracker, zoom *PinchZoomController) *PoseCompositor {
	return &PoseCompositor{
		params: params,
		drag:   drag,
		tilt:   tilt,
		zoom:   zoom,
		idle:   NewIdleAnimator(params.BreathSpeed, params.BreathAmplitude),
	}
}

// NewEngine wires a full set of trackers from params.
func NewEngine(params Params) *PoseCompositor {
	return NewPoseCompositor(
		params,
		NewTouchDragTracker(params.TouchSensitivity),
		NewOrientationTracker(params.GyroSensitivity),
		NewPinchZoomController(params.InitialZoom, params.MaxZoom),
	)
}

func (c *PoseCompositor) Drag() *TouchDragTracker          { return c.drag }
func (c *PoseCompositor) Orientation() *OrientationTracker { return c.tilt }
func (c *PoseCompositor) Zoom() *PinchZoomController       { return c.zoom }
func (c *PoseCompositor) Params() Params                   { return c.params }

func (c *PoseCompositor) Snapshot() Snapshot {
	return Snapshot{
		Drag:     c.drag.Offset(),
		Tilt:     c.tilt.Tilt(),
		Zoom:     c.zoom.Zoom(),
		Touching: c.drag.Touching(),
	}
}

// Evaluate fuses a snapshot at elapsed seconds t without side effects.
func (c *PoseCompositor) Evaluate(s Snapshot, t float64) Composition {
	breathe := c.idle.Breathe(t, s.Touching)
	raw := s.Drag.Add(s.Tilt).Add(breathe)

	reference := c.params.InitialZoom
	if c.params.ClampReference == ClampLiveZoom {
		reference = s.Zoom
	}
	limit := MaxLimit(reference, c.params.MarginFactor, c.params.ExtraMargin)

	final := Vec2{
		X: clamp(raw.X, -limit, limit),
		Y: clamp(raw.Y, -limit, limit),
	}

	return Composition{
		Pose: Pose{
			X:      final.X,
			Y:      final.Y,
			Zoom:   s.Zoom,
			Height: c.params.Height,
		},
		Raw:      raw,
		Breathe:  breathe,
		Limit:    limit,
		ClampedX: final.X != raw.X,
		ClampedY: final.Y != raw.Y,
		Anchor:   final.Sub(s.Tilt).Sub(breathe),
	}
}

// Compose runs one fusion step and re-anchors the drag accumulator on every
// clamped axis, so reversing direction at the boundary moves the view on
// the very next frame instead of first unwinding the overshoot.
func (c *PoseCompositor) Compose(t float64) Pose {
	s := c.Snapshot()
	comp := c.Evaluate(s, t)

	// The correction is applied as a delta against the snapshot so a drag
	// delta that lands between Snapshot and here is kept, not overwritten.
	if comp.ClampedX {
		c.drag.offset.x.Add(comp.Anchor.X - s.Drag.X)
	}
	if comp.ClampedY {
		c.drag.offset.y.Add(comp.Anchor.Y - s.Drag.Y)
	}

	pose := comp.Pose
	c.last.Store(&pose)
	c.frames.Add(1)
	return pose
}

// LastPose returns the most recently composed pose, if any.
func (c *PoseCompositor) LastPose() (Pose, bool) {
	p := c.last.Load()
	if p == nil {
		return Pose{}, false
	}
	return *p, true
}

func (c *PoseCompositor) Frames() uint64 { return c.frames.Load() }
