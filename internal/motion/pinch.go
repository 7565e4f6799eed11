package motion

import "sync/atomic"

// PinchEvent carries the scale change since the previous pinch update, e.g.
// 1.05 for 5% larger.
type PinchEvent struct {
	Scale      float64
	InProgress bool
}

// PinchZoomController keeps the zoom factor inside [min, max]. The lower
// bound is the initial zoom so the user never zooms out past the starting
// framing.
type PinchZoomController struct {
	min, max float64
	bits     atomicFloat
	updates  atomic.Uint64
}

func NewPinchZoomController(initial, maxZoom float64) *PinchZoomController {
	if maxZoom < initial {
		maxZoom = initial
	}
	c := &PinchZoomController{min: initial, max: maxZoom}
	c.bits.Store(initial)
	return c
}

// Apply multiplies the zoom by scale and clamps in one step, so only clamped
// values are ever stored. Non-positive or non-finite factors are ignored.
func (c *PinchZoomController) Apply(scale float64) float64 {
	current := c.bits.Load()
	if scale <= 0 || !finite(scale) {
		return current
	}
	next := clamp(current*scale, c.min, c.max)
	c.bits.Store(next)
	c.updates.Add(1)
	return next
}

func (c *PinchZoomController) Zoom() float64 { return c.bits.Load() }

// Bounds reports the zoom range.
func (c *PinchZoomController) Bounds() (float64, float64) { return c.min, c.max }
