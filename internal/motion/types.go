// Package motion fuses drag, tilt, pinch and idle input into the per-frame
// pose consumed by the renderer.
//
// Each contributor field is written by exactly one producer goroutine and
// read by the render loop. Fields are stored in sync/atomic values so the
// render loop never observes a torn or stale-cached write.
package motion

import (
	"math"
	"sync/atomic"
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{X: v.X * s, Y: v.Y * s} }

// Pose is what the renderer receives once per frame.
type Pose struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Zoom   float64 `json:"zoom"`
	Height float64 `json:"height"`
}

// atomicFloat is a float64 stored as its IEEE-754 bits.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 { return math.Float64frombits(f.bits.Load()) }

func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }

// Add applies delta with a compare-and-swap loop so a concurrent Store is
// never half-overwritten: it lands either before or after the addition.
func (f *atomicFloat) Add(delta float64) float64 {
	for {
		old := f.bits.Load()
		next := math.Float64frombits(old) + delta
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// atomicVec2 stores each component independently. Cross-component
// consistency is not guaranteed and not needed by the compositor.
type atomicVec2 struct {
	x, y atomicFloat
}

func (v *atomicVec2) Load() Vec2 { return Vec2{X: v.x.Load(), Y: v.y.Load()} }

func (v *atomicVec2) Store(p Vec2) {
	v.x.Store(p.X)
	v.y.Store(p.Y)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
