package motion

import "math"

// IdleAnimator produces a slow elliptical drift while nobody is touching the
// screen. X and Y run at different frequencies so the path does not retrace
// a single line.
type IdleAnimator struct {
	Speed     float64
	Amplitude float64
}

func NewIdleAnimator(speed, amplitude float64) IdleAnimator {
	return IdleAnimator{Speed: speed, Amplitude: amplitude}
}

// Breathe returns the idle offset at elapsed seconds t.
func (a IdleAnimator) Breathe(t float64, touching bool) Vec2 {
	if touching || !finite(t) {
		return Vec2{}
	}
	return Vec2{
		X: math.Sin(t*a.Speed) * a.Amplitude,
		Y: math.Cos(t*a.Speed*0.8) * a.Amplitude,
	}
}
