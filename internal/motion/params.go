package motion

// ClampReference selects which zoom sizes the pannable boundary.
type ClampReference string

const (
	// ClampInitialZoom sizes the boundary from the initial (minimum) zoom so the
	// pannable range does not grow while zooming in.
	ClampInitialZoom ClampReference = "initial"
	// ClampLiveZoom sizes the boundary from the current zoom.
	ClampLiveZoom ClampReference = "live"
)

// Params are the tuning constants of the fusion engine.
type Params struct {
	TouchSensitivity float64
	GyroSensitivity  float64

	BreathSpeed     float64
	BreathAmplitude float64

	// InitialZoom is also the lower zoom bound.
	InitialZoom float64
	MaxZoom     float64

	MarginFactor   float64
	ExtraMargin    float64
	ClampReference ClampReference

	// Height is the fixed depth height sent with every pose.
	Height float64
}

func DefaultParams() Params {
	return Params{
		TouchSensitivity: 0.003,
		GyroSensitivity:  3.0,
		BreathSpeed:      1.5,
		BreathAmplitude:  0.3,
		InitialZoom:      1.2,
		MaxZoom:          5.0,
		MarginFactor:     1.5,
		ExtraMargin:      1.0,
		ClampReference:   ClampInitialZoom,
		Height:           0.05,
	}
}

// MaxLimit is the symmetric bound on the composed offset for the given
// reference zoom. It is never negative; zero locks the pan to the origin.
func MaxLimit(referenceZoom, marginFactor, extraMargin float64) float64 {
	limit := (referenceZoom-1.0)*marginFactor + extraMargin
	if limit < 0 || !finite(limit) {
		return 0
	}
	return limit
}
