package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrientation_NoSamplesMeansZeroTilt(t *testing.T) {
	t.Parallel()
	o := NewOrientationTracker(3)

	assert.False(t, o.Initialized())
	assert.Equal(t, Vec2{}, o.Tilt())
	_, ok := o.Baseline()
	assert.False(t, ok)
}

func TestOrientation_FirstSampleIsBaseline(t *testing.T) {
	t.Parallel()
	o := NewOrientationTracker(3)

	o.Apply(OrientationSample{Pitch: 0.5, Roll: -0.2})
	require.True(t, o.Initialized())
	assert.Equal(t, Vec2{}, o.Tilt())

	o.Apply(OrientationSample{Pitch: 0.6, Roll: 0.0})
	tilt := o.Tilt()
	assert.InDelta(t, 0.6, tilt.X, 1e-12)
	assert.InDelta(t, -0.3, tilt.Y, 1e-12, "pitch axis is inverted")

	base, ok := o.Baseline()
	require.True(t, ok)
	assert.Equal(t, OrientationSample{Pitch: 0.5, Roll: -0.2}, base)
}

func TestOrientation_TiltIsRecomputedNotAccumulated(t *testing.T) {
	t.Parallel()
	o := NewOrientationTracker(1)

	o.Apply(OrientationSample{})
	for i := 0; i < 10; i++ {
		o.Apply(OrientationSample{Roll: 0.25})
	}
	assert.InDelta(t, 0.25, o.Tilt().X, 1e-12)

	o.Apply(OrientationSample{})
	assert.Equal(t, Vec2{X: 0, Y: 0}, o.Tilt())
}

func TestOrientation_Rebaseline(t *testing.T) {
	t.Parallel()
	o := NewOrientationTracker(2)

	o.Apply(OrientationSample{Pitch: 0, Roll: 0})
	o.Apply(OrientationSample{Pitch: 0, Roll: 1})
	assert.InDelta(t, 2, o.Tilt().X, 1e-12)

	o.Rebaseline()
	assert.False(t, o.Initialized())
	o.Apply(OrientationSample{Pitch: 0, Roll: 1})
	assert.Equal(t, Vec2{}, o.Tilt())
	o.Apply(OrientationSample{Pitch: 0, Roll: 1.5})
	assert.InDelta(t, 1, o.Tilt().X, 1e-12)
}

func TestOrientation_NonFiniteSamplesDropped(t *testing.T) {
	t.Parallel()
	o := NewOrientationTracker(1)

	o.Apply(OrientationSample{Pitch: math.NaN()})
	assert.False(t, o.Initialized(), "garbage must not become the baseline")

	o.Apply(OrientationSample{})
	o.Apply(OrientationSample{Roll: math.Inf(1)})
	assert.Equal(t, Vec2{}, o.Tilt())
}
