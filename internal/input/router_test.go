package input

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depthflow/internal/motion"
)

const waitFor = 2 * time.Second
const tick = 2 * time.Millisecond

func startRouter(t *testing.T, opts RouterOptions) (*Router, *motion.PoseCompositor) {
	t.Helper()
	engine := motion.NewEngine(motion.DefaultParams())
	r := NewRouter(engine, opts)
	r.Start(context.Background())
	t.Cleanup(r.Stop)
	return r, engine
}

func TestRouter_GestureStreamReachesTrackers(t *testing.T) {
	t.Parallel()
	r, engine := startRouter(t, RouterOptions{})

	require.True(t, r.PushState(state(1, motion.Vec2{X: 0})))
	require.True(t, r.PushState(state(1, motion.Vec2{X: 100})))
	require.True(t, r.PushPinch(motion.PinchEvent{Scale: 2, InProgress: false}))

	require.Eventually(t, func() bool { return r.Handled() == 3 }, waitFor, tick)
	assert.InDelta(t, -0.3, engine.Drag().Offset().X, 1e-12)
	assert.InDelta(t, 2.4, engine.Zoom().Zoom(), 1e-12)
	assert.True(t, engine.Drag().Touching())

	require.True(t, r.PushPointer(motion.PointerEvent{Action: motion.PointerUp, Pointers: 0}))
	require.Eventually(t, func() bool { return !engine.Drag().Touching() }, waitFor, tick)
}

func TestRouter_TwoFingerStatesPinch(t *testing.T) {
	t.Parallel()
	r, engine := startRouter(t, RouterOptions{})

	r.PushState(state(1, motion.Vec2{X: 0}))
	r.PushState(state(2, motion.Vec2{X: 0}, motion.Vec2{X: 100}))
	r.PushState(state(2, motion.Vec2{X: 0}, motion.Vec2{X: 200}))
	r.PushState(state(1, motion.Vec2{X: 0}))

	require.Eventually(t, func() bool { return r.Handled() == 4 }, waitFor, tick)
	assert.InDelta(t, 2.4, engine.Zoom().Zoom(), 1e-12)
	assert.Equal(t, motion.Vec2{}, engine.Drag().Offset(), "pinch must not drag")
}

func TestRouter_OrientationAndResume(t *testing.T) {
	t.Parallel()
	r, engine := startRouter(t, RouterOptions{RebaselineOnResume: true})

	r.PushOrientation(motion.OrientationSample{Pitch: 0, Roll: 0})
	r.PushOrientation(motion.OrientationSample{Pitch: 0, Roll: 0.1})
	require.Eventually(t, func() bool { return r.Handled() == 2 }, waitFor, tick)
	assert.InDelta(t, 0.3, engine.Orientation().Tilt().X, 1e-12)

	r.Resume()
	require.Eventually(t, func() bool { return !engine.Orientation().Initialized() }, waitFor, tick)
	r.PushOrientation(motion.OrientationSample{Pitch: 0, Roll: 0.1})
	require.Eventually(t, func() bool { return engine.Orientation().Initialized() }, waitFor, tick)
	assert.Equal(t, motion.Vec2{}, engine.Orientation().Tilt())
}

func TestRouter_ResumeKeepsQueueOrder(t *testing.T) {
	t.Parallel()
	for i := range 50 {
		engine := motion.NewEngine(motion.DefaultParams())
		r := NewRouter(engine, RouterOptions{RebaselineOnResume: true})

		// Queue everything before the sensor goroutine runs.
		r.PushOrientation(motion.OrientationSample{Roll: 0})
		r.PushOrientation(motion.OrientationSample{Roll: 0.5})
		r.Resume()
		r.PushOrientation(motion.OrientationSample{Roll: 0.1})
		r.Start(context.Background())

		require.Eventually(t, func() bool { return r.Handled() == 4 }, waitFor, tick, "run %d", i)
		r.Stop()

		assert.Equal(t, motion.Vec2{}, engine.Orientation().Tilt(), "run %d", i)
		base, ok := engine.Orientation().Baseline()
		require.True(t, ok)
		assert.InDelta(t, 0.1, base.Roll, 1e-12, "run %d", i)
	}
}

func TestRouter_ResumeWithoutRebaselineKeepsBaseline(t *testing.T) {
	t.Parallel()
	r, engine := startRouter(t, RouterOptions{})

	r.PushOrientation(motion.OrientationSample{})
	require.Eventually(t, func() bool { return engine.Orientation().Initialized() }, waitFor, tick)
	r.Resume()
	r.PushOrientation(motion.OrientationSample{Roll: 1})
	require.Eventually(t, func() bool { return r.Handled() == 2 }, waitFor, tick)
	assert.InDelta(t, 3.0, engine.Orientation().Tilt().X, 1e-12)
}

func TestRouter_DropsWhenFull(t *testing.T) {
	t.Parallel()
	engine := motion.NewEngine(motion.DefaultParams())
	r := NewRouter(engine, RouterOptions{Buffer: 2})

	// Not started: nothing drains the queue.
	assert.True(t, r.PushOrientation(motion.OrientationSample{}))
	assert.True(t, r.PushOrientation(motion.OrientationSample{}))
	assert.False(t, r.PushOrientation(motion.OrientationSample{}))
	assert.EqualValues(t, 1, r.Dropped())
}

func TestRouter_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	engine := motion.NewEngine(motion.DefaultParams())
	r := NewRouter(engine, RouterOptions{})
	r.Stop()
	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}

type fakeSource struct {
	mu      sync.Mutex
	x, y    float64
	pressed bool
	err     error
}

func (f *fakeSource) set(x, y float64, pressed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x, f.y, f.pressed = x, y, pressed
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) QueryPointer() (float64, float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y, f.pressed, f.err
}

func TestRouter_Poll(t *testing.T) {
	t.Parallel()
	r, engine := startRouter(t, RouterOptions{})
	src := &fakeSource{}
	src.set(10, 10, true)

	done := make(chan error, 1)
	go func() { done <- r.Poll(context.Background(), src, time.Millisecond) }()

	require.Eventually(t, func() bool { return engine.Drag().Touching() }, waitFor, tick)
	src.set(110, 10, true)
	require.Eventually(t, func() bool { return engine.Drag().Offset().X < -0.29 }, waitFor, tick)
	assert.InDelta(t, -0.3, engine.Drag().Offset().X, 1e-12)

	boom := errors.New("display gone")
	src.fail(boom)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(waitFor):
		t.Fatal("poll did not return")
	}
}

func TestRouter_PollStopsOnCancel(t *testing.T) {
	t.Parallel()
	r, _ := startRouter(t, RouterOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Poll(ctx, &fakeSource{}, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}
