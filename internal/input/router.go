package input

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"depthflow/internal/motion"
	"depthflow/internal/utils"
)

const DefaultBuffer = 256

// Router owns the two writer goroutines of the fusion engine. The gesture
// goroutine is the only caller of the drag tracker and the zoom controller;
// the sensor goroutine is the only writer of the orientation tracker.
// Producers never block: when a queue is full the message is dropped and
// counted.
type Router struct {
	engine     *motion.PoseCompositor
	rebaseline bool

	states   chan PointerState
	pointers chan motion.PointerEvent
	pinches  chan motion.PinchEvent
	sensors  chan sensorMsg

	differ PointerDiffer
	pinch  PinchDetector

	dropped atomic.Uint64
	handled atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// sensorMsg is either an orientation sample or a rebaseline marker. Both
// share one queue so a resume is applied after every sample pushed before it.
type sensorMsg struct {
	sample     motion.OrientationSample
	rebaseline bool
}

type RouterOptions struct {
	// Buffer is the capacity of each queue. Zero means DefaultBuffer.
	Buffer int
	// RebaselineOnResume makes Resume discard the orientation baseline.
	RebaselineOnResume bool
}

func NewRouter(engine *motion.PoseCompositor, opts RouterOptions) *Router {
	n := opts.Buffer
	if n <= 0 {
		n = DefaultBuffer
	}
	return &Router{
		engine:     engine,
		rebaseline: opts.RebaselineOnResume,
		states:     make(chan PointerState, n),
		pointers:   make(chan motion.PointerEvent, n),
		pinches:    make(chan motion.PinchEvent, n),
		sensors:    make(chan sensorMsg, n),
	}
}

// Start launches the gesture and sensor goroutines. They run until ctx is
// cancelled or Stop is called.
func (r *Router) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(2)
	go r.gestureLoop(ctx)
	go r.sensorLoop(ctx)
}

// Stop cancels both goroutines and waits for them to exit. Queued messages
// that were not yet handled are discarded.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.cancel = nil
}

func push[T any](r *Router, ch chan T, v T, kind string) bool {
	select {
	case ch <- v:
		return true
	default:
		n := r.dropped.Add(1)
		utils.Debug("Input: %s queue full, dropped (total %d)", kind, n)
		return false
	}
}

// PushState queues a polled pointer snapshot.
func (r *Router) PushState(s PointerState) bool { return push(r, r.states, s, "pointer state") }

// PushPointer queues an already classified pointer event.
func (r *Router) PushPointer(ev motion.PointerEvent) bool {
	return push(r, r.pointers, ev, "pointer")
}

func (r *Router) PushPinch(ev motion.PinchEvent) bool { return push(r, r.pinches, ev, "pinch") }

func (r *Router) PushOrientation(s motion.OrientationSample) bool {
	return push(r, r.sensors, sensorMsg{sample: s}, "orientation")
}

// Resume signals that the view became active again. With re-baselining
// enabled the first orientation sample pushed after it becomes the new
// resting pose.
func (r *Router) Resume() {
	if r.rebaseline {
		push(r, r.sensors, sensorMsg{rebaseline: true}, "resume")
	}
}

func (r *Router) Dropped() uint64 { return r.dropped.Load() }

// Handled counts messages applied to the trackers.
func (r *Router) Handled() uint64 { return r.handled.Load() }

func (r *Router) gestureLoop(ctx context.Context) {
	defer r.wg.Done()
	drag := r.engine.Drag()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-r.states:
			if ev, ok := r.pinch.Update(s); ok {
				r.applyPinch(ev)
			}
			for _, ev := range r.differ.Diff(s) {
				drag.Handle(ev)
			}
		case ev := <-r.pointers:
			drag.Handle(ev)
		case ev := <-r.pinches:
			r.applyPinch(ev)
		}
		r.handled.Add(1)
	}
}

func (r *Router) applyPinch(ev motion.PinchEvent) {
	r.engine.Drag().SetPinching(ev.InProgress)
	r.engine.Zoom().Apply(ev.Scale)
}

func (r *Router) sensorLoop(ctx context.Context) {
	defer r.wg.Done()
	tracker := r.engine.Orientation()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-r.sensors:
			if m.rebaseline {
				utils.Debug("Input: re-baselining orientation")
				tracker.Rebaseline()
			} else {
				tracker.Apply(m.sample)
			}
		}
		r.handled.Add(1)
	}
}

// PointerSource is polled for a single pointer, e.g. the global X11 cursor.
type PointerSource interface {
	QueryPointer() (x, y float64, pressed bool, err error)
}

// Poll reads src every interval and pushes a snapshot whenever it changes.
// It returns when ctx is cancelled, or with the first query error.
func (r *Router) Poll(ctx context.Context, src PointerSource, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last PointerState
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		x, y, pressed, err := src.QueryPointer()
		if err != nil {
			return err
		}
		var s PointerState
		if pressed {
			s.Count = 1
		}
		s.Positions[0] = motion.Vec2{X: x, Y: y}
		if s == last {
			continue
		}
		last = s
		r.PushState(s)
	}
}
