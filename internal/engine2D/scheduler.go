package engine2D

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"depthflow/internal/convert"
	"depthflow/internal/motion"
	"depthflow/internal/utils"
)

type State int32

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// RenderLoopScheduler drives the backend from a dedicated goroutine locked
// to its OS thread. Each iteration composes a pose from the current tracker
// state and hands it to the backend, unthrottled; pacing comes from the
// backend (vsync).
type RenderLoopScheduler struct {
	backend Backend
	engine  *motion.PoseCompositor
	clock   Clock

	mu      sync.Mutex
	state   atomic.Int32
	stop    chan struct{}
	stopped chan struct{}

	frames atomic.Uint64
}

func NewRenderLoopScheduler(backend Backend, engine *motion.PoseCompositor, clock Clock) *RenderLoopScheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RenderLoopScheduler{backend: backend, engine: engine, clock: clock}
}

func (s *RenderLoopScheduler) State() State { return State(s.state.Load()) }

// Frames counts frames drawn across all runs.
func (s *RenderLoopScheduler) Frames() uint64 { return s.frames.Load() }

// Start initializes the backend on the render goroutine and returns once
// the loop is running. If the backend cannot initialize the scheduler stays
// stopped and ErrBackendUnavailable is returned; nothing is retried.
func (s *RenderLoopScheduler) Start(assets *convert.Bundle, surface Surface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateRunning {
		return ErrAlreadyRunning
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	ready := make(chan bool, 1)

	go s.loop(assets, surface, ready, stop, stopped)

	if !<-ready {
		<-stopped
		utils.Error("Render loop: backend failed to initialize")
		return fmt.Errorf("start render loop: %w", ErrBackendUnavailable)
	}

	s.stop, s.stopped = stop, stopped
	s.state.Store(int32(StateRunning))
	utils.Info("Render loop: running (%dx%d)", surface.Width, surface.Height)
	return nil
}

// Stop ends the loop and returns after the backend has been cleaned up.
// Stopping a stopped scheduler is a no-op.
func (s *RenderLoopScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateRunning {
		return
	}
	close(s.stop)
	<-s.stopped
	s.state.Store(int32(StateStopped))
	utils.Info("Render loop: stopped after %d frames", s.frames.Load())
}

func (s *RenderLoopScheduler) loop(assets *convert.Bundle, surface Surface, ready chan<- bool, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	// Graphics contexts are bound to the thread that created them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !s.backend.Init(assets, surface) {
		ready <- false
		return
	}
	ready <- true
	defer s.backend.Cleanup()

	start := s.clock.Now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		elapsed := s.clock.Now().Sub(start).Seconds()
		pose := s.engine.Compose(elapsed)

		s.backend.SetParams(float32(pose.X), float32(pose.Y), float32(pose.Zoom), float32(pose.Height))
		s.backend.DrawFrame()
		s.frames.Add(1)
	}
}
