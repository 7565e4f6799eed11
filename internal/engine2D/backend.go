package engine2D

import (
	"errors"

	"depthflow/internal/convert"
)

var (
	ErrBackendUnavailable = errors.New("render backend unavailable")
	ErrAlreadyRunning     = errors.New("render loop already running")
)

// Surface describes the drawable the backend renders into.
type Surface struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	// TargetFPS caps the frame rate. Zero leaves pacing to vsync.
	TargetFPS int
	Scaling   ScalingMode
}

func DefaultSurface() Surface {
	return Surface{Title: "depthflow", Width: 1280, Height: 720, Resizable: true, Scaling: ScaleFill}
}

// Backend draws frames for the render loop. All methods are called from the
// render goroutine only, which is locked to its OS thread.
type Backend interface {
	// Init prepares the backend for drawing. It must be idempotent and
	// report false when the backend cannot render.
	Init(assets *convert.Bundle, surface Surface) bool
	SetParams(x, y, zoom, height float32)
	DrawFrame()
	Cleanup()
}
