package engine2D

import (
	"fmt"
	"math"
)

type ScalingMode string

const (
	// ScaleFill covers the whole screen, cropping the image edges.
	ScaleFill ScalingMode = "fill"
	// ScaleFit letterboxes the image inside the screen.
	ScaleFit ScalingMode = "fit"
)

func ParseScalingMode(s string) (ScalingMode, error) {
	switch ScalingMode(s) {
	case ScaleFill, "":
		return ScaleFill, nil
	case ScaleFit:
		return ScaleFit, nil
	}
	return "", fmt.Errorf("unknown scaling mode %q", s)
}

// Viewport is the screen rectangle the image quad is drawn into.
type Viewport struct {
	X, Y          float64
	Width, Height float64
}

// ComputeViewport places an image of imageW x imageH on the screen. In fill
// mode the quad spans the screen and the shader crops; in fit mode the quad
// keeps the image aspect and is centered.
func ComputeViewport(mode ScalingMode, screenW, screenH, imageW, imageH int) Viewport {
	full := Viewport{Width: float64(screenW), Height: float64(screenH)}
	if mode != ScaleFit || imageW <= 0 || imageH <= 0 || screenW <= 0 || screenH <= 0 {
		return full
	}

	scale := math.Min(float64(screenW)/float64(imageW), float64(screenH)/float64(imageH))
	w := float64(imageW) * scale
	h := float64(imageH) * scale
	return Viewport{
		X:      (float64(screenW) - w) / 2,
		Y:      (float64(screenH) - h) / 2,
		Width:  w,
		Height: h,
	}
}

// BoundsPanel maps the pannable square [-limit, limit]^2 into a square
// panel in the bottom-right corner of view and returns the panel and the
// screen position of offset inside it. A zero limit pins the marker to the
// panel center.
func BoundsPanel(view Viewport, limit, offsetX, offsetY float64) (panel Viewport, markerX, markerY float64) {
	side := math.Min(view.Width, view.Height) / 5
	margin := side / 10
	panel = Viewport{
		X:      view.X + view.Width - side - margin,
		Y:      view.Y + view.Height - side - margin,
		Width:  side,
		Height: side,
	}

	nx, ny := 0.0, 0.0
	if limit > 0 {
		nx = math.Max(-1, math.Min(1, offsetX/limit))
		ny = math.Max(-1, math.Min(1, offsetY/limit))
	}
	markerX = panel.X + (nx+1)/2*side
	markerY = panel.Y + (1-ny)/2*side
	return panel, markerX, markerY
}
