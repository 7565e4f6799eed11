// Package debug draws the in-window diagnostics overlay, toggled with F8:
// the pannable bounds, the current offset inside them and the live pose.
package debug

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"depthflow/internal/engine2D"
	"depthflow/internal/motion"
)

// DropCounter reports input events lost to full queues.
type DropCounter interface {
	Dropped() uint64
}

type Overlay struct {
	Visible bool

	engine   *motion.PoseCompositor
	drops    DropCounter
	fontSize int32
}

func NewOverlay(engine *motion.PoseCompositor, drops DropCounter, visible bool) *Overlay {
	return &Overlay{Visible: visible, engine: engine, drops: drops, fontSize: 18}
}

func (o *Overlay) Update() {
	if rl.IsKeyPressed(rl.KeyF8) {
		o.Visible = !o.Visible
	}
}

// Draw must run between BeginDrawing and EndDrawing, after the scene.
func (o *Overlay) Draw(view engine2D.Viewport) {
	if !o.Visible {
		return
	}

	comp := o.engine.Evaluate(o.engine.Snapshot(), 0)
	pose, ok := o.engine.LastPose()
	if !ok {
		pose = comp.Pose
	}

	panel, mx, my := engine2D.BoundsPanel(view, comp.Limit, pose.X, pose.Y)
	rect := rl.NewRectangle(float32(panel.X), float32(panel.Y), float32(panel.Width), float32(panel.Height))
	rl.DrawRectangleRec(rect, rl.NewColor(0, 0, 0, 120))
	border := rl.Green
	if comp.ClampedX || comp.ClampedY {
		border = rl.Yellow
	}
	rl.DrawRectangleLinesEx(rect, 2, border)
	rl.DrawRectangle(int32(mx)-3, int32(my)-3, 6, 6, rl.Red)

	lines := o.statusLines(comp, pose, int(rl.GetFPS()))
	for i, line := range lines {
		rl.DrawText(line, 10, 10+int32(i)*(o.fontSize+4), o.fontSize, rl.White)
	}
}

func gestureName(g motion.GestureState) string {
	switch {
	case g.MultiTouch:
		return "multi"
	case g.SingleTouch:
		return "single"
	}
	return "none"
}

func (o *Overlay) statusLines(comp motion.Composition, pose motion.Pose, fps int) []string {
	lo, hi := o.engine.Zoom().Bounds()
	baseline := "none"
	if b, ok := o.engine.Orientation().Baseline(); ok {
		baseline = fmt.Sprintf("pitch %.3f roll %.3f", b.Pitch, b.Roll)
	}

	lines := []string{
		fmt.Sprintf("FPS %d  frames %d", fps, o.engine.Frames()),
		fmt.Sprintf("offset %.3f, %.3f  limit %.3f", pose.X, pose.Y, comp.Limit),
		fmt.Sprintf("zoom %.3f [%.2f, %.2f]  height %.3f", pose.Zoom, lo, hi, pose.Height),
		fmt.Sprintf("gesture %s  baseline %s", gestureName(o.engine.Drag().Gesture()), baseline),
	}
	if o.drops != nil {
		lines = append(lines, fmt.Sprintf("dropped %d", o.drops.Dropped()))
	}
	return lines
}
