package remote

import (
	"errors"
	"fmt"

	"depthflow/internal/motion"
	"depthflow/internal/sensors"
)

var ErrBadMessage = errors.New("bad remote message")

const (
	TypePointer     = "pointer"
	TypePinch       = "pinch"
	TypeOrientation = "orientation"
	TypeResume      = "resume"
	TypePose        = "pose"

	TypeHello = "hello"
	TypeError = "error"
)

// Message is one client frame. Orientation angles are in degrees, as
// browsers report them.
type Message struct {
	Type       string  `json:"type"`
	Action     string  `json:"action,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Pointers   int     `json:"pointers,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	InProgress bool    `json:"in_progress,omitempty"`
	Pitch      float64 `json:"pitch,omitempty"`
	Roll       float64 `json:"roll,omitempty"`
}

type Reply struct {
	Type    string       `json:"type"`
	Session string       `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
	Pose    *motion.Pose `json:"pose,omitempty"`
}

var actions = map[string]motion.PointerAction{
	"down":         motion.PointerDown,
	"move":         motion.PointerMove,
	"up":           motion.PointerUp,
	"pointer-down": motion.SecondaryDown,
	"pointer-up":   motion.SecondaryUp,
}

func (m Message) PointerEvent() (motion.PointerEvent, error) {
	action, ok := actions[m.Action]
	if !ok {
		return motion.PointerEvent{}, fmt.Errorf("%w: unknown pointer action %q", ErrBadMessage, m.Action)
	}
	if m.Pointers < 0 {
		return motion.PointerEvent{}, fmt.Errorf("%w: negative pointer count", ErrBadMessage)
	}
	return motion.PointerEvent{
		Action:   action,
		Position: motion.Vec2{X: m.X, Y: m.Y},
		Pointers: m.Pointers,
	}, nil
}

func (m Message) PinchEvent() (motion.PinchEvent, error) {
	if m.Scale <= 0 {
		return motion.PinchEvent{}, fmt.Errorf("%w: pinch scale %g", ErrBadMessage, m.Scale)
	}
	return motion.PinchEvent{Scale: m.Scale, InProgress: m.InProgress}, nil
}

func (m Message) OrientationSample() motion.OrientationSample {
	return sensors.Pose{Pitch: m.Pitch, Roll: m.Roll}.Sample()
}
