// Package sensors feeds device orientation into the engine from external
// sources: an MQTT pose topic or a synthetic demo stream.
package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"depthflow/internal/motion"
)

var ErrBadPose = errors.New("malformed pose")

// Sink receives orientation samples. *input.Router satisfies it.
type Sink interface {
	PushOrientation(s motion.OrientationSample) bool
}

// Source streams samples into a sink until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// Pose is an attitude in degrees, as published on inertial pose topics.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

func (p Pose) Sample() motion.OrientationSample {
	return motion.OrientationSample{
		Pitch: p.Pitch * math.Pi / 180.0,
		Roll:  p.Roll * math.Pi / 180.0,
	}
}

func DecodePose(payload []byte) (motion.OrientationSample, error) {
	var p Pose
	if err := json.Unmarshal(payload, &p); err != nil {
		return motion.OrientationSample{}, fmt.Errorf("%w: %v", ErrBadPose, err)
	}
	if math.IsNaN(p.Pitch) || math.IsNaN(p.Roll) || math.IsInf(p.Pitch, 0) || math.IsInf(p.Roll, 0) {
		return motion.OrientationSample{}, fmt.Errorf("%w: non-finite angle", ErrBadPose)
	}
	return p.Sample(), nil
}
