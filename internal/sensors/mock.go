package sensors

import (
	"context"
	"math"
	"time"
)

// MockSource generates a smoothly swaying attitude for demos without a
// sensor attached.
type MockSource struct {
	Interval time.Duration
	now      func() time.Time
}

func NewMockSource(interval time.Duration) *MockSource {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &MockSource{Interval: interval, now: time.Now}
}

// PoseAt is the demo attitude t seconds after start.
func PoseAt(t float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(t),
		Pitch: 15 * math.Cos(t*0.7),
		Yaw:   math.Mod(t*30, 360),
	}
}

func (m *MockSource) Run(ctx context.Context, sink Sink) error {
	start := m.now()
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sink.PushOrientation(PoseAt(m.now().Sub(start).Seconds()).Sample())
		}
	}
}
