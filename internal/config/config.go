// Package config loads the engine configuration: motion tuning, window,
// input sources and the open behavior switches.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"depthflow/internal/engine2D"
	"depthflow/internal/motion"
)

var ErrInvalid = errors.New("invalid configuration")

type Motion struct {
	TouchSensitivity float64 `json:"touch_sensitivity"`
	GyroSensitivity  float64 `json:"gyro_sensitivity"`
	BreathSpeed      float64 `json:"breath_speed"`
	BreathAmplitude  float64 `json:"breath_amplitude"`
	InitialZoom      float64 `json:"initial_zoom"`
	MaxZoom          float64 `json:"max_zoom"`
	MarginFactor     float64 `json:"margin_factor"`
	ExtraMargin      float64 `json:"extra_margin"`
	Height           float64 `json:"height"`
}

type Clamp struct {
	// Reference is "initial" or "live".
	Reference string `json:"reference"`
}

type Orientation struct {
	RebaselineOnResume bool `json:"rebaseline_on_resume"`
}

type Window struct {
	Title     string `json:"title"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Resizable bool   `json:"resizable"`
	TargetFPS int    `json:"target_fps"`
	Scaling   string `json:"scaling"`
	// Shader optionally points at a replacement fragment shader.
	Shader string `json:"shader"`
}

type Input struct {
	Buffer int `json:"buffer"`
	// X11Pointer polls the global X11 pointer instead of window input.
	X11Pointer     bool `json:"x11_pointer"`
	PollIntervalMS int  `json:"poll_interval_ms"`
}

type MQTT struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
}

type Remote struct {
	Addr string `json:"addr"`
}

type Config struct {
	Assets      string      `json:"assets"`
	Motion      Motion      `json:"motion"`
	Clamp       Clamp       `json:"clamp"`
	Orientation Orientation `json:"orientation"`
	Window      Window      `json:"window"`
	Input       Input       `json:"input"`
	MQTT        MQTT        `json:"mqtt"`
	Remote      Remote      `json:"remote"`
	// DemoOrientation feeds a synthetic orientation stream.
	DemoOrientation bool `json:"demo_orientation"`
}

func Default() Config {
	p := motion.DefaultParams()
	s := engine2D.DefaultSurface()
	return Config{
		Motion: Motion{
			TouchSensitivity: p.TouchSensitivity,
			GyroSensitivity:  p.GyroSensitivity,
			BreathSpeed:      p.BreathSpeed,
			BreathAmplitude:  p.BreathAmplitude,
			InitialZoom:      p.InitialZoom,
			MaxZoom:          p.MaxZoom,
			MarginFactor:     p.MarginFactor,
			ExtraMargin:      p.ExtraMargin,
			Height:           p.Height,
		},
		Clamp: Clamp{Reference: string(p.ClampReference)},
		Window: Window{
			Title:     s.Title,
			Width:     s.Width,
			Height:    s.Height,
			Resizable: s.Resizable,
			Scaling:   string(s.Scaling),
		},
		Input: Input{Buffer: 256, PollIntervalMS: 8},
		MQTT: MQTT{
			Topic:    "inertial/pose/fused",
			ClientID: "depthflow-orientation",
		},
	}
}

// Load overlays the JSON file at path on the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	m := c.Motion
	for name, v := range map[string]float64{
		"touch_sensitivity": m.TouchSensitivity,
		"gyro_sensitivity":  m.GyroSensitivity,
		"breath_speed":      m.BreathSpeed,
		"breath_amplitude":  m.BreathAmplitude,
		"initial_zoom":      m.InitialZoom,
		"max_zoom":          m.MaxZoom,
		"margin_factor":     m.MarginFactor,
		"extra_margin":      m.ExtraMargin,
		"height":            m.Height,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: motion.%s is not finite", ErrInvalid, name)
		}
	}

	switch {
	case m.InitialZoom <= 0:
		return fmt.Errorf("%w: motion.initial_zoom must be positive", ErrInvalid)
	case m.MaxZoom < m.InitialZoom:
		return fmt.Errorf("%w: motion.max_zoom %.3f below initial_zoom %.3f", ErrInvalid, m.MaxZoom, m.InitialZoom)
	case m.MarginFactor < 0 || m.ExtraMargin < 0:
		return fmt.Errorf("%w: margins must not be negative", ErrInvalid)
	}

	switch motion.ClampReference(c.Clamp.Reference) {
	case motion.ClampInitialZoom, motion.ClampLiveZoom:
	default:
		return fmt.Errorf("%w: clamp.reference %q", ErrInvalid, c.Clamp.Reference)
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if _, err := engine2D.ParseScalingMode(c.Window.Scaling); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Input.Buffer < 0 || c.Input.PollIntervalMS < 0 {
		return fmt.Errorf("%w: input buffer and poll interval must not be negative", ErrInvalid)
	}
	return nil
}

func (c Config) Params() motion.Params {
	m := c.Motion
	return motion.Params{
		TouchSensitivity: m.TouchSensitivity,
		GyroSensitivity:  m.GyroSensitivity,
		BreathSpeed:      m.BreathSpeed,
		BreathAmplitude:  m.BreathAmplitude,
		InitialZoom:      m.InitialZoom,
		MaxZoom:          m.MaxZoom,
		MarginFactor:     m.MarginFactor,
		ExtraMargin:      m.ExtraMargin,
		ClampReference:   motion.ClampReference(c.Clamp.Reference),
		Height:           m.Height,
	}
}

func (c Config) Surface() engine2D.Surface {
	scaling, _ := engine2D.ParseScalingMode(c.Window.Scaling)
	return engine2D.Surface{
		Title:     c.Window.Title,
		Width:     c.Window.Width,
		Height:    c.Window.Height,
		Resizable: c.Window.Resizable,
		TargetFPS: c.Window.TargetFPS,
		Scaling:   scaling,
	}
}

func (c Config) PollInterval() time.Duration {
	if c.Input.PollIntervalMS <= 0 {
		return 8 * time.Millisecond
	}
	return time.Duration(c.Input.PollIntervalMS) * time.Millisecond
}
