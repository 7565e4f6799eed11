// Package window is the raylib render backend: it owns the GL window,
// the layer textures and the depth shader, and feeds window input back
// into the gesture router.
package window

import (
	"math"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"depthflow/internal/convert"
	"depthflow/internal/debug"
	"depthflow/internal/engine2D"
	"depthflow/internal/engine2D/shader"
	"depthflow/internal/input"
	"depthflow/internal/motion"
	"depthflow/internal/utils"
)

// InputSink receives the window's pointer and wheel input.
// *input.Router satisfies it.
type InputSink interface {
	PushState(s input.PointerState) bool
	PushPinch(ev motion.PinchEvent) bool
}

// WheelStep is the zoom factor of one mouse wheel notch.
const WheelStep = 1.1

type Options struct {
	// ShaderPath optionally replaces the built-in fragment shader.
	ShaderPath string
	Defines    map[string]int
	Input      InputSink
	// WheelOnly forwards only wheel zoom, for when pointer input comes
	// from another source.
	WheelOnly bool
	Overlay   *debug.Overlay
}

// Renderer draws the depth parallax quad with raylib. It must only be used
// from the render loop goroutine.
type Renderer struct {
	opts Options

	ready    bool
	textures [convert.LayerCount]rl.Texture2D
	depth    rl.Shader
	params   shader.Parameters
	uniforms engine2D.FrameUniforms
	scaling  engine2D.ScalingMode
	imageW   int
	imageH   int

	lastState input.PointerState

	closeOnce sync.Once
	closed    chan struct{}
}

var _ engine2D.Backend = (*Renderer)(nil)

func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts:     opts,
		uniforms: engine2D.DefaultUniforms(),
		closed:   make(chan struct{}),
	}
}

// Closed is closed once the user asks the window to close.
func (r *Renderer) Closed() <-chan struct{} { return r.closed }

func (r *Renderer) Init(assets *convert.Bundle, surface engine2D.Surface) bool {
	if r.ready {
		return true
	}
	if assets == nil {
		assets = convert.FallbackBundle()
	}

	rl.SetTraceLogCallback(utils.RaylibLogCallback)

	var flags uint32 = rl.FlagVsyncHint | rl.FlagMsaa4xHint
	if surface.Resizable {
		flags |= rl.FlagWindowResizable
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(surface.Width), int32(surface.Height), surface.Title)
	if !rl.IsWindowReady() {
		utils.Error("Window: Could not create a GL context")
		return false
	}
	if surface.TargetFPS > 0 {
		rl.SetTargetFPS(int32(surface.TargetFPS))
	}

	for i := convert.Layer(0); i < convert.LayerCount; i++ {
		img := rl.NewImageFromImage(convert.ToRGBA(assets.Layer(i)))
		tex := rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		if !rl.IsTextureValid(tex) {
			utils.Error("Window: Failed to upload %s texture", i)
			r.release(i)
			rl.CloseWindow()
			return false
		}
		rl.SetTextureFilter(tex, rl.FilterBilinear)
		r.textures[i] = tex
		utils.Debug("Window: Uploaded %s (%dx%d, %s)", i, tex.Width, tex.Height, assets.Status[i])
	}

	r.depth = shader.LoadDepthShader(r.opts.ShaderPath, r.opts.Defines)
	if !rl.IsShaderValid(r.depth) {
		r.release(convert.LayerCount)
		rl.CloseWindow()
		return false
	}
	r.params = shader.ResolveShaderLocations(r.depth)

	r.imageW, r.imageH = assets.Size()
	r.scaling = surface.Scaling
	r.uniforms.ImageSize = [2]float32{float32(r.imageW), float32(r.imageH)}
	r.lastState = input.PointerState{}
	r.ready = true
	return true
}

func (r *Renderer) SetParams(x, y, zoom, height float32) {
	r.uniforms.SetParams(x, y, zoom, height)
}

func (r *Renderer) DrawFrame() {
	if !r.ready {
		return
	}
	if rl.WindowShouldClose() {
		r.closeOnce.Do(func() { close(r.closed) })
	}

	sw, sh := rl.GetScreenWidth(), rl.GetScreenHeight()
	view := engine2D.ComputeViewport(r.scaling, sw, sh, r.imageW, r.imageH)
	r.uniforms.ScreenSize = [2]float32{float32(view.Width), float32(view.Height)}
	r.uniforms.Time = float32(rl.GetTime())

	image := r.textures[convert.LayerImage]
	src := rl.NewRectangle(0, 0, float32(image.Width), float32(image.Height))
	dst := rl.NewRectangle(float32(view.X), float32(view.Y), float32(view.Width), float32(view.Height))

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.BeginShaderMode(r.depth)
	shader.ApplyFrame(r.depth, &r.params, r.uniforms, &r.textures)
	rl.DrawTexturePro(image, src, dst, rl.NewVector2(0, 0), 0, rl.White)
	rl.EndShaderMode()
	if r.opts.Overlay != nil {
		r.opts.Overlay.Update()
		r.opts.Overlay.Draw(view)
	}
	rl.EndDrawing()

	r.pollInput()
}

// pollInput forwards touch points (or the left mouse button as a single
// pointer) and wheel notches. States are only pushed when they change.
func (r *Renderer) pollInput() {
	if r.opts.Input == nil {
		return
	}

	if !r.opts.WheelOnly {
		r.pollPointers()
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		r.opts.Input.PushPinch(motion.PinchEvent{Scale: math.Pow(WheelStep, float64(wheel))})
	}
}

func (r *Renderer) pollPointers() {
	var state input.PointerState
	if n := int(rl.GetTouchPointCount()); n > 0 {
		state.Count = min(n, input.MaxPointers)
		for i := 0; i < state.Count; i++ {
			p := rl.GetTouchPosition(int32(i))
			state.Positions[i] = motion.Vec2{X: float64(p.X), Y: float64(p.Y)}
		}
	} else if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		p := rl.GetMousePosition()
		state.Count = 1
		state.Positions[0] = motion.Vec2{X: float64(p.X), Y: float64(p.Y)}
	}
	if state != r.lastState {
		r.opts.Input.PushState(state)
		r.lastState = state
	}
}

// release unloads the first n layer textures.
func (r *Renderer) release(n convert.Layer) {
	for i := convert.Layer(0); i < n; i++ {
		rl.UnloadTexture(r.textures[i])
		r.textures[i] = rl.Texture2D{}
	}
}

func (r *Renderer) Cleanup() {
	if !r.ready {
		return
	}
	rl.UnloadShader(r.depth)
	r.depth = rl.Shader{}
	r.release(convert.LayerCount)
	rl.CloseWindow()
	r.ready = false
	utils.Debug("Window: Released GL resources")
}
