package engine2D

// FrameUniforms is the per-frame parameter block of the depth shader.
type FrameUniforms struct {
	Offset [2]float32
	Zoom   float32
	Height float32

	// Steady is the depth that stays fixed while the camera moves.
	Steady    float32
	Focus     float32
	Isometric float32
	Dolly     float32
	Invert    float32
	Mirror    float32

	Center [2]float32
	Origin [2]float32

	Time       float32
	ScreenSize [2]float32
	ImageSize  [2]float32

	Inpaint float32
	Quality float32
}

func DefaultUniforms() FrameUniforms {
	return FrameUniforms{
		Zoom:       1,
		Height:     0.05,
		Steady:     0.5,
		Quality:    0.5,
		Inpaint:    0.01,
		Mirror:     1,
		ScreenSize: [2]float32{1, 1},
		ImageSize:  [2]float32{1, 1},
	}
}

// SetParams copies the composed pose into the block.
func (u *FrameUniforms) SetParams(x, y, zoom, height float32) {
	u.Offset = [2]float32{x, y}
	u.Zoom = zoom
	u.Height = height
}

// Uniform is one named shader value.
type Uniform struct {
	Name   string
	Values []float32
}

// Uniforms flattens the block into named values in declaration order.
func (u FrameUniforms) Uniforms() []Uniform {
	return []Uniform{
		{"u_offset", u.Offset[:]},
		{"u_zoom", []float32{u.Zoom}},
		{"u_height", []float32{u.Height}},
		{"u_steady", []float32{u.Steady}},
		{"u_focus", []float32{u.Focus}},
		{"u_isometric", []float32{u.Isometric}},
		{"u_dolly", []float32{u.Dolly}},
		{"u_invert", []float32{u.Invert}},
		{"u_mirror", []float32{u.Mirror}},
		{"u_center", u.Center[:]},
		{"u_origin", u.Origin[:]},
		{"u_time", []float32{u.Time}},
		{"u_screen_size", u.ScreenSize[:]},
		{"u_image_size", u.ImageSize[:]},
		{"u_inpaint", []float32{u.Inpaint}},
		{"u_quality", []float32{u.Quality}},
	}
}
