package shader

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"depthflow/internal/convert"
	"depthflow/internal/engine2D"
)

// Samplers lists the sampler uniform of each bundle layer, indexed by
// convert.Layer. The image layer binds to raylib's default texture0.
var Samplers = [convert.LayerCount]string{
	convert.LayerImage:       "texture0",
	convert.LayerDepth:       "u_depth",
	convert.LayerImageBG:     "u_image_bg",
	convert.LayerDepthBG:     "u_depth_bg",
	convert.LayerSubjectMask: "u_subject_mask",
}

// Parameters holds the resolved uniform locations of the depth shader.
// A location of -1 means the uniform was optimized out or not declared.
type Parameters struct {
	Uniforms map[string]int32
	Samplers [convert.LayerCount]int32
}

// ResolveShaderLocations queries a shader for all uniform locations needed for rendering.
func ResolveShaderLocations(shader rl.Shader) Parameters {
	parameters := Parameters{Uniforms: make(map[string]int32)}

	for _, u := range engine2D.DefaultUniforms().Uniforms() {
		parameters.Uniforms[u.Name] = rl.GetShaderLocation(shader, u.Name)
	}
	for i, name := range Samplers {
		parameters.Samplers[i] = rl.GetShaderLocation(shader, name)
	}

	return parameters
}

func uniformType(n int) rl.ShaderUniformDataType {
	switch n {
	case 2:
		return rl.ShaderUniformVec2
	case 3:
		return rl.ShaderUniformVec3
	case 4:
		return rl.ShaderUniformVec4
	default:
		return rl.ShaderUniformFloat
	}
}
