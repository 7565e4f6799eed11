package shader

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"depthflow/internal/convert"
	"depthflow/internal/engine2D"
)

// ApplyFrame uploads the frame uniforms and binds every layer texture.
// Call between BeginShaderMode and the draw of the full screen quad.
func ApplyFrame(shader rl.Shader, parameters *Parameters, frame engine2D.FrameUniforms, textures *[convert.LayerCount]rl.Texture2D) {
	for _, u := range frame.Uniforms() {
		loc, ok := parameters.Uniforms[u.Name]
		if !ok || loc == -1 {
			continue
		}
		rl.SetShaderValue(shader, loc, u.Values, uniformType(len(u.Values)))
	}

	// texture0 is bound by DrawTexturePro; the rest need explicit units.
	for i := convert.LayerDepth; i < convert.LayerCount; i++ {
		if parameters.Samplers[i] == -1 {
			continue
		}
		rl.SetShaderValueTexture(shader, parameters.Samplers[i], textures[i])
	}
}
