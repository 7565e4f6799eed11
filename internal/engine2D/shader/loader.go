package shader

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"depthflow/internal/engine2D"
	"depthflow/internal/utils"
)

// LoadDepthShader compiles the depth parallax shader, or the fragment file
// at overridePath when one is given and readable. Returns an empty shader
// if compilation fails.
func LoadDepthShader(overridePath string, defines map[string]int) rl.Shader {
	if defines == nil {
		defines = engine2D.DefaultShaderDefines
	}

	fragment, includeDir := engine2D.FragmentSource(overridePath)
	vSource := engine2D.PreprocessShader(engine2D.DepthVertexShader, nil, "")
	fSource := engine2D.PreprocessShader(fragment, defines, includeDir)

	utils.Debug("Shader: Preprocessing depth shader (Defines: %v)", defines)

	var shader rl.Shader
	func() {
		defer func() {
			if r := recover(); r != nil {
				utils.Error("Shader: Compilation panic: %v", r)
				shader = rl.Shader{}
			}
		}()
		shader = rl.LoadShaderFromMemory(vSource, fSource)
	}()

	if !rl.IsShaderValid(shader) {
		utils.Warn("Shader: Failed to compile depth shader")
		return rl.Shader{}
	}
	utils.Info("Shader: Depth shader loaded (ID: %d)", shader.ID)
	return shader
}
