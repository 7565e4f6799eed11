package engine2D

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"depthflow/internal/utils"
)

// DepthVertexShader is the pass-through vertex stage for the full screen quad.
const DepthVertexShader = `
attribute vec3 vertexPosition;
attribute vec2 vertexTexCoord;
attribute vec4 vertexColor;
uniform mat4 mvp;
varying vec2 fragTexCoord;
varying vec4 fragColor;

void main() {
    fragTexCoord = vertexTexCoord;
    fragColor = vertexColor;
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

// DepthFragmentShader ray-marches the depth map along the camera offset and
// fills disoccluded pixels from the background layers.
const DepthFragmentShader = `
varying vec2 fragTexCoord;
varying vec4 fragColor;

uniform sampler2D texture0;
uniform sampler2D u_depth;
uniform sampler2D u_image_bg;
uniform sampler2D u_depth_bg;
uniform sampler2D u_subject_mask;

uniform vec2 u_offset;
uniform float u_zoom;
uniform float u_height;
uniform float u_steady;
uniform float u_focus;
uniform float u_isometric;
uniform float u_dolly;
uniform float u_invert;
uniform float u_mirror;
uniform vec2 u_center;
uniform vec2 u_origin;
uniform float u_time;
uniform vec2 u_screen_size;
uniform vec2 u_image_size;
uniform float u_inpaint;
uniform float u_quality;

vec2 cover(vec2 uv) {
    float sa = u_screen_size.x / max(u_screen_size.y, 1.0);
    float ia = u_image_size.x / max(u_image_size.y, 1.0);
    vec2 s = sa > ia ? vec2(1.0, ia / sa) : vec2(sa / ia, 1.0);
    return (uv - 0.5) * s + 0.5;
}

vec2 wrap(vec2 uv) {
    vec2 mirrored = 1.0 - abs(1.0 - mod(uv, 2.0));
    return lerp(saturate(uv), mirrored, u_mirror);
}

float depthAt(sampler2D tex, vec2 uv) {
    float d = texture2D(tex, wrap(uv)).r;
    return lerp(d, 1.0 - d, u_invert);
}

vec2 march(sampler2D tex, vec2 uv, vec2 shift, out float hit) {
    float steps = lerp(16.0, float(MAX_STEPS), u_quality);
    vec2 p = uv;
    hit = 0.0;
    for (int i = 0; i < MAX_STEPS; i++) {
        if (float(i) >= steps) {
            break;
        }
        float layer = 1.0 - float(i) / steps;
        p = uv + shift * (layer - u_steady);
        if (depthAt(tex, p) >= layer) {
            hit = layer;
            break;
        }
    }
    return p;
}

void main() {
    vec2 uv = cover(fragTexCoord);
    uv = (uv - 0.5 - u_center) / max(u_zoom, 0.001) + 0.5 + u_center;

    float perspective = lerp(1.0, 1.0 / (1.0 + u_dolly), 1.0 - u_isometric);
    vec2 shift = (u_offset + u_origin) * u_height * perspective;

    float hit;
    vec2 fg = march(u_depth, uv, shift, hit);
    vec4 color = texture2D(texture0, wrap(fg));

    // Disocclusions show up as steep depth steps along the shift direction.
    float gap = abs(depthAt(u_depth, fg) - depthAt(u_depth, fg + shift * 0.5));
    float edge = saturate(gap / max(u_inpaint, 0.0001) - 1.0);
    float subject = texture2D(u_subject_mask, wrap(fg)).r;
    if (edge * subject > 0.0) {
        float bgHit;
        vec2 bg = march(u_depth_bg, uv, shift, bgHit);
        color = lerp(color, texture2D(u_image_bg, wrap(bg)), edge * subject);
    }

    gl_FragColor = vec4(color.rgb, 1.0) * fragColor;
}
`

// DefaultShaderDefines are the compile-time constants of the depth shader.
var DefaultShaderDefines = map[string]int{"MAX_STEPS": 96}

// PreprocessShader prepends the GLSL header, defines and helper macros, and
// inlines #include "file" directives from includeDir. Each include is
// inlined once.
func PreprocessShader(source string, defines map[string]int, includeDir string) string {
	var sb strings.Builder
	sb.WriteString("#version 120\n")

	names := make([]string, 0, len(defines))
	for k := range defines {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		sb.WriteString(fmt.Sprintf("#define %s %d\n", k, defines[k]))
	}
	if _, ok := defines["MAX_STEPS"]; !ok {
		sb.WriteString(fmt.Sprintf("#define MAX_STEPS %d\n", DefaultShaderDefines["MAX_STEPS"]))
	}

	sb.WriteString("#define frac fract\n")
	sb.WriteString("#define lerp mix\n")
	sb.WriteString("#define saturate(x) clamp(x, 0.0, 1.0)\n")

	included := make(map[string]bool)
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#include \"") && strings.HasSuffix(trimmed, "\"") && len(trimmed) > len("#include \"\"") {
			file := strings.TrimSpace(trimmed[len("#include \"") : len(trimmed)-1])
			if included[file] {
				continue
			}
			content, err := os.ReadFile(filepath.Join(includeDir, file))
			if err != nil {
				utils.Warn("Shader: Could not resolve include: %s", file)
				continue
			}
			sb.WriteString(strings.Trim(string(content), "\ufeff"))
			sb.WriteString("\n")
			included[file] = true
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FragmentSource returns the fragment shader to compile: the file at
// overridePath when it is readable, the built-in source otherwise.
func FragmentSource(overridePath string) (source string, includeDir string) {
	if overridePath != "" {
		if content, err := os.ReadFile(overridePath); err == nil {
			utils.Info("Shader: Using override %s", overridePath)
			return string(content), filepath.Dir(overridePath)
		}
		utils.Warn("Shader: Override %s unreadable, using built-in shader", overridePath)
	}
	return DepthFragmentShader, ""
}
