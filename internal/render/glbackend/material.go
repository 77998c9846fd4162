package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/internal/terrain/storage"
)

// Material is a GL shader program plus its pending uniform values. Params
// accumulate between frames and are pushed on every Use, so the program
// can be recompiled at any time without losing state.
type Material struct {
	backend *Backend

	code    string
	program uint32
	dirty   bool

	params map[string]any
}

// SetShaderCode installs new shader source; recompilation is deferred to
// the next Use.
func (m *Material) SetShaderCode(code string) {
	if code == m.code {
		return
	}
	m.code = code
	m.dirty = true
}

// SetParam stages a uniform value.
func (m *Material) SetParam(name string, value any) {
	m.params[name] = value
}

// Free releases the program.
func (m *Material) Free() {
	if m.program != 0 {
		gl.DeleteProgram(m.program)
		m.program = 0
	}
}

// Use binds the program, recompiling if the source changed, and applies
// every staged uniform.
func (m *Material) Use() error {
	if m.dirty {
		vertSrc, fragSrc := storage.SplitShaderCode(m.code)
		program, err := compileProgram(vertSrc, fragSrc)
		if err != nil {
			return err
		}
		m.Free()
		m.program = program
		m.dirty = false
	}
	if m.program == 0 {
		return fmt.Errorf("glbackend: material has no shader")
	}

	gl.UseProgram(m.program)

	var unit int32
	for name, value := range m.params {
		loc := gl.GetUniformLocation(m.program, gl.Str(name+"\x00"))
		if loc < 0 {
			// Uniform compiled out by the current feature flags.
			continue
		}
		switch v := value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int:
			gl.Uniform1i(loc, int32(v))
		case render.Texture:
			if !v.Valid() {
				continue
			}
			gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
			gl.BindTexture(m.backend.textureTarget(v.ID), v.ID)
			gl.Uniform1i(loc, unit)
			unit++
		case [][2]float32:
			if len(v) == 0 {
				continue
			}
			flat := make([]float32, 0, len(v)*2)
			for _, e := range v {
				flat = append(flat, e[0], e[1])
			}
			gl.Uniform2fv(loc, int32(len(v)), &flat[0])
		case [][3]float32:
			if len(v) == 0 {
				continue
			}
			flat := make([]float32, 0, len(v)*3)
			for _, e := range v {
				flat = append(flat, e[0], e[1], e[2])
			}
			gl.Uniform3fv(loc, int32(len(v)), &flat[0])
		case []pixmap.Color:
			if len(v) == 0 {
				continue
			}
			flat := make([]float32, 0, len(v)*4)
			for _, c := range v {
				flat = append(flat, c.R, c.G, c.B, c.A)
			}
			gl.Uniform4fv(loc, int32(len(v)), &flat[0])
		case [16]float32:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		default:
			return fmt.Errorf("glbackend: uniform %q has unsupported type %T", name, value)
		}
	}
	return nil
}

// compileProgram compiles vertex and fragment sources and links them.
func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}
