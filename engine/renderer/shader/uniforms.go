package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrMissingUniform is returned when a uniform struct field has no value.
	ErrMissingUniform = errors.New("shader: missing uniform value")

	// ErrUniformType is returned when a value does not match its WGSL field type.
	ErrUniformType = errors.New("shader: uniform value has wrong type")
)

// Pack encodes named values into the byte layout of the uniform struct. Every field must
// have a value. Matrices are written column-major, which is mgl32's native order.
//
// Parameters:
//   - values: field name to value; f32 takes float32 or float64, vectors take mgl32 vectors
//     (vec4 also takes common.Color) and mat4x4 takes mgl32.Mat4
//
// Returns:
//   - []byte: the encoded struct, Size bytes long
//   - error: ErrMissingUniform or ErrUniformType, wrapped with the field name
func (l UniformLayout) Pack(values map[string]any) ([]byte, error) {
	buf := make([]byte, l.Size)
	for _, f := range l.Fields {
		v, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingUniform, l.Var, f.Name)
		}
		floats, err := uniformFloats(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", l.Var, f.Name, err)
		}
		for i, x := range floats {
			binary.LittleEndian.PutUint32(buf[f.Offset+uint64(i*4):], math.Float32bits(x))
		}
	}
	return buf, nil
}

// uniformFloats flattens a value of the given WGSL type into float32 components.
func uniformFloats(wgslType string, v any) ([]float32, error) {
	switch wgslType {
	case "f32":
		switch x := v.(type) {
		case float32:
			return []float32{x}, nil
		case float64:
			return []float32{float32(x)}, nil
		}
	case "vec2<f32>", "vec2f":
		if x, ok := v.(mgl32.Vec2); ok {
			return x[:], nil
		}
	case "vec3<f32>", "vec3f":
		if x, ok := v.(mgl32.Vec3); ok {
			return x[:], nil
		}
	case "vec4<f32>", "vec4f":
		switch x := v.(type) {
		case mgl32.Vec4:
			return x[:], nil
		case common.Color:
			return []float32{x.R, x.G, x.B, x.A}, nil
		}
	case "mat4x4<f32>", "mat4x4f":
		if x, ok := v.(mgl32.Mat4); ok {
			return x[:], nil
		}
	default:
		return nil, fmt.Errorf("%w: unsupported field type %s", ErrUniformType, wgslType)
	}
	return nil, fmt.Errorf("%w: %T for %s", ErrUniformType, v, wgslType)
}
