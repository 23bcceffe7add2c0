package shader

import (
	"encoding/binary"
	"math"
	"strconv"
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allPrograms = []string{ProgramDepth, ProgramShadowProjection, ProgramBlur, ProgramComposite, ProgramNormal}

func TestLoadProgram(t *testing.T) {
	for _, key := range allPrograms {
		t.Run(key, func(t *testing.T) {
			p, err := LoadProgram(key)
			require.NoError(t, err)
			assert.Equal(t, key, p.Key())
			assert.Equal(t, "vs_main", p.Vertex().EntryPoint())
			assert.Equal(t, "fs_main", p.Fragment().EntryPoint())
			assert.NotContains(t, p.Source(), "@oxy:include")

			_, ok := p.Vertex().VertexLayout()
			assert.True(t, ok)
			require.Len(t, p.UniformLayouts(), 1)
			assert.Equal(t, "u", p.UniformLayouts()[0].Var)
		})
	}

	_, err := LoadProgram("missing")
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func TestProgramsValidate(t *testing.T) {
	for _, key := range allPrograms {
		t.Run(key, func(t *testing.T) {
			_, err := LoadProgram(key, WithValidation(true))
			require.NoError(t, err)
		})
	}
}

func TestValidateRejectsBrokenSource(t *testing.T) {
	assert.Error(t, Validate("fn broken( -> {"))
}

func TestProgramInputs(t *testing.T) {
	tests := []struct {
		key  string
		role string
	}{
		{ProgramShadowProjection, string(AnnotationArgDepthMap)},
		{ProgramBlur, string(AnnotationArgSource)},
		{ProgramComposite, string(AnnotationArgShadowMap)},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, err := LoadProgram(tt.key)
			require.NoError(t, err)

			group, binding, ok := p.InputBinding(tt.role)
			require.True(t, ok)
			assert.Equal(t, 0, group)
			assert.Equal(t, 1, binding)
			require.Len(t, p.TextureBindings(), 1)

			_, _, ok = p.InputBinding("nothing")
			assert.False(t, ok)
		})
	}

	depth, err := LoadProgram(ProgramDepth)
	require.NoError(t, err)
	assert.Empty(t, depth.Inputs())
	assert.Empty(t, depth.TextureBindings())
}

func TestProgramUniformLayouts(t *testing.T) {
	blur, err := LoadProgram(ProgramBlur)
	require.NoError(t, err)
	l := blur.UniformLayouts()[0]
	assert.Equal(t, uint64(16), l.Size)
	assert.Equal(t, []UniformField{
		{Name: "direction", Type: "vec2<f32>", Offset: 0, Size: 8},
		{Name: "radius", Type: "f32", Offset: 8, Size: 4},
		{Name: "resolution", Type: "f32", Offset: 12, Size: 4},
	}, l.Fields)

	proj, err := LoadProgram(ProgramShadowProjection)
	require.NoError(t, err)
	l = proj.UniformLayouts()[0]
	assert.Equal(t, uint64(288), l.Size)
	offsets := map[string]uint64{}
	for _, f := range l.Fields {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, map[string]uint64{
		"model":                 0,
		"view":                  64,
		"projection":            128,
		"light_view_projection": 192,
		"bounds":                256,
		"opacity":               272,
	}, offsets)
}

func TestProgramVertexLayouts(t *testing.T) {
	depth, err := LoadProgram(ProgramDepth)
	require.NoError(t, err)
	layout, _ := depth.Vertex().VertexLayout()
	assert.Equal(t, uint64(32), layout.ArrayStride)
	attrs := depth.Vertex().VertexAttributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, VertexAttribute{Name: "position", Location: 0, Format: wgpu.VertexFormatFloat32x3, Offset: 0}, attrs[0])
	assert.Equal(t, VertexAttribute{Name: "normal", Location: 1, Format: wgpu.VertexFormatFloat32x3, Offset: 12}, attrs[1])
	assert.Equal(t, VertexAttribute{Name: "uv", Location: 2, Format: wgpu.VertexFormatFloat32x2, Offset: 24}, attrs[2])

	blur, err := LoadProgram(ProgramBlur)
	require.NoError(t, err)
	layout, _ = blur.Vertex().VertexLayout()
	assert.Equal(t, uint64(20), layout.ArrayStride)
	assert.Equal(t, "uv", blur.Vertex().VertexAttributes()[1].Name)

	_, ok := blur.Fragment().VertexLayout()
	assert.False(t, ok)
}

func TestProgramMergedLayouts(t *testing.T) {
	blur, err := LoadProgram(ProgramBlur)
	require.NoError(t, err)

	group := blur.BindGroupLayoutDescriptors()[0]
	require.Len(t, group.Entries, 2)

	uniform := group.Entries[0]
	assert.Equal(t, uint32(0), uniform.Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, uniform.Buffer.Type)
	assert.Equal(t, uint64(16), uniform.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, uniform.Visibility)

	texture := group.Entries[1]
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, texture.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, texture.Texture.ViewDimension)
}

func TestPackUniforms(t *testing.T) {
	blur, err := LoadProgram(ProgramBlur)
	require.NoError(t, err)

	packed, err := blur.PackUniforms(map[string]any{
		"direction":  mgl32.Vec2{1, 0},
		"radius":     float32(2.5),
		"resolution": 128.0,
	})
	require.NoError(t, err)
	require.Len(t, packed, 1)
	assert.Equal(t, 0, packed[0].Group)
	assert.Equal(t, 0, packed[0].Binding)
	assert.Equal(t, []float32{1, 0, 2.5, 128}, decodeFloats(packed[0].Data))

	_, err = blur.PackUniforms(map[string]any{"direction": mgl32.Vec2{1, 0}, "radius": float32(1)})
	assert.ErrorIs(t, err, ErrMissingUniform)

	_, err = blur.PackUniforms(map[string]any{"direction": mgl32.Vec3{}, "radius": float32(1), "resolution": float32(1)})
	assert.ErrorIs(t, err, ErrUniformType)
}

func TestPackColorAndMatrix(t *testing.T) {
	l := UniformLayout{
		Var:  "u",
		Size: 80,
		Fields: []UniformField{
			{Name: "m", Type: "mat4x4<f32>", Offset: 0, Size: 64},
			{Name: "c", Type: "vec4<f32>", Offset: 64, Size: 16},
		},
	}
	m := mgl32.Translate3D(1, 2, 3)
	data, err := l.Pack(map[string]any{"m": m, "c": common.Color{R: 0.25, G: 0.5, B: 0.75, A: 1}})
	require.NoError(t, err)

	floats := decodeFloats(data)
	assert.Equal(t, m[:], floats[:16])
	assert.Equal(t, []float32{1, 2, 3}, floats[12:15])
	assert.Equal(t, []float32{0.25, 0.5, 0.75, 1}, floats[16:])
}

func TestNewProgramInputChecks(t *testing.T) {
	unbound := `
@group(0) @binding(0) var tex: texture_2d<f32>;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return textureLoad(tex, vec2<i32>(0, 0), 0); }
`
	_, err := NewProgram("unbound", unbound)
	assert.ErrorIs(t, err, ErrUnboundTexture)

	wrongRole := `
struct U { x: f32, };
//@oxy:input 0 0 source
@group(0) @binding(0) var<uniform> u: U;
@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(u.x); }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`
	_, err = NewProgram("wrong_role", wrongRole)
	assert.ErrorIs(t, err, ErrUnknownInput)

	noFragment := `@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }`
	_, err = NewProgram("no_fragment", noFragment)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func decodeFloats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func TestBlurWeights(t *testing.T) {
	var sum float32
	for _, w := range BlurWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-5)

	p, err := LoadProgram(ProgramBlur)
	require.NoError(t, err)
	for i, w := range BlurWeights {
		assert.Equal(t, BlurWeights[len(BlurWeights)-1-i], w, "weights are symmetric")
		assert.Contains(t, p.Source(), strconv.FormatFloat(float64(w), 'f', -1, 32))
	}
}
