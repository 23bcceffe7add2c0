package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	src := "a // line\nb /* block /* nested */ still */ c\nd"
	assert.Equal(t, "a \nb  c\nd", stripComments(src))
}

func TestResolveTypeLayout(t *testing.T) {
	tests := []struct {
		typeName string
		want     wgslTypeLayout
		ok       bool
	}{
		{"f32", wgslTypeLayout{4, 4}, true},
		{"vec3<f32>", wgslTypeLayout{12, 16}, true},
		{"mat4x4<f32>", wgslTypeLayout{64, 16}, true},
		{"array<vec4<f32>, 3>", wgslTypeLayout{48, 16}, true},
		{"array<vec3<f32>, 2>", wgslTypeLayout{32, 16}, true},
		{"array<f32>", wgslTypeLayout{}, false},
		{"Unknown", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, ok := resolveTypeLayout(tt.typeName, nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructLayouts(t *testing.T) {
	src := `
struct Inner { a: vec3<f32>, b: f32, };
struct Outer { x: f32, inner: Inner, y: vec2<f32>, };
@group(0) @binding(0) var<uniform> u: Outer;
`
	layouts := parseUniformLayouts(src)
	require.Len(t, layouts, 1)
	l := layouts[0]
	assert.Equal(t, "Outer", l.Type)
	assert.Equal(t, []UniformField{
		{Name: "x", Type: "f32", Offset: 0, Size: 4},
		{Name: "inner", Type: "Inner", Offset: 16, Size: 16},
		{Name: "y", Type: "vec2<f32>", Offset: 32, Size: 8},
	}, l.Fields)
	assert.Equal(t, uint64(48), l.Size)
}

func TestParseVertexLayoutSkipsOutputStructs(t *testing.T) {
	src := `
struct VertexOutput { @builtin(position) clip: vec4<f32>, @location(0) uv: vec2<f32>, };
struct VertexInput { @location(0) position: vec3<f32>, @location(1) uv: vec2<f32>, };
`
	layout, attrs, ok := parseVertexLayout(src)
	require.True(t, ok)
	assert.Equal(t, uint64(20), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	require.Len(t, attrs, 2)
	assert.Equal(t, "position", attrs[0].Name)
	assert.Equal(t, uint64(12), attrs[1].Offset)
	assert.Equal(t, uint32(1), layout.Attributes[1].ShaderLocation)
}

func TestClassifyResource(t *testing.T) {
	u := classifyResource(0, wgpu.ShaderStageVertex, "uniform", "U")
	assert.Equal(t, wgpu.BufferBindingTypeUniform, u.Buffer.Type)

	s := classifyResource(1, wgpu.ShaderStageFragment, "storage, read", "array<f32>")
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, s.Buffer.Type)

	tex := classifyResource(2, wgpu.ShaderStageFragment, "", "texture_2d<f32>")
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, tex.Texture.SampleType)

	utex := classifyResource(3, wgpu.ShaderStageFragment, "", "texture_2d<u32>")
	assert.Equal(t, wgpu.TextureSampleTypeUint, utex.Texture.SampleType)

	depth := classifyResource(4, wgpu.ShaderStageFragment, "", "texture_depth_2d")
	assert.Equal(t, wgpu.TextureSampleTypeDepth, depth.Texture.SampleType)
}

func TestSplitAtTopLevelCommas(t *testing.T) {
	assert.Equal(t, []string{"a: f32", " b: array<vec4<f32>, 3>", " "}, splitAtTopLevelCommas("a: f32, b: array<vec4<f32>, 3>, "))
}
