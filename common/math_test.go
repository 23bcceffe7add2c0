package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestOrthographicDepthRange(t *testing.T) {
	proj := Orthographic(-1, 1, -1, 1, -1, 1)

	tests := []struct {
		name  string
		viewZ float32
		want  float32
	}{
		{name: "near plane behind the eye", viewZ: 1, want: 0},
		{name: "eye plane", viewZ: 0, want: 0.5},
		{name: "far plane", viewZ: -1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := proj.Mul4x1(mgl32.Vec4{0, 0, tt.viewZ, 1})
			assert.InDelta(t, tt.want, clip.Z()/clip.W(), 1e-6)
		})
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(mgl32.DegToRad(60), 1, 0.5, 10)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -10, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestNDCToUV(t *testing.T) {
	assert.Equal(t, mgl32.Vec2{0, 0}, NDCToUV(mgl32.Vec2{-1, 1}))
	assert.Equal(t, mgl32.Vec2{1, 1}, NDCToUV(mgl32.Vec2{1, -1}))
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, NDCToUV(mgl32.Vec2{0, 0}))

	uv := mgl32.Vec2{0.25, 0.8}
	assert.True(t, uv.ApproxEqual(NDCToUV(UVToNDC(uv))))
}

func TestTexelIndex(t *testing.T) {
	assert.Equal(t, 0, TexelIndex(-0.3, 8))
	assert.Equal(t, 0, TexelIndex(0, 8))
	assert.Equal(t, 3, TexelIndex((3+0.5)/8, 8))
	assert.Equal(t, 7, TexelIndex(1, 8))
	assert.Equal(t, 7, TexelIndex(4, 8))
}

func TestUnproject(t *testing.T) {
	view := LookAt(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	proj := Orthographic(-2, 2, -2, 2, 0, 10)
	inv := proj.Mul4(view).Inv()

	world := Unproject(mgl32.Vec3{1, 1, 0.5}, inv)
	assert.InDelta(t, 2, world.X(), 1e-5)
	assert.InDelta(t, 0, world.Y(), 1e-5)
	assert.InDelta(t, -2, world.Z(), 1e-5)
}

func TestBytesToFloat32s(t *testing.T) {
	in := []float32{0, 1.5, -2, 0.75}
	assert.Equal(t, in, BytesToFloat32s(SliceToBytes(in)))
}
