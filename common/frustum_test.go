package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFrustumContainsSphere(t *testing.T) {
	view := LookAt(mgl32.Vec3{0, -1, 0.001}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := Orthographic(-1, 1, -1, 1, -1, 1)
	f := ExtractFrustumFromMatrix(proj.Mul4(view))

	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{name: "origin", center: mgl32.Vec3{}, radius: 0.1, want: true},
		{name: "straddling the edge", center: mgl32.Vec3{1.2, 0, 0}, radius: 0.5, want: true},
		{name: "far to the side", center: mgl32.Vec3{5, 0, 0}, radius: 0.87, want: false},
		{name: "behind the far plane", center: mgl32.Vec3{0, 3, 0}, radius: 0.5, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ContainsSphere(tt.center, tt.radius))
		})
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{MinX: -1, MinZ: -1, MaxX: 1, MaxZ: 1}
	assert.True(t, b.Contains(0, 0))
	assert.True(t, b.Contains(1, -1))
	assert.False(t, b.Contains(1.01, 0))
	assert.Equal(t, mgl32.Vec4{-1, -1, 1, 1}, b.Vec4())
	assert.Equal(t, float32(2), b.Width())
}
