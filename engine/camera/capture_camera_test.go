package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(c CaptureCamera, world mgl32.Vec3) mgl32.Vec3 {
	clip := c.ViewProjection().Mul4x1(world.Vec4(1))
	return clip.Vec3().Mul(1 / clip.W())
}

func TestLightCameraAxes(t *testing.T) {
	c := NewLightCamera()

	assert.Equal(t, mgl32.Vec3{0, -1, 0.001}, c.Eye())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Up())

	// Screen right is +X and screen up is +Z when looking up the Y axis.
	right := project(c, mgl32.Vec3{1, 0, 0})
	up := project(c, mgl32.Vec3{0, 0, 1})
	assert.InDelta(t, 1, right.X(), 1e-3)
	assert.InDelta(t, 1, up.Y(), 1e-3)
}

func TestLightCameraDepthIncreasesAwayFromEye(t *testing.T) {
	c := NewLightCamera()

	nearFace := project(c, mgl32.Vec3{0, -0.5, 0})
	farFace := project(c, mgl32.Vec3{0, 0.5, 0})
	assert.InDelta(t, 0.75, nearFace.Z(), 1e-3)
	assert.Less(t, nearFace.Z(), farFace.Z())
}

func TestPlaneCameraAxes(t *testing.T) {
	c := NewPlaneCamera(5)

	corner := project(c, mgl32.Vec3{5, -0.75, -5})
	assert.InDelta(t, 1, corner.X(), 1e-5)
	assert.InDelta(t, 1, corner.Y(), 1e-5)
	assert.GreaterOrEqual(t, corner.Z(), float32(0))
	assert.LessOrEqual(t, corner.Z(), float32(1))
}

func TestGroundBounds(t *testing.T) {
	tests := []struct {
		name string
		cam  CaptureCamera
		want [4]float32
	}{
		{name: "light", cam: NewLightCamera(), want: [4]float32{-1, -1, 1, 1}},
		{name: "plane", cam: NewPlaneCamera(5), want: [4]float32{-5, -5, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.cam.GroundBounds()
			assert.InDelta(t, tt.want[0], b.MinX, 1e-2)
			assert.InDelta(t, tt.want[1], b.MinZ, 1e-2)
			assert.InDelta(t, tt.want[2], b.MaxX, 1e-2)
			assert.InDelta(t, tt.want[3], b.MaxZ, 1e-2)
		})
	}
}

func TestCaptureCameraOptions(t *testing.T) {
	c := NewCaptureCamera("custom",
		WithEye(mgl32.Vec3{0, -1, 0}),
		WithUp(mgl32.Vec3{0, 0, 1}),
		WithOrtho(Ortho{Left: -2, Right: 2, Bottom: -2, Top: 2, Near: 0, Far: 4}),
	)
	assert.Equal(t, "custom", c.Key())
	assert.Equal(t, float32(2), c.Ortho().Right)

	onNear := project(c, mgl32.Vec3{0, -1, 0})
	assert.InDelta(t, 0, onNear.Z(), 1e-6)
	assert.True(t, c.Frustum().ContainsSphere(mgl32.Vec3{}, 0.5))
	assert.False(t, c.Frustum().ContainsSphere(mgl32.Vec3{0, 0, 6}, 0.5))
}
