package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestControllerOrbitClampsElevation(t *testing.T) {
	cc := NewCameraController(WithMouseSensitivity(1))

	cc.Orbit(0, 10)
	assert.InDelta(t, math.Pi/2-0.05, cc.Elevation(), 1e-5)

	cc.Orbit(0, -10)
	assert.InDelta(t, 0.05, cc.Elevation(), 1e-5)
}

func TestControllerZoomClampsRadius(t *testing.T) {
	cc := NewCameraController(WithRadius(5), WithRadiusBounds(2, 8), WithZoomSpeed(1))

	cc.Zoom(10)
	assert.Equal(t, float32(2), cc.Radius())
	cc.Zoom(-100)
	assert.Equal(t, float32(8), cc.Radius())
	assert.InDelta(t, 8, cc.Position().Sub(cc.Target()).Len(), 1e-4)
}

func TestControllerPositionFollowsTarget(t *testing.T) {
	cc := NewCameraController(WithRadius(4), WithElevation(0), WithAzimuth(0))
	// Elevation is clamped to its minimum.
	cc.SetTarget(mgl32.Vec3{1, 0, 0})

	p := cc.Position()
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 4*math.Cos(0.05), p.Z(), 1e-4)
}

func TestCameraLooksAtTarget(t *testing.T) {
	cc := NewCameraController()
	c := NewCamera(cc, 0, 16.0/9.0)

	clip := c.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))

	cc.Orbit(300, 0)
	before := c.View()
	c.Update()
	assert.NotEqual(t, before, c.View())

	c.SetAspect(0)
	assert.InDelta(t, 16.0/9.0, c.Aspect(), 1e-6)
}
