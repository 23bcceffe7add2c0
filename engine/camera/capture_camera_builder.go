package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var inf = float32(math.Inf(1))

// CaptureCameraBuilderOption is a function that configures a capture camera.
type CaptureCameraBuilderOption func(*captureCameraImpl)

// WithEye sets the camera position.
//
// Parameters:
//   - eye: the world-space position
//
// Returns:
//   - CaptureCameraBuilderOption: a function that sets the camera's eye
func WithEye(eye mgl32.Vec3) CaptureCameraBuilderOption {
	return func(c *captureCameraImpl) {
		c.eye = eye
	}
}

// WithLook sets the point the camera looks at.
//
// Parameters:
//   - look: the world-space target
//
// Returns:
//   - CaptureCameraBuilderOption: a function that sets the camera's look target
func WithLook(look mgl32.Vec3) CaptureCameraBuilderOption {
	return func(c *captureCameraImpl) {
		c.look = look
	}
}

// WithUp sets the camera's up vector. It must not be parallel to look - eye.
//
// Parameters:
//   - up: the up vector
//
// Returns:
//   - CaptureCameraBuilderOption: a function that sets the camera's up vector
func WithUp(up mgl32.Vec3) CaptureCameraBuilderOption {
	return func(c *captureCameraImpl) {
		c.up = up
	}
}

// WithOrtho sets the full orthographic volume.
//
// Parameters:
//   - ortho: the view volume
//
// Returns:
//   - CaptureCameraBuilderOption: a function that sets the camera's projection volume
func WithOrtho(ortho Ortho) CaptureCameraBuilderOption {
	return func(c *captureCameraImpl) {
		c.ortho = ortho
	}
}

// WithFrustumSize sets a cube-shaped volume of half-size s on every axis.
//
// Parameters:
//   - s: the half extent
//
// Returns:
//   - CaptureCameraBuilderOption: a function that sets the camera's projection volume
func WithFrustumSize(s float32) CaptureCameraBuilderOption {
	return func(c *captureCameraImpl) {
		c.ortho = Ortho{Left: -s, Right: s, Bottom: -s, Top: s, Near: -s, Far: s}
	}
}
