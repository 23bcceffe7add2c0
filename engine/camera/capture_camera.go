package camera

import (
	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Ortho is an orthographic view volume in view-space units.
type Ortho struct {
	Left, Right float32
	Bottom, Top float32
	Near, Far   float32
}

// captureCameraImpl is immutable after construction, so it carries no mutex.
type captureCameraImpl struct {
	key string

	eye  mgl32.Vec3
	look mgl32.Vec3
	up   mgl32.Vec3

	ortho Ortho

	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4
	frustum        common.Frustum
}

// CaptureCamera is a fixed orthographic camera that renders into an offscreen target.
// The pipeline owns two: the light camera that captures object depth, and the plane
// camera that rasterizes the ground plane into the shadow-projection target.
type CaptureCamera interface {
	// Key returns the camera's identifier.
	//
	// Returns:
	//   - string: the key the camera was created with
	Key() string

	// Eye returns the camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space eye
	Eye() mgl32.Vec3

	// Look returns the point the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space look target
	Look() mgl32.Vec3

	// Up returns the camera's approximate up vector.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// Ortho returns the orthographic view volume.
	//
	// Returns:
	//   - Ortho: the volume extents
	Ortho() Ortho

	// View returns lookAt(eye, look, up).
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// Projection returns the orthographic projection with clip depth in [0, 1].
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// ViewProjection returns Projection * View.
	//
	// Returns:
	//   - mgl32.Mat4: the combined matrix
	ViewProjection() mgl32.Mat4

	// Frustum returns the view volume as six world-space planes.
	//
	// Returns:
	//   - common.Frustum: the extracted frustum
	Frustum() common.Frustum

	// GroundBounds returns the world XZ rectangle the camera covers. The corners of the
	// NDC square are unprojected at mid depth and their X and Z extremes are taken.
	//
	// Returns:
	//   - common.Bounds: the covered ground rectangle
	GroundBounds() common.Bounds
}

var _ CaptureCamera = &captureCameraImpl{}

// NewCaptureCamera creates a capture camera. Without options it sits at (0, 0, 1)
// looking at the origin with a unit orthographic volume.
//
// Parameters:
//   - key: the camera identifier used in logs
//   - options: functional options to configure the camera
//
// Returns:
//   - CaptureCamera: the newly created camera
func NewCaptureCamera(key string, options ...CaptureCameraBuilderOption) CaptureCamera {
	c := &captureCameraImpl{
		key:   key,
		eye:   mgl32.Vec3{0, 0, 1},
		up:    mgl32.Vec3{0, 1, 0},
		ortho: Ortho{Left: -1, Right: 1, Bottom: -1, Top: 1, Near: -1, Far: 1},
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

// NewLightCamera creates the light's depth-capture camera. It looks up the +Y axis from
// just below the origin; the small Z offset keeps the up vector from being parallel to
// the view direction.
//
// Returns:
//   - CaptureCamera: the light camera
func NewLightCamera() CaptureCamera {
	return NewCaptureCamera("light",
		WithEye(mgl32.Vec3{0, -1, 0.001}),
		WithLook(mgl32.Vec3{0, 0, 0}),
		WithUp(mgl32.Vec3{0, 1, 0}),
		WithFrustumSize(1),
	)
}

// NewPlaneCamera creates the camera that rasterizes the ground plane into the
// shadow-projection target. It looks straight down with screen right on +X and
// screen up on -Z, so plane texture coordinates line up with target texels.
//
// Parameters:
//   - halfExtent: half the width of the covered ground square
//
// Returns:
//   - CaptureCamera: the plane camera
func NewPlaneCamera(halfExtent float32) CaptureCamera {
	return NewCaptureCamera("plane",
		WithEye(mgl32.Vec3{0, 1, 0}),
		WithLook(mgl32.Vec3{0, 0, 0}),
		WithUp(mgl32.Vec3{0, 0, -1}),
		WithOrtho(Ortho{
			Left: -halfExtent, Right: halfExtent,
			Bottom: -halfExtent, Top: halfExtent,
			Near: -100, Far: 100,
		}),
	)
}

func (c *captureCameraImpl) Key() string { return c.key }
func (c *captureCameraImpl) Eye() mgl32.Vec3 { return c.eye }
func (c *captureCameraImpl) Look() mgl32.Vec3 { return c.look }
func (c *captureCameraImpl) Up() mgl32.Vec3 { return c.up }
func (c *captureCameraImpl) Ortho() Ortho { return c.ortho }
func (c *captureCameraImpl) View() mgl32.Mat4 { return c.view }
func (c *captureCameraImpl) Projection() mgl32.Mat4 { return c.projection }
func (c *captureCameraImpl) ViewProjection() mgl32.Mat4 { return c.viewProjection }
func (c *captureCameraImpl) Frustum() common.Frustum { return c.frustum }

func (c *captureCameraImpl) GroundBounds() common.Bounds {
	inv := c.viewProjection.Inv()
	b := common.Bounds{MinX: inf, MinZ: inf, MaxX: -inf, MaxZ: -inf}
	for _, corner := range [4]mgl32.Vec3{{-1, -1, 0.5}, {1, -1, 0.5}, {1, 1, 0.5}, {-1, 1, 0.5}} {
		p := common.Unproject(corner, inv)
		b.MinX = min(b.MinX, p.X())
		b.MaxX = max(b.MaxX, p.X())
		b.MinZ = min(b.MinZ, p.Z())
		b.MaxZ = max(b.MaxZ, p.Z())
	}
	return b
}

// updateMatrices recalculates the view, projection and view-projection matrices and the frustum.
func (c *captureCameraImpl) updateMatrices() {
	c.view = common.LookAt(c.eye, c.look, c.up)
	o := c.ortho
	c.projection = common.Orthographic(o.Left, o.Right, o.Bottom, o.Top, o.Near, o.Far)
	c.viewProjection = c.projection.Mul4(c.view)
	c.frustum = common.ExtractFrustumFromMatrix(c.viewProjection)
}
