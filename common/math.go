package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// DepthRangeCorrection remaps OpenGL clip depth [-1, 1] onto the WebGPU range [0, 1].
// Every projection built in this package is pre-multiplied by it.
var DepthRangeCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// BytesToFloat32s decodes little-endian float32 values, the layout GPU readback buffers use.
// Trailing bytes that do not fill a whole float are ignored.
func BytesToFloat32s(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// Orthographic creates an orthographic projection whose clip depth lands in [0, 1].
//
// Parameters:
//   - left, right, bottom, top: the view volume extents in view space
//   - near, far: the clipping distances along the view direction (near may be negative)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Orthographic(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	return DepthRangeCorrection.Mul4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// Perspective creates a perspective projection compatible with WebGPU clip space [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	return DepthRangeCorrection.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

// LookAt creates a right-handed view matrix looking from eye towards center.
//
// Parameters:
//   - eye: the camera position
//   - center: the point the camera looks at
//   - up: the approximate up direction, must not be parallel to center-eye
//
// Returns:
//   - mgl32.Mat4: the column-major view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, center, up)
}

// NDCToUV maps normalized device x/y in [-1, 1] to texture coordinates in [0, 1].
// Texture v grows downward, so the y axis is flipped.
func NDCToUV(ndc mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{ndc.X()*0.5 + 0.5, 0.5 - ndc.Y()*0.5}
}

// UVToNDC is the inverse of NDCToUV.
func UVToNDC(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{uv.X()*2 - 1, 1 - uv.Y()*2}
}

// TexelIndex returns the texel a normalized coordinate falls in, clamped to the edge.
// This is the nearest-neighbour rule every sampling program in the engine uses.
//
// Parameters:
//   - coord: the normalized texture coordinate
//   - size: the texture extent along the same axis
//
// Returns:
//   - int: the texel index in [0, size-1]
func TexelIndex(coord float32, size int) int {
	i := int(math.Floor(float64(coord * float32(size))))
	return Clamp(i, 0, size-1)
}

// Unproject transforms a normalized device coordinate back into world space.
//
// Parameters:
//   - ndc: the clip-space point after the perspective divide
//   - inverseViewProj: the inverse of projection * view
//
// Returns:
//   - mgl32.Vec3: the world-space point
func Unproject(ndc mgl32.Vec3, inverseViewProj mgl32.Mat4) mgl32.Vec3 {
	p := inverseViewProj.Mul4x1(ndc.Vec4(1))
	if p.W() == 0 {
		return p.Vec3()
	}
	return p.Vec3().Mul(1 / p.W())
}
