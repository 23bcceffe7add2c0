// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "github.com/go-gl/mathgl/mgl32"

// Color is a linear RGBA color with float components, the texel layout of every offscreen target.
type Color struct {
	R, G, B, A float32
}

var (
	// ColorWhite is the fully lit value: the screen clear color and the output of unshadowed plane texels.
	ColorWhite = Color{R: 1, G: 1, B: 1, A: 1}
	// ColorBlack is opaque black.
	ColorBlack = Color{A: 1}
	// ColorTransparent clears the depth target; zero alpha marks texels no object covered.
	ColorTransparent = Color{}
)

// Vec4 returns the color as an mgl32.Vec4 in RGBA order.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// ColorFromVec4 builds a Color from an RGBA vector.
func ColorFromVec4(v mgl32.Vec4) Color {
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}
}

// Bounds is an axis-aligned rectangle on the world XZ ground plane.
type Bounds struct {
	MinX, MinZ float32
	MaxX, MaxZ float32
}

// Contains reports whether the world point (x, z) lies inside the rectangle, edges included.
func (b Bounds) Contains(x, z float32) bool {
	return x >= b.MinX && x <= b.MaxX && z >= b.MinZ && z <= b.MaxZ
}

// Vec4 packs the bounds as (minX, minZ, maxX, maxZ) for upload as a shader uniform.
func (b Bounds) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{b.MinX, b.MinZ, b.MaxX, b.MaxZ}
}

// Width returns the X extent.
func (b Bounds) Width() float32 { return b.MaxX - b.MinX }

// Depth returns the Z extent.
func (b Bounds) Depth() float32 { return b.MaxZ - b.MinZ }
