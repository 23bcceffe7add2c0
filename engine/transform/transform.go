// Package transform resolves translation, Euler rotation and scale triples into model matrices.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"
)

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
	axisZ = mgl32.Vec3{0, 0, 1}
)

// Transform places an object in world space.
// Rotation holds Euler angles in degrees which are applied X first, then Y, then Z.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Vec3
	Scale       mgl32.Vec3
}

// Decomposed is a model matrix split back into its translation, orientation and scale.
type Decomposed struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// NewTransform creates a Transform with unit scale and applies the given options.
//
// Parameters:
//   - opts: variadic list of TransformBuilderOption functions
//
// Returns:
//   - Transform: the configured transform
func NewTransform(opts ...TransformBuilderOption) Transform {
	t := Transform{Scale: mgl32.Vec3{1, 1, 1}}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Quaternion converts Euler angles in degrees into the orientation qz * qy * qx.
//
// Parameters:
//   - rotation: the X, Y and Z angles in degrees
//
// Returns:
//   - mgl32.Quat: the normalized orientation
func Quaternion(rotation mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(mgl32.DegToRad(rotation.X()), axisX)
	qy := mgl32.QuatRotate(mgl32.DegToRad(rotation.Y()), axisY)
	qz := mgl32.QuatRotate(mgl32.DegToRad(rotation.Z()), axisZ)
	return qz.Mul(qy).Mul(qx).Normalize()
}

// Resolve builds the model matrix T * R * S for a transform.
// Zero scale components produce a degenerate matrix; they are not rejected.
//
// Parameters:
//   - t: the transform to resolve
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func Resolve(t Transform) mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Translation.Elem())
	rotate := Quaternion(t.Rotation).Mat4()
	scale := mgl32.Scale3D(t.Scale.Elem())
	return translate.Mul4(rotate).Mul4(scale)
}

// Model is shorthand for Resolve(t).
func (t Transform) Model() mgl32.Mat4 {
	return Resolve(t)
}

// Rotate returns a copy of the transform with delta degrees added to its rotation.
func (t Transform) Rotate(delta mgl32.Vec3) Transform {
	t.Rotation = t.Rotation.Add(delta)
	return t
}

// Translate returns a copy of the transform moved by delta.
func (t Transform) Translate(delta mgl32.Vec3) Transform {
	t.Translation = t.Translation.Add(delta)
	return t
}

// Decompose splits an affine T * R * S matrix into its parts.
// A negative determinant is folded into the X scale. Zero scale axes leave the
// matching rotation column at zero, so the orientation of a degenerate matrix is unreliable.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - Decomposed: the translation, orientation and scale
func Decompose(m mgl32.Mat4) Decomposed {
	sx, sy, sz := mgl32.Extract3DScale(m)
	cols := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	scale := [3]float32{sx, sy, sz}
	for i := range cols {
		if scale[i] != 0 {
			cols[i] = cols[i].Mul(1 / scale[i])
		}
	}

	rot := mgl32.Mat3FromCols(cols[0], cols[1], cols[2])
	if rot.Det() < 0 {
		scale[0] = -scale[0]
		cols[0] = cols[0].Mul(-1)
		rot = mgl32.Mat3FromCols(cols[0], cols[1], cols[2])
	}

	return Decomposed{
		Translation: m.Col(3).Vec3(),
		Rotation:    mgl32.Mat4ToQuat(rot.Mat4()).Normalize(),
		Scale:       mgl32.Vec3{scale[0], scale[1], scale[2]},
	}
}

// Matrix recomposes the parts into a model matrix.
func (d Decomposed) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(d.Translation.Elem()).
		Mul4(d.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(d.Scale.Elem()))
}
