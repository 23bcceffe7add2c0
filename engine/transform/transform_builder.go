package transform

import "github.com/go-gl/mathgl/mgl32"

// TransformBuilderOption is a function that configures a Transform.
type TransformBuilderOption func(*Transform)

// WithTranslation sets the world-space position.
//
// Parameters:
//   - translation: the position
//
// Returns:
//   - TransformBuilderOption: a function that applies the translation option to a Transform
func WithTranslation(translation mgl32.Vec3) TransformBuilderOption {
	return func(t *Transform) {
		t.Translation = translation
	}
}

// WithRotation sets the Euler rotation in degrees, applied X then Y then Z.
//
// Parameters:
//   - rotation: the X, Y and Z angles in degrees
//
// Returns:
//   - TransformBuilderOption: a function that applies the rotation option to a Transform
func WithRotation(rotation mgl32.Vec3) TransformBuilderOption {
	return func(t *Transform) {
		t.Rotation = rotation
	}
}

// WithScale sets the per-axis scale.
//
// Parameters:
//   - scale: the scale factors
//
// Returns:
//   - TransformBuilderOption: a function that applies the scale option to a Transform
func WithScale(scale mgl32.Vec3) TransformBuilderOption {
	return func(t *Transform) {
		t.Scale = scale
	}
}
