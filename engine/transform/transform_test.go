package transform

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-5

// assertVec3 compares component by component against an absolute tolerance. mathgl's
// ApproxEqualThreshold scales the threshold near zero and rejects ordinary float noise.
func assertVec3(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, "got %v want %v", got, want)
}

func assertMat4(t *testing.T, want, got mgl32.Mat4, delta float64) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, "got %v want %v", got, want)
}

func TestResolveIdentity(t *testing.T) {
	assertMat4(t, mgl32.Ident4(), Resolve(NewTransform()), epsilon)
}

func TestResolveRotationOrder(t *testing.T) {
	tests := []struct {
		name     string
		rotation mgl32.Vec3
		in       mgl32.Vec3
		want     mgl32.Vec3
	}{
		{name: "yaw 90 sends +X to -Z", rotation: mgl32.Vec3{0, 90, 0}, in: mgl32.Vec3{1, 0, 0}, want: mgl32.Vec3{0, 0, -1}},
		{name: "pitch 90 sends +Y to +Z", rotation: mgl32.Vec3{90, 0, 0}, in: mgl32.Vec3{0, 1, 0}, want: mgl32.Vec3{0, 0, 1}},
		{name: "X is applied before Y", rotation: mgl32.Vec3{90, 90, 0}, in: mgl32.Vec3{0, 1, 0}, want: mgl32.Vec3{1, 0, 0}},
		{name: "Y is applied before Z", rotation: mgl32.Vec3{0, 90, 90}, in: mgl32.Vec3{0, 0, 1}, want: mgl32.Vec3{0, 1, 0}},
		{name: "plane front face points up", rotation: mgl32.Vec3{90, 0, 0}, in: mgl32.Vec3{0, 0, -1}, want: mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Resolve(NewTransform(WithRotation(tt.rotation)))
			got := m.Mul4x1(tt.in.Vec4(0)).Vec3()
			assertVec3(t, tt.want, got, epsilon)
		})
	}
}

func TestResolveComposesTranslationRotationScale(t *testing.T) {
	tr := NewTransform(
		WithTranslation(mgl32.Vec3{0, -0.75, 0}),
		WithRotation(mgl32.Vec3{90, 0, 0}),
		WithScale(mgl32.Vec3{10, 10, 1}),
	)
	m := Resolve(tr)

	corner := m.Mul4x1(mgl32.Vec4{0.5, 0.5, 0, 1}).Vec3()
	assertVec3(t, mgl32.Vec3{5, -0.75, 5}, corner, epsilon)
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []Transform{
		NewTransform(),
		NewTransform(WithTranslation(mgl32.Vec3{1, 2, 3})),
		NewTransform(WithRotation(mgl32.Vec3{30, 45, 60}), WithScale(mgl32.Vec3{2, 0.5, 3})),
		NewTransform(WithTranslation(mgl32.Vec3{-4, 0.25, 7}), WithRotation(mgl32.Vec3{0, 271, 0})),
		NewTransform(WithTranslation(mgl32.Vec3{0, -0.75, 0}), WithRotation(mgl32.Vec3{90, 0, 0}), WithScale(mgl32.Vec3{10, 10, 1})),
	}
	for _, tr := range tests {
		m := Resolve(tr)
		d := Decompose(m)

		assertVec3(t, tr.Translation, d.Translation, epsilon)
		assertVec3(t, tr.Scale, d.Scale, 1e-4)
		assert.True(t, d.Rotation.OrientationEqualThreshold(Quaternion(tr.Rotation), 1e-4))
		assertMat4(t, m, d.Matrix(), 1e-4)
	}
}

func TestResolveZeroScaleIsDegenerate(t *testing.T) {
	var m mgl32.Mat4
	require.NotPanics(t, func() {
		m = Resolve(NewTransform(WithScale(mgl32.Vec3{0, 1, 1})))
	})
	assert.InDelta(t, 0, m.Det(), epsilon)
}

func TestRotateAccumulates(t *testing.T) {
	tr := NewTransform()
	for range 360 {
		tr = tr.Rotate(mgl32.Vec3{0, 1, 0})
	}
	assert.Equal(t, float32(360), tr.Rotation.Y())
	assertMat4(t, mgl32.Ident4(), Resolve(tr), 1e-4)
}
