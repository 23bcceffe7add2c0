package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDriverDefaults(t *testing.T) {
	d := NewDriver()
	f := d.Frame()

	assert.Equal(t, uint64(0), f.Tick)
	assert.Equal(t, mgl32.Vec3{}, f.Object.Translation)
	assert.Equal(t, mgl32.Vec3{0, -0.75, 0}, f.Plane.Translation)
	assert.Equal(t, mgl32.Vec3{90, 0, 0}, f.Plane.Rotation)
	assert.Equal(t, mgl32.Vec3{10, 10, 1}, f.Plane.Scale)
	assert.Equal(t, Tunables{BlurAmount: 5, BlurOpacity: 0.75}, f.Tunables)
}

func TestDriverTickRotates(t *testing.T) {
	d := NewDriver(WithRotationSpeed(2))
	for range 3 {
		d.Tick()
	}
	f := d.Frame()
	assert.Equal(t, uint64(3), f.Tick)
	assert.InDelta(t, 6, f.Object.Rotation.Y(), 1e-5)
}

func TestDriverPause(t *testing.T) {
	d := NewDriver()
	d.Tick()
	assert.True(t, d.HandleKey(common.KeySpace))
	d.Tick()
	d.Tick()

	f := d.Frame()
	assert.Equal(t, uint64(3), f.Tick, "ticks count while paused")
	assert.InDelta(t, 1, f.Object.Rotation.Y(), 1e-5)
	assert.True(t, f.Tunables.Paused)
}

func TestDriverHandleKey(t *testing.T) {
	tests := []struct {
		name string
		key  uint32
		want Tunables
	}{
		{"blur up", common.KeyUp, Tunables{BlurAmount: 5.5, BlurOpacity: 0.75}},
		{"blur down", common.KeyDown, Tunables{BlurAmount: 4.5, BlurOpacity: 0.75}},
		{"opacity up", common.KeyRight, Tunables{BlurAmount: 5, BlurOpacity: 0.8}},
		{"opacity down", common.KeyLeft, Tunables{BlurAmount: 5, BlurOpacity: 0.7}},
		{"plane up", common.KeyPageUp, Tunables{BlurAmount: 5, BlurOpacity: 0.75, PlaneOffset: 0.05}},
		{"plane down", common.KeyPageDown, Tunables{BlurAmount: 5, BlurOpacity: 0.75, PlaneOffset: -0.05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver()
			assert.True(t, d.HandleKey(tt.key))
			got := d.Tunables()
			assert.InDelta(t, tt.want.BlurAmount, got.BlurAmount, 1e-5)
			assert.InDelta(t, tt.want.BlurOpacity, got.BlurOpacity, 1e-5)
			assert.InDelta(t, tt.want.PlaneOffset, got.PlaneOffset, 1e-5)
		})
	}

	assert.False(t, NewDriver().HandleKey(common.KeyEsc))
}

func TestDriverClampsTunables(t *testing.T) {
	d := NewDriver(WithTunables(Tunables{BlurAmount: 0.25, BlurOpacity: 0.98}))

	d.HandleKey(common.KeyDown)
	d.HandleKey(common.KeyRight)
	got := d.Tunables()
	assert.Equal(t, float32(0), got.BlurAmount)
	assert.Equal(t, float32(1), got.BlurOpacity)

	d.SetTunables(Tunables{BlurAmount: -3, BlurOpacity: -1})
	got = d.Tunables()
	assert.Equal(t, float32(0), got.BlurAmount)
	assert.Equal(t, float32(0), got.BlurOpacity)
}

func TestDriverPlaneOffsetMovesPlane(t *testing.T) {
	d := NewDriver(WithKeySteps(KeySteps{PlaneOffset: 0.25}))
	d.HandleKey(common.KeyPageUp)

	f := d.Frame()
	assert.InDelta(t, -0.5, f.Plane.Translation.Y(), 1e-5)

	in := f.Input(mgl32.Ident4(), mgl32.Ident4())
	assert.InDelta(t, -0.5, in.PlaneModel.At(1, 3), 1e-5)
}

func TestDriverReset(t *testing.T) {
	start := transform.NewTransform(transform.WithTranslation(mgl32.Vec3{1, 0, 0}))
	d := NewDriver(WithObjectTransform(start))
	d.Tick()
	d.HandleKey(common.KeyUp)
	d.HandleKey(common.KeySpace)

	assert.True(t, d.HandleKey(common.KeyR))
	f := d.Frame()
	assert.Equal(t, start, f.Object)
	assert.Equal(t, Tunables{BlurAmount: 5, BlurOpacity: 0.75}, f.Tunables)
	assert.Equal(t, uint64(1), f.Tick)

	d.Tick()
	d.Reset()
	assert.Equal(t, start, d.Frame().Object)
}

func TestFrameInput(t *testing.T) {
	d := NewDriver(WithTunables(Tunables{BlurAmount: 3, BlurOpacity: 0.5}))
	d.Tick()
	f := d.Frame()

	view := mgl32.Translate3D(0, 0, -5)
	proj := mgl32.Ortho(-1, 1, -1, 1, 0, 10)
	in := f.Input(view, proj)

	assert.Equal(t, uint64(1), in.Tick)
	assert.Equal(t, view, in.View)
	assert.Equal(t, proj, in.Projection)
	assert.Equal(t, transform.Resolve(f.Object), in.ObjectModel)
	assert.Equal(t, transform.Resolve(f.Plane), in.PlaneModel)
	assert.Equal(t, float32(3), in.BlurAmount)
	assert.Equal(t, float32(0.5), in.BlurOpacity)
}
