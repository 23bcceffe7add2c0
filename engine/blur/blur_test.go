package blur

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	target.Base
}

func fake(key string, w, h int) target.Target {
	return &fakeTarget{Base: target.NewBase(target.Spec{Key: key, Width: w, Height: h})}
}

type recordingDrawer struct {
	draws []pass.Draw
	err   error
}

func (r *recordingDrawer) Draw(d pass.Draw) error {
	r.draws = append(r.draws, d)
	return r.err
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float32
	for _, w := range Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestPlan(t *testing.T) {
	src, a, b := fake("proj", 8, 8), fake("a", 8, 8), fake("b", 8, 8)

	steps, err := Plan(src, a, b, 3)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	want := []Step{
		{Direction: Horizontal, Source: src, Dest: a, Amount: 3},
		{Direction: Vertical, Source: a, Dest: b, Amount: 3},
		{Direction: Horizontal, Source: b, Dest: a, Amount: 1.5},
		{Direction: Vertical, Source: a, Dest: b, Amount: 1.5},
	}
	assert.Equal(t, want, steps)
	for _, s := range steps {
		assert.NotSame(t, s.Source, s.Dest)
	}
	assert.Same(t, b, steps[3].Dest)
}

func TestPlanRejects(t *testing.T) {
	src, a, b := fake("proj", 8, 8), fake("a", 8, 8), fake("b", 8, 8)

	tests := []struct {
		name    string
		src     target.Target
		a, b    target.Target
		wantErr error
	}{
		{"nil source", nil, a, b, ErrNilTarget},
		{"nil scratch", src, a, nil, ErrNilTarget},
		{"same scratch", src, a, a, ErrTargetMismatch},
		{"different shape", src, a, fake("c", 4, 8), ErrTargetMismatch},
		{"source is a", a, a, b, ErrSourceAlias},
		{"source is b", b, a, b, ErrSourceAlias},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.src, tt.a, tt.b, 1)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStepUniforms(t *testing.T) {
	s := Step{Direction: Vertical, Source: fake("s", 4, 4), Dest: fake("d", 16, 32), Amount: 2}
	u := s.Uniforms()
	assert.Equal(t, mgl32.Vec2{0, 1}, u["direction"])
	assert.Equal(t, float32(2), u["radius"])
	assert.Equal(t, float32(32), u["resolution"])

	s.Direction = Horizontal
	assert.Equal(t, float32(16), s.Resolution())
}

func TestSchedulerBindsEachStep(t *testing.T) {
	program, err := shader.LoadProgram(shader.ProgramBlur)
	require.NoError(t, err)
	src, a, b := fake("proj", 8, 8), fake("a", 8, 8), fake("b", 8, 8)
	p, err := pass.NewPass("blur", program, mesh.FullscreenQuad(), pass.WithOutput(a))
	require.NoError(t, err)

	drawer := &recordingDrawer{}
	s, err := NewScheduler(p, drawer, a, b)
	require.NoError(t, err)

	out, err := s.Run(src, 2)
	require.NoError(t, err)
	assert.Same(t, b, out)
	assert.Same(t, b, s.Result())

	require.Len(t, drawer.draws, 4)
	wantIO := [][2]target.Target{{src, a}, {a, b}, {b, a}, {a, b}}
	for i, d := range drawer.draws {
		require.Len(t, d.Inputs, 1)
		assert.Same(t, wantIO[i][0], d.Inputs[0].Target, "step %d input", i)
		assert.Same(t, wantIO[i][1], d.Output, "step %d output", i)
	}
	assert.Equal(t, float32(2), drawer.draws[1].Uniforms["radius"])
	assert.Equal(t, float32(1), drawer.draws[2].Uniforms["radius"])
}

func TestSchedulerPropagatesDrawErrors(t *testing.T) {
	program, err := shader.LoadProgram(shader.ProgramBlur)
	require.NoError(t, err)
	a, b := fake("a", 8, 8), fake("b", 8, 8)
	p, err := pass.NewPass("blur", program, mesh.FullscreenQuad(), pass.WithOutput(a))
	require.NoError(t, err)

	boom := errors.New("boom")
	s, err := NewScheduler(p, &recordingDrawer{err: boom}, a, b)
	require.NoError(t, err)
	_, err = s.Run(fake("proj", 8, 8), 1)
	assert.ErrorIs(t, err, boom)

	_, err = NewScheduler(p, &recordingDrawer{}, a, fake("c", 2, 2))
	assert.ErrorIs(t, err, ErrTargetMismatch)
}

// blurImpulse blurs a single white texel in the middle of a size×size target on the
// software renderer and returns the result.
func blurImpulse(t *testing.T, size int, amount float32) []float32 {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, renderer.WithScreenSize(4, 4), renderer.WithWorkers(4))
	require.NoError(t, err)
	defer r.Release()

	spec := target.Spec{Width: size, Height: size}
	alloc := func(key string) target.Target {
		s := spec
		s.Key = key
		tgt, err := r.AllocateTarget(s)
		require.NoError(t, err)
		return tgt
	}
	src, a, b := alloc("proj"), alloc("a"), alloc("b")

	impulse := make([]float32, size*size*4)
	c := (size/2*size + size/2) * 4
	impulse[c], impulse[c+1], impulse[c+2], impulse[c+3] = 1, 1, 1, 1
	require.NoError(t, r.WriteTarget(src, impulse))

	program, err := shader.LoadProgram(shader.ProgramBlur)
	require.NoError(t, err)
	p, err := pass.NewPass("blur", program, mesh.FullscreenQuad(), pass.WithOutput(a))
	require.NoError(t, err)
	require.NoError(t, r.RegisterPasses(p))

	s, err := NewScheduler(p, r, a, b)
	require.NoError(t, err)

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Clear(a, common.ColorTransparent))
	require.NoError(t, r.Clear(b, common.ColorTransparent))
	out, err := s.Run(src, amount)
	require.NoError(t, err)
	require.NoError(t, r.EndFrame())

	data, err := r.ReadTarget(out)
	require.NoError(t, err)
	return data
}

// spread returns the total red mass, the peak and the variance along X and Y of an image.
func spread(data []float32, size int) (mass, peak float32, variance mgl32.Vec2) {
	var mean mgl32.Vec2
	for y := range size {
		for x := range size {
			v := data[(y*size+x)*4]
			mass += v
			peak = max(peak, v)
			mean = mean.Add(mgl32.Vec2{float32(x), float32(y)}.Mul(v))
		}
	}
	mean = mean.Mul(1 / mass)
	for y := range size {
		for x := range size {
			d := mgl32.Vec2{float32(x), float32(y)}.Sub(mean)
			v := data[(y*size+x)*4]
			variance = variance.Add(mgl32.Vec2{d.X() * d.X(), d.Y() * d.Y()}.Mul(v))
		}
	}
	return mass, peak, variance.Mul(1 / mass)
}

func TestRunZeroAmountIsIdentity(t *testing.T) {
	const size = 9
	out := blurImpulse(t, size, 0)
	c := (size/2*size + size/2) * 4
	for i := range out {
		want := float32(0)
		if i >= c && i < c+4 {
			want = 1
		}
		assert.InDelta(t, want, out[i], 1e-4)
	}
}

func TestRunSoftensMonotonically(t *testing.T) {
	const size = 49
	var prevPeak float32 = 1
	var prevVar mgl32.Vec2
	for _, amount := range []float32{2, 4} {
		mass, peak, variance := spread(blurImpulse(t, size, amount), size)
		assert.InDelta(t, 1.0, mass, 1e-3, "amount %v keeps the energy", amount)
		assert.LessOrEqual(t, peak, prevPeak, "amount %v", amount)
		assert.Greater(t, variance.X(), prevVar.X(), "amount %v along X", amount)
		assert.Greater(t, variance.Y(), prevVar.Y(), "amount %v along Y", amount)
		assert.InDelta(t, variance.X(), variance.Y(), 1e-3, "amount %v spreads evenly", amount)
		prevPeak, prevVar = peak, variance
	}
}
