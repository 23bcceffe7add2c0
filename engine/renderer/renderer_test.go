package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type foreignTarget struct {
	target.Base
}

func newSoftwareRenderer(t *testing.T, workers int) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendTypeSoftware, nil, WithScreenSize(16, 12), WithWorkers(workers))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func loadProgram(t *testing.T, key string) shader.Program {
	t.Helper()
	p, err := shader.LoadProgram(key)
	require.NoError(t, err)
	return p
}

// texel returns the RGBA value at (x, y) of a ReadTarget result.
func texel(data []float32, width, x, y int) mgl32.Vec4 {
	i := (y*width + x) * 4
	return mgl32.Vec4{data[i], data[i+1], data[i+2], data[i+3]}
}

func TestParseBackendType(t *testing.T) {
	bt, err := ParseBackendType("software")
	require.NoError(t, err)
	assert.Equal(t, BackendTypeSoftware, bt)

	bt, err = ParseBackendType("wgpu")
	require.NoError(t, err)
	assert.Equal(t, BackendTypeWGPU, bt)

	_, err = ParseBackendType("vulkan")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewRendererWGPUNeedsSurface(t *testing.T) {
	_, err := NewRenderer(BackendTypeWGPU, nil)
	assert.ErrorIs(t, err, ErrNoSurface)
}

func TestSoftwareScreenSize(t *testing.T) {
	r := newSoftwareRenderer(t, 1)
	w, h := r.ScreenSize()
	assert.Equal(t, 16, w)
	assert.Equal(t, 12, h)

	r.Resize(8, 4)
	w, h = r.ScreenSize()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
}

func TestSoftwareFrameDiscipline(t *testing.T) {
	r := newSoftwareRenderer(t, 1)
	tgt, err := r.AllocateTarget(target.Spec{Key: "a", Width: 4, Height: 4})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Clear(tgt, common.ColorWhite), ErrNoFrame)
	assert.ErrorIs(t, r.EndFrame(), ErrNoFrame)

	require.NoError(t, r.BeginFrame())
	assert.ErrorIs(t, r.BeginFrame(), ErrFrameInProgress)
	r.AbortFrame()
	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.EndFrame())
	r.Present()
}

func TestSoftwareClearAndReadback(t *testing.T) {
	r := newSoftwareRenderer(t, 2)
	tgt, err := r.AllocateTarget(target.Spec{Key: "a", Width: 3, Height: 2, Depth: true})
	require.NoError(t, err)

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Clear(tgt, common.Color{R: 0.25, G: 0.5, B: 0.75, A: 1}))
	require.NoError(t, r.Clear(nil, common.ColorWhite))
	require.NoError(t, r.EndFrame())

	data, err := r.ReadTarget(tgt)
	require.NoError(t, err)
	require.Len(t, data, 3*2*4)
	for y := range 2 {
		for x := range 3 {
			assert.Equal(t, mgl32.Vec4{0.25, 0.5, 0.75, 1}, texel(data, 3, x, y))
		}
	}

	screen, err := r.ReadTarget(nil)
	require.NoError(t, err)
	assert.Equal(t, common.ColorWhite.Vec4(), texel(screen, 16, 15, 11))
}

func TestSoftwareWriteTarget(t *testing.T) {
	r := newSoftwareRenderer(t, 1)
	tgt, err := r.AllocateTarget(target.Spec{Key: "a", Width: 2, Height: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, r.WriteTarget(tgt, []float32{1, 2, 3}), ErrSizeMismatch)
	require.NoError(t, r.WriteTarget(tgt, []float32{1, 2, 3, 4, 5, 6, 7, 8}))
	data, err := r.ReadTarget(tgt)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, data)
}

func TestSoftwareRejectsForeignTargets(t *testing.T) {
	r := newSoftwareRenderer(t, 1)
	foreign := &foreignTarget{Base: target.NewBase(target.Spec{Key: "x", Width: 1, Height: 1})}

	require.NoError(t, r.BeginFrame())
	assert.ErrorIs(t, r.Clear(foreign, common.ColorWhite), ErrForeignTarget)
	_, err := r.ReadTarget(foreign)
	assert.ErrorIs(t, err, ErrForeignTarget)

	released, err := r.AllocateTarget(target.Spec{Key: "r", Width: 1, Height: 1})
	require.NoError(t, err)
	r.ReleaseTarget(released)
	assert.ErrorIs(t, r.Clear(released, common.ColorWhite), ErrForeignTarget)
}

func TestDrawUnregisteredPass(t *testing.T) {
	r := newSoftwareRenderer(t, 1)
	out, err := r.AllocateTarget(target.Spec{Key: "depth", Width: 4, Height: 4, Depth: true})
	require.NoError(t, err)
	p, err := pass.NewPass("depth", loadProgram(t, shader.ProgramDepth), mesh.Plane(), pass.WithOutput(out))
	require.NoError(t, err)
	d, err := p.Resolve(pass.Invocation{Uniforms: pass.Uniforms{
		"model": mgl32.Ident4(), "view": mgl32.Ident4(), "projection": mgl32.Ident4(),
	}})
	require.NoError(t, err)

	require.NoError(t, r.BeginFrame())
	assert.ErrorIs(t, r.Draw(d), ErrPassNotRegistered)

	require.NoError(t, r.RegisterPasses(p, p))
	got, ok := r.Pass("depth")
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.NoError(t, r.Draw(d))
}

func TestSoftwareDepthPass(t *testing.T) {
	r := newSoftwareRenderer(t, 3)
	out, err := r.AllocateTarget(target.Spec{Key: "depth", Width: 8, Height: 8, Depth: true})
	require.NoError(t, err)

	p, err := pass.NewPass("depth", loadProgram(t, shader.ProgramDepth), mesh.Plane(),
		pass.WithOutput(out),
		pass.WithUniforms(pass.Uniforms{
			"model":      mgl32.Ident4(),
			"view":       mgl32.Ident4(),
			"projection": common.Orthographic(-1, 1, -1, 1, -1, 1),
		}),
	)
	require.NoError(t, err)
	require.NoError(t, r.RegisterPasses(p))
	d, err := p.Resolve(pass.Invocation{})
	require.NoError(t, err)

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Clear(out, common.ColorTransparent))
	require.NoError(t, r.Draw(d))
	require.NoError(t, r.EndFrame())

	data, err := r.ReadTarget(out)
	require.NoError(t, err)

	// The unit plane covers the middle half of the target at depth 0.5.
	assert.InDelta(t, 0.5, texel(data, 8, 4, 4)[0], 1e-5)
	assert.Equal(t, float32(1), texel(data, 8, 4, 4)[3])
	assert.Equal(t, float32(1), texel(data, 8, 2, 2)[3])
	assert.Equal(t, mgl32.Vec4{}, texel(data, 8, 0, 0))
	assert.Equal(t, mgl32.Vec4{}, texel(data, 8, 7, 7))
}

func TestSoftwareDepthTestKeepsNearest(t *testing.T) {
	r := newSoftwareRenderer(t, 1)
	out, err := r.AllocateTarget(target.Spec{Key: "depth", Width: 4, Height: 4, Depth: true})
	require.NoError(t, err)
	p, err := pass.NewPass("depth", loadProgram(t, shader.ProgramDepth), mesh.Plane(), pass.WithOutput(out))
	require.NoError(t, err)
	require.NoError(t, r.RegisterPasses(p))

	proj := common.Orthographic(-0.5, 0.5, -0.5, 0.5, -1, 1)
	draw := func(z float32) {
		d, err := p.Resolve(pass.Invocation{Uniforms: pass.Uniforms{
			"model": mgl32.Translate3D(0, 0, z), "view": mgl32.Ident4(), "projection": proj,
		}})
		require.NoError(t, err)
		require.NoError(t, r.Draw(d))
	}

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Clear(out, common.ColorTransparent))
	draw(0.5) // nearer the viewer at +Z, depth 0.25
	draw(-0.5)
	require.NoError(t, r.EndFrame())

	data, err := r.ReadTarget(out)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, texel(data, 4, 1, 1)[0], 1e-5)
}

func TestSoftwareBlurPass(t *testing.T) {
	const size = 9
	r := newSoftwareRenderer(t, 4)
	src, err := r.AllocateTarget(target.Spec{Key: "src", Width: size, Height: size})
	require.NoError(t, err)
	dst, err := r.AllocateTarget(target.Spec{Key: "dst", Width: size, Height: size})
	require.NoError(t, err)

	impulse := make([]float32, size*size*4)
	center := (4*size + 4) * 4
	impulse[center], impulse[center+1], impulse[center+2], impulse[center+3] = 1, 1, 1, 1
	require.NoError(t, r.WriteTarget(src, impulse))

	p, err := pass.NewPass("blur", loadProgram(t, shader.ProgramBlur), mesh.FullscreenQuad(), pass.WithOutput(dst))
	require.NoError(t, err)
	require.NoError(t, r.RegisterPasses(p))

	run := func(direction mgl32.Vec2, radius float32) []float32 {
		d, err := p.Resolve(pass.Invocation{
			Inputs: []pass.Binding{{Role: "source", Target: src}},
			Uniforms: pass.Uniforms{
				"direction": direction, "radius": radius, "resolution": float32(size),
			},
		})
		require.NoError(t, err)
		require.NoError(t, r.BeginFrame())
		require.NoError(t, r.Clear(dst, common.ColorTransparent))
		require.NoError(t, r.Draw(d))
		require.NoError(t, r.EndFrame())
		out, err := r.ReadTarget(dst)
		require.NoError(t, err)
		return out
	}

	t.Run("zero radius copies", func(t *testing.T) {
		out := run(mgl32.Vec2{1, 0}, 0)
		for i := range out {
			assert.InDelta(t, impulse[i], out[i], 1e-5)
		}
	})

	t.Run("one texel step spreads horizontally", func(t *testing.T) {
		out := run(mgl32.Vec2{1, 0}, 1)
		for k := -4; k <= 4; k++ {
			assert.InDelta(t, shader.BlurWeights[k+4], texel(out, size, 4+k, 4)[0], 1e-5, "offset %d", k)
		}
		assert.Equal(t, float32(0), texel(out, size, 4, 3)[0])
		assert.Equal(t, float32(0), texel(out, size, 4, 5)[0])
	})

	t.Run("vertical direction", func(t *testing.T) {
		out := run(mgl32.Vec2{0, 1}, 1)
		assert.InDelta(t, shader.BlurWeights[5], texel(out, size, 4, 5)[0], 1e-5)
		assert.Equal(t, float32(0), texel(out, size, 5, 4)[0])
	})
}

func TestSoftwareBandsMatchSerial(t *testing.T) {
	render := func(workers int) []float32 {
		r := newSoftwareRenderer(t, workers)
		out, err := r.AllocateTarget(target.Spec{Key: "n", Width: 17, Height: 13, Depth: true})
		require.NoError(t, err)
		p, err := pass.NewPass("normal", loadProgram(t, shader.ProgramNormal), mesh.Cube(1),
			pass.WithOutput(out), pass.WithCullMode(pass.CullBack))
		require.NoError(t, err)
		require.NoError(t, r.RegisterPasses(p))
		d, err := p.Resolve(pass.Invocation{Uniforms: pass.Uniforms{
			"model":      mgl32.HomogRotate3DY(mgl32.DegToRad(30)).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(20))),
			"view":       mgl32.LookAtV(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
			"projection": common.Perspective(mgl32.DegToRad(60), 17.0/13.0, 0.1, 10),
		}})
		require.NoError(t, err)
		require.NoError(t, r.BeginFrame())
		require.NoError(t, r.Clear(out, common.ColorBlack))
		require.NoError(t, r.Draw(d))
		require.NoError(t, r.EndFrame())
		data, err := r.ReadTarget(out)
		require.NoError(t, err)
		return data
	}

	serial := render(1)
	assert.Equal(t, serial, render(4))
	assert.NotEqual(t, common.ColorBlack.Vec4(), texel(serial, 17, 8, 6), "cube covers the centre")
}

func TestSetupTriangleCulling(t *testing.T) {
	ccw := [3]clipVertex{
		{clip: mgl32.Vec4{-1, -1, 0.5, 1}},
		{clip: mgl32.Vec4{1, -1, 0.5, 1}},
		{clip: mgl32.Vec4{0, 1, 0.5, 1}},
	}
	cw := [3]clipVertex{ccw[0], ccw[2], ccw[1]}

	tests := []struct {
		name string
		tri  [3]clipVertex
		cull pass.CullMode
		keep bool
	}{
		{"ccw none", ccw, pass.CullNone, true},
		{"cw none", cw, pass.CullNone, true},
		{"ccw back", ccw, pass.CullBack, true},
		{"cw back", cw, pass.CullBack, false},
		{"ccw front", ccw, pass.CullFront, false},
		{"cw front", cw, pass.CullFront, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := setupTriangle(tt.tri, 8, 8, tt.cull)
			assert.Equal(t, tt.keep, ok)
		})
	}
}

func TestClipToDepthRange(t *testing.T) {
	a := clipVertex{clip: mgl32.Vec4{0, 0, -0.5, 1}, varyings: []float32{0}}
	b := clipVertex{clip: mgl32.Vec4{1, 0, 0.5, 1}, varyings: []float32{1}}
	c := clipVertex{clip: mgl32.Vec4{0, 1, 0.5, 1}, varyings: []float32{1}}

	poly := clipToDepthRange(a, b, c)
	require.Len(t, poly, 4)
	for _, v := range poly {
		assert.GreaterOrEqual(t, v.clip[2], float32(0))
		assert.LessOrEqual(t, v.clip[2], v.clip[3])
	}
	assert.InDelta(t, 0.5, poly[0].varyings[0], 1e-6, "first vertex lies on the near plane halfway along a-b")

	assert.Empty(t, clipToDepthRange(
		clipVertex{clip: mgl32.Vec4{0, 0, -1, 1}},
		clipVertex{clip: mgl32.Vec4{1, 0, -1, 1}},
		clipVertex{clip: mgl32.Vec4{0, 1, -1, 1}},
	))
}
