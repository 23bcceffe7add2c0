package renderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// screenKey is the key of the software backend's screen buffer.
const screenKey = "screen"

// softwareTarget is a target held in host memory: RGBA float texels row-major from the top
// row, plus a depth buffer when the spec asks for one.
type softwareTarget struct {
	target.Base
	color []float32
	depth []float32
}

func newSoftwareTarget(spec target.Spec) *softwareTarget {
	t := &softwareTarget{
		Base:  target.NewBase(spec),
		color: make([]float32, spec.Width*spec.Height*4),
	}
	if spec.Depth {
		t.depth = make([]float32, spec.Width*spec.Height)
	}
	return t
}

func (t *softwareTarget) fill(c common.Color) {
	for i := 0; i < len(t.color); i += 4 {
		t.color[i], t.color[i+1], t.color[i+2], t.color[i+3] = c.R, c.G, c.B, c.A
	}
	for i := range t.depth {
		t.depth[i] = 1
	}
}

// softwarePass is a registered pass with its kernel and decoded layouts.
type softwarePass struct {
	pass     pass.Pass
	program  softwareProgram
	offsets  map[string]int
	vertices []clipVertex
	layouts  []shader.UniformLayout
}

type softwareRendererBackendImpl struct {
	mu     *sync.Mutex
	logger zerolog.Logger

	pool    worker.DynamicWorkerPool
	workers int

	passes  map[string]*softwarePass
	targets map[*softwareTarget]struct{}
	screen  *softwareTarget

	presentMode PresentMode
	inFrame     bool
	presented   uint64
}

var _ RendererBackend = &softwareRendererBackendImpl{}

// newSoftwareRendererBackend creates the CPU backend. The screen is an offscreen buffer of
// the given size that ReadTarget(nil) returns.
//
// Parameters:
//   - width: the screen width in pixels
//   - height: the screen height in pixels
//   - workers: the number of row bands rasterized in parallel
//   - logger: the component logger
//
// Returns:
//   - *softwareRendererBackendImpl: the backend
func newSoftwareRendererBackend(width, height, workers int, logger zerolog.Logger) *softwareRendererBackendImpl {
	b := &softwareRendererBackendImpl{
		mu:      &sync.Mutex{},
		logger:  logger,
		workers: max(workers, 1),
		passes:  make(map[string]*softwarePass),
		targets: make(map[*softwareTarget]struct{}),
	}
	if b.workers > 1 {
		b.pool = worker.NewDynamicWorkerPool(b.workers, 256, 1*time.Second)
	}
	b.screen = newSoftwareTarget(target.Spec{Key: screenKey, Width: max(width, 1), Height: max(height, 1), Depth: true})
	return b
}

func (b *softwareRendererBackendImpl) AllocateTarget(spec target.Spec) (target.Target, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := newSoftwareTarget(spec)
	b.targets[t] = struct{}{}
	return t, nil
}

func (b *softwareRendererBackendImpl) ReleaseTarget(t target.Target) {
	st, ok := t.(*softwareTarget)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.targets, st)
	st.color, st.depth = nil, nil
}

func (b *softwareRendererBackendImpl) RegisterPass(p pass.Pass) error {
	program, ok := softwarePrograms[p.Program().Key()]
	if !ok {
		return fmt.Errorf("%w: no software kernel for %q", shader.ErrUnknownProgram, p.Program().Key())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, stride := p.Vertices()
	sp := &softwarePass{
		pass:    p,
		program: program,
		offsets: attributeOffsets(p.Program().Vertex().VertexAttributes()),
		layouts: p.Program().UniformLayouts(),
	}
	if stride > 0 {
		sp.vertices = make([]clipVertex, 0, len(data)/stride)
	}
	b.passes[p.Key()] = sp
	b.logger.Debug().Str("pass", p.Key()).Str("program", p.Program().Key()).Msg("pass registered")
	return nil
}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return ErrFrameInProgress
	}
	b.inFrame = true
	return nil
}

func (b *softwareRendererBackendImpl) Clear(t target.Target, c common.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}
	st, err := b.resolve(t)
	if err != nil {
		return err
	}
	st.fill(c)
	return nil
}

func (b *softwareRendererBackendImpl) Draw(d pass.Draw) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}

	sp, ok := b.passes[d.Pass.Key()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPassNotRegistered, d.Pass.Key())
	}
	out, err := b.resolve(d.Output)
	if err != nil {
		return err
	}
	tex, err := newTextureSet(d.Inputs)
	if err != nil {
		return err
	}
	u := newUniformView(sp.layouts, d.Packed)

	data, stride := d.Pass.Vertices()
	shaded := sp.vertices[:0]
	for i := 0; i+stride <= len(data) && stride > 0; i += stride {
		clip, varyings := sp.program.vertex(vertexAttributes{data: data[i : i+stride], offsets: sp.offsets}, u)
		shaded = append(shaded, clipVertex{clip: clip, varyings: varyings})
	}
	sp.vertices = shaded

	job := &rasterJob{
		output:    out,
		depthOn:   out.HasDepth(),
		depthTest: d.Pass.DepthTest(),
		shade: func(f fragmentInput) mgl32.Vec4 {
			return sp.program.fragment(f, u, tex)
		},
	}
	m := d.Pass.Mesh()
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, bv, c := shaded[m.Indices[i]], shaded[m.Indices[i+1]], shaded[m.Indices[i+2]]
		job.varyings = len(a.varyings)
		poly := clipToDepthRange(a, bv, c)
		for k := 1; k+1 < len(poly); k++ {
			tri, ok := setupTriangle([3]clipVertex{poly[0], poly[k], poly[k+1]}, out.Width(), out.Height(), d.Pass.CullMode())
			if ok {
				job.triangles = append(job.triangles, tri)
			}
		}
	}

	runBands(b.pool, b.workers, job)
	b.logger.Trace().
		Str("pass", d.Pass.Key()).
		Str("output", out.Key()).
		Int("triangles", len(job.triangles)).
		Msg("draw")
	return nil
}

func (b *softwareRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}
	b.inFrame = false
	return nil
}

func (b *softwareRendererBackendImpl) AbortFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = false
}

func (b *softwareRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presented++
}

func (b *softwareRendererBackendImpl) ReadTarget(t target.Target) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.resolve(t)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(st.color))
	copy(out, st.color)
	return out, nil
}

func (b *softwareRendererBackendImpl) WriteTarget(t target.Target, data []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.resolve(t)
	if err != nil {
		return err
	}
	if len(data) != len(st.color) {
		return fmt.Errorf("%w: %s wants %d floats, got %d", ErrSizeMismatch, st.Key(), len(st.color), len(data))
	}
	copy(st.color, data)
	return nil
}

func (b *softwareRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	b.screen = newSoftwareTarget(target.Spec{Key: screenKey, Width: width, Height: height, Depth: true})
}

func (b *softwareRendererBackendImpl) ScreenSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screen.Width(), b.screen.Height()
}

func (b *softwareRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *softwareRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		b.pool.Stop()
		b.pool = nil
	}
	b.passes = make(map[string]*softwarePass)
	b.targets = make(map[*softwareTarget]struct{})
}

// resolve maps a target to this backend's storage; nil is the screen.
// Caller must hold the mutex.
func (b *softwareRendererBackendImpl) resolve(t target.Target) (*softwareTarget, error) {
	if t == nil {
		return b.screen, nil
	}
	st, ok := t.(*softwareTarget)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrForeignTarget, t.Key())
	}
	if _, owned := b.targets[st]; !owned {
		return nil, fmt.Errorf("%w: %s", ErrForeignTarget, t.Key())
	}
	return st, nil
}
