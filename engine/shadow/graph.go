// Package shadow is the soft-shadow render graph: a fixed chain of passes that captures the
// caster's depth from the light, projects it onto the ground plane, softens it with the
// blur scheduler and composites the result onto the screen.
package shadow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/blur"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Target keys in the graph's pool.
const (
	KeyDepth      = "depth"
	KeyProjection = "projection"
	KeyBlurA      = "blur_a"
	KeyBlurB      = "blur_b"
)

// Pass keys registered with the renderer.
const (
	PassDepth      = "depth"
	PassProjection = "shadow_projection"
	PassBlur       = "blur"
	PassComposite  = "composite"
	PassObject     = "object"
)

const (
	defaultResolution      = 512
	defaultDepthResolution = 1024
	defaultPlaneHalfExtent = 5
)

var (
	// ErrNilRenderer is returned by NewGraph without a renderer.
	ErrNilRenderer = errors.New("shadow: nil renderer")
	// ErrResolution is returned for non-positive target resolutions.
	ErrResolution = errors.New("shadow: resolution must be positive")
	// ErrReleased is returned by Render after Release.
	ErrReleased = errors.New("shadow: graph released")
)

// depthClear is the clear color of the depth target. Alpha 0 marks texels the caster did not cover.
var depthClear = common.ColorTransparent

// litClear is the clear color of the projection and blur targets, so texels the plane
// leaves uncovered read as lit ground.
var litClear = common.ColorWhite

type graph struct {
	mu *sync.Mutex

	renderer renderer.Renderer
	pool     target.Pool
	drawer   *ledgerDrawer
	blur     blur.Scheduler

	depth, projection, a, b target.Target

	depthPass      pass.Pass
	projectionPass pass.Pass
	blurPass       pass.Pass
	compositePass  pass.Pass
	objectPass     pass.Pass

	light camera.CaptureCamera
	plane camera.CaptureCamera

	bounds    common.Bounds
	boundsSet bool

	resolution      int
	depthResolution int

	objectMesh *mesh.Mesh
	planeMesh  *mesh.Mesh

	clampInputs bool
	objectView  bool
	screenClear common.Color

	observer func(State)
	state    State
	released bool

	validator func(string) error

	// casterOutside is set while the caster's bounding sphere lies outside the light volume.
	casterOutside bool

	logger zerolog.Logger
}

// Graph runs the shadow pipeline once per frame. It owns its targets and passes; callers
// only hand it a FrameInput.
type Graph interface {
	// Render runs one frame: ClearTargets, DepthCapture, ShadowProjection, the four blur
	// steps and Composite, in that order, then presents. A failing step aborts the frame
	// and the graph returns to Idle.
	//
	// Parameters:
	//   - in: the frame's transforms and tunables
	//
	// Returns:
	//   - error: the first step error, wrapped with the frame tick and the state it failed in
	Render(in FrameInput) error

	// State returns the current state; Idle between frames.
	//
	// Returns:
	//   - State: the state
	State() State

	// Target returns one of the graph's offscreen targets.
	//
	// Parameters:
	//   - key: KeyDepth, KeyProjection, KeyBlurA or KeyBlurB
	//
	// Returns:
	//   - target.Target: the target
	//   - bool: whether the key exists
	Target(key string) (target.Target, bool)

	// Result returns the target holding the blurred shadow after a frame.
	//
	// Returns:
	//   - target.Target: the second blur target
	Result() target.Target

	// LightCamera returns the camera the depth is captured with.
	//
	// Returns:
	//   - camera.CaptureCamera: the light camera
	LightCamera() camera.CaptureCamera

	// PlaneCamera returns the camera the ground plane is projected with.
	//
	// Returns:
	//   - camera.CaptureCamera: the plane camera
	PlaneCamera() camera.CaptureCamera

	// Bounds returns the ground rectangle outside of which the plane is always lit.
	//
	// Returns:
	//   - common.Bounds: the bounds
	Bounds() common.Bounds

	// SetObjectView toggles drawing the caster to the screen after the composite.
	//
	// Parameters:
	//   - enabled: whether to draw the caster
	SetObjectView(enabled bool)

	// ObjectView reports whether the caster is drawn to the screen.
	//
	// Returns:
	//   - bool: the current setting
	ObjectView() bool

	// Release frees the graph's targets. The renderer is not released.
	Release()
}

var _ Graph = &graph{}

// NewGraph builds the pipeline: it allocates the four offscreen targets, loads the programs,
// builds the passes and registers them with the renderer. Any failure is returned and
// whatever was allocated is released again.
//
// Parameters:
//   - r: the renderer to draw with
//   - options: functional options to configure the graph
//
// Returns:
//   - Graph: the graph
//   - error: a target, program or pass creation error
func NewGraph(r renderer.Renderer, options ...GraphBuilderOption) (Graph, error) {
	if r == nil {
		return nil, ErrNilRenderer
	}
	g := &graph{
		mu:              &sync.Mutex{},
		renderer:        r,
		light:           camera.NewLightCamera(),
		plane:           camera.NewPlaneCamera(defaultPlaneHalfExtent),
		resolution:      defaultResolution,
		depthResolution: defaultDepthResolution,
		objectMesh:      mesh.Cube(1),
		planeMesh:       mesh.Plane(),
		clampInputs:     true,
		objectView:      true,
		screenClear:     common.ColorWhite,
		validator:       shader.Validate,
		logger:          zerolog.Nop(),
	}
	for _, option := range options {
		option(g)
	}
	g.logger = g.logger.With().Str("component", "shadow").Logger()

	if g.resolution <= 0 || g.depthResolution <= 0 {
		return nil, fmt.Errorf("%w: %d, %d", ErrResolution, g.resolution, g.depthResolution)
	}
	if !g.boundsSet {
		g.bounds = g.light.GroundBounds()
	}

	g.pool = target.NewPool(r, target.WithLogger(g.logger))
	g.drawer = &ledgerDrawer{pool: g.pool, renderer: r}
	if err := g.build(); err != nil {
		g.pool.Release()
		return nil, err
	}

	g.logger.Info().
		Int("resolution", g.resolution).
		Int("depth_resolution", g.depthResolution).
		Interface("bounds", g.bounds).
		Bool("object_view", g.objectView).
		Msg("shadow graph ready")
	return g, nil
}

// build allocates the targets and creates the passes.
func (g *graph) build() error {
	var err error
	specs := []struct {
		dst  *target.Target
		spec target.Spec
	}{
		{&g.depth, target.Spec{Key: KeyDepth, Width: g.depthResolution, Height: g.depthResolution, Depth: true}},
		{&g.projection, target.Spec{Key: KeyProjection, Width: g.resolution, Height: g.resolution}},
		{&g.a, target.Spec{Key: KeyBlurA, Width: g.resolution, Height: g.resolution}},
		{&g.b, target.Spec{Key: KeyBlurB, Width: g.resolution, Height: g.resolution}},
	}
	for _, s := range specs {
		if *s.dst, err = g.pool.Create(s.spec); err != nil {
			return fmt.Errorf("create target: %w", err)
		}
	}

	programs := make(map[string]shader.Program)
	for _, key := range []string{shader.ProgramDepth, shader.ProgramShadowProjection, shader.ProgramBlur, shader.ProgramComposite, shader.ProgramNormal} {
		if programs[key], err = shader.LoadProgram(key, shader.WithValidator(g.validator)); err != nil {
			return fmt.Errorf("load program: %w", err)
		}
	}

	if g.depthPass, err = pass.NewPass(PassDepth, programs[shader.ProgramDepth], g.objectMesh,
		pass.WithOutput(g.depth),
		pass.WithDepthTest(true),
		pass.WithUniforms(pass.Uniforms{
			"view":       g.light.View(),
			"projection": g.light.Projection(),
		}),
	); err != nil {
		return err
	}

	if g.projectionPass, err = pass.NewPass(PassProjection, programs[shader.ProgramShadowProjection], g.planeMesh,
		pass.WithOutput(g.projection),
		pass.WithInput("depth_map", g.depth),
		pass.WithUniforms(pass.Uniforms{
			"view":                  g.plane.View(),
			"projection":            g.plane.Projection(),
			"light_view_projection": g.light.ViewProjection(),
			"bounds":                g.bounds.Vec4(),
		}),
	); err != nil {
		return err
	}

	if g.blurPass, err = pass.NewPass(PassBlur, programs[shader.ProgramBlur], mesh.FullscreenQuad(),
		pass.WithOutput(g.a),
	); err != nil {
		return err
	}
	if g.blur, err = blur.NewScheduler(g.blurPass, g.drawer, g.a, g.b, blur.WithLogger(g.logger)); err != nil {
		return err
	}

	if g.compositePass, err = pass.NewPass(PassComposite, programs[shader.ProgramComposite], g.planeMesh,
		pass.WithInput("shadow_map", g.b),
		pass.WithCullMode(pass.CullBack),
	); err != nil {
		return err
	}

	if g.objectPass, err = pass.NewPass(PassObject, programs[shader.ProgramNormal], g.objectMesh,
		pass.WithCullMode(pass.CullBack),
	); err != nil {
		return err
	}

	if err := g.renderer.RegisterPasses(g.depthPass, g.projectionPass, g.blurPass, g.compositePass, g.objectPass); err != nil {
		return fmt.Errorf("register passes: %w", err)
	}
	return nil
}

func (g *graph) Render(in FrameInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return ErrReleased
	}
	if g.clampInputs {
		in = in.clamped()
	}

	var plan []blur.Step
	blurStep := func(i int) func(FrameInput) error {
		return func(in FrameInput) error {
			if plan == nil {
				var err error
				if plan, err = g.blur.Plan(g.projection, in.BlurAmount); err != nil {
					return err
				}
			}
			return g.blur.Execute(plan[i])
		}
	}
	steps := []struct {
		state State
		run   func(FrameInput) error
	}{
		{StateClearTargets, g.clearTargets},
		{StateDepthCapture, g.captureDepth},
		{StateShadowProjection, g.projectShadow},
		{StateBlurHorizontal1, blurStep(0)},
		{StateBlurVertical1, blurStep(1)},
		{StateBlurHorizontal2, blurStep(2)},
		{StateBlurVertical2, blurStep(3)},
		{StateComposite, g.composite},
	}

	for _, step := range steps {
		g.enter(step.state)
		if err := step.run(in); err != nil {
			g.renderer.AbortFrame()
			g.enter(StateIdle)
			g.logger.Error().Err(err).Uint64("tick", in.Tick).Str("state", step.state.String()).Msg("frame aborted")
			return fmt.Errorf("frame %d: %s: %w", in.Tick, step.state, err)
		}
	}

	g.renderer.Present()
	g.enter(StateIdle)
	return nil
}

func (g *graph) clearTargets(in FrameInput) error {
	if err := g.renderer.BeginFrame(); err != nil {
		return err
	}
	g.pool.BeginFrame(in.Tick)
	for _, t := range g.pool.Targets() {
		if err := g.pool.NoteClear(t); err != nil {
			return err
		}
		color := litClear
		if t == g.depth {
			color = depthClear
		}
		if err := g.renderer.Clear(t, color); err != nil {
			return err
		}
	}
	return g.renderer.Clear(nil, g.screenClear)
}

func (g *graph) captureDepth(in FrameInput) error {
	g.noteCasterVisibility(in.ObjectModel)
	return g.draw(g.depthPass, pass.Invocation{
		Uniforms: pass.Uniforms{"model": in.ObjectModel},
	})
}

func (g *graph) projectShadow(in FrameInput) error {
	return g.draw(g.projectionPass, pass.Invocation{
		Uniforms: pass.Uniforms{
			"model":   in.PlaneModel,
			"opacity": in.BlurOpacity,
		},
	})
}

func (g *graph) composite(in FrameInput) error {
	viewer := pass.Uniforms{"view": in.View, "projection": in.Projection}
	if err := g.draw(g.compositePass, pass.Invocation{
		Uniforms: viewer.Merge(pass.Uniforms{"model": in.PlaneModel}),
	}); err != nil {
		return err
	}
	if g.objectView {
		if err := g.draw(g.objectPass, pass.Invocation{
			Uniforms: viewer.Merge(pass.Uniforms{"model": in.ObjectModel}),
		}); err != nil {
			return err
		}
	}
	return g.renderer.EndFrame()
}

func (g *graph) draw(p pass.Pass, inv pass.Invocation) error {
	d, err := p.Resolve(inv)
	if err != nil {
		return err
	}
	return g.drawer.Draw(d)
}

// noteCasterVisibility tests the caster's bounding sphere against the light frustum and
// logs when the caster leaves or re-enters the light volume. Outside it casts no shadow.
// Caller must hold the mutex.
func (g *graph) noteCasterVisibility(model mgl32.Mat4) {
	center := model.Col(3).Vec3()
	scale := max(model.Col(0).Vec3().Len(), model.Col(1).Vec3().Len(), model.Col(2).Vec3().Len())
	radius := g.objectMesh.BoundingRadius() * scale

	outside := !g.light.Frustum().ContainsSphere(center, radius)
	if outside == g.casterOutside {
		return
	}
	g.casterOutside = outside
	if outside {
		g.logger.Info().Interface("center", center).Float32("radius", radius).Msg("caster outside light volume, no shadow is cast")
	} else {
		g.logger.Info().Interface("center", center).Msg("caster back inside light volume")
	}
}

// enter moves the state machine and notifies the observer.
// Caller must hold the mutex.
func (g *graph) enter(s State) {
	g.state = s
	if g.observer != nil {
		g.observer(s)
	}
}

func (g *graph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *graph) Target(key string) (target.Target, bool) {
	return g.pool.Get(key)
}

func (g *graph) Result() target.Target {
	return g.blur.Result()
}

func (g *graph) LightCamera() camera.CaptureCamera {
	return g.light
}

func (g *graph) PlaneCamera() camera.CaptureCamera {
	return g.plane
}

func (g *graph) Bounds() common.Bounds {
	return g.bounds
}

func (g *graph) SetObjectView(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.objectView = enabled
}

func (g *graph) ObjectView() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.objectView
}

func (g *graph) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true
	g.pool.Release()
	g.logger.Debug().Msg("shadow graph released")
}

// ledgerDrawer checks every draw against the pool's frame ledger before handing it to the
// renderer: inputs must have been written this frame and the output must have been
// cleared. Screen draws bypass the ledger.
type ledgerDrawer struct {
	pool     target.Pool
	renderer renderer.Renderer
}

func (l *ledgerDrawer) Draw(d pass.Draw) error {
	for _, in := range d.Inputs {
		if err := l.pool.NoteRead(in.Target); err != nil {
			return fmt.Errorf("pass %s input %s: %w", d.Pass.Key(), in.Role, err)
		}
	}
	if d.Output != nil {
		if err := l.pool.NoteWrite(d.Output); err != nil {
			return fmt.Errorf("pass %s output: %w", d.Pass.Key(), err)
		}
	}
	return l.renderer.Draw(d)
}
