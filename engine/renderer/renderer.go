package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
)

// SurfaceProvider supplies the platform surface the wgpu backend presents to. The window
// implements it.
type SurfaceProvider interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	passes map[string]pass.Pass

	backendType RendererBackendType
	backend     RendererBackend
	logger      zerolog.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	screenWidth          int
	screenHeight         int
	workers              int
}

// Renderer is the high-level drawing API the render graph talks to. It owns a backend,
// allocates targets for the target pool and keeps a registry of passes so each pass's
// backend resources are created exactly once.
type Renderer interface {
	target.Allocator

	// BackendType returns the backend the renderer was created with.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// RegisterPasses prepares one or more passes on the backend. Passes whose keys are
	// already registered are skipped.
	//
	// Parameters:
	//   - passes: the passes to register
	//
	// Returns:
	//   - error: the first backend error
	RegisterPasses(passes ...pass.Pass) error

	// Pass retrieves a registered pass by key.
	//
	// Parameters:
	//   - key: the pass key
	//
	// Returns:
	//   - pass.Pass: the pass, or nil
	//   - bool: whether it is registered
	Pass(key string) (pass.Pass, bool)

	// BeginFrame opens a frame. Must be paired with EndFrame or AbortFrame.
	//
	// Returns:
	//   - error: ErrFrameInProgress or a surface acquisition error
	BeginFrame() error

	// Clear fills a target, or the screen when t is nil, and resets its depth.
	//
	// Parameters:
	//   - t: the target, nil for the screen
	//   - c: the clear color
	//
	// Returns:
	//   - error: ErrNoFrame or ErrForeignTarget
	Clear(t target.Target, c common.Color) error

	// Draw executes a resolved draw of a registered pass.
	//
	// Parameters:
	//   - d: the draw, usually from pass.Resolve
	//
	// Returns:
	//   - error: ErrPassNotRegistered, ErrNoFrame or a backend error
	Draw(d pass.Draw) error

	// EndFrame closes the frame. Call Present afterwards to show it.
	//
	// Returns:
	//   - error: ErrNoFrame or a submission error
	EndFrame() error

	// AbortFrame drops an open frame without presenting it. It is safe to call when no
	// frame is open.
	AbortFrame()

	// Present shows the last completed frame.
	Present()

	// ReadTarget copies a target back to the host as RGBA floats, top row first.
	//
	// Parameters:
	//   - t: the target, nil for the screen
	//
	// Returns:
	//   - []float32: the texels
	//   - error: ErrScreenReadback on backends that cannot read the screen
	ReadTarget(t target.Target) ([]float32, error)

	// WriteTarget uploads texels in the ReadTarget layout.
	//
	// Parameters:
	//   - t: the target
	//   - data: width*height*4 floats
	//
	// Returns:
	//   - error: ErrSizeMismatch or ErrForeignTarget
	WriteTarget(t target.Target, data []float32) error

	// Resize reconfigures the screen for a new size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// ScreenSize returns the screen size in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	ScreenSize() (int, int)

	// SetPresentMode sets the present mode. A call to Resize is required for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the given backend. The wgpu backend needs a surface
// provider, typically the window; the software backend takes its screen size from the
// provider when one is given and from WithScreenSize otherwise.
//
// Parameters:
//   - backendType: the backend to create
//   - surface: the surface provider, may be nil for the software backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoSurface, ErrUnknownBackend or a device creation error
func NewRenderer(backendType RendererBackendType, surface SurfaceProvider, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:           &sync.Mutex{},
		passes:       make(map[string]pass.Pass),
		backendType:  backendType,
		logger:       zerolog.Nop(),
		screenWidth:  800,
		screenHeight: 600,
		workers:      max(runtime.NumCPU()-1, 1),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	if surface != nil {
		r.screenWidth, r.screenHeight = surface.Width(), surface.Height()
	}
	r.logger = r.logger.With().Str("component", "renderer").Str("backend", backendType.String()).Logger()

	switch backendType {
	case BackendTypeWGPU:
		if surface == nil {
			return nil, ErrNoSurface
		}
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.logger)
		if err != nil {
			return nil, fmt.Errorf("create wgpu backend: %w", err)
		}
		r.backend = b
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.screenWidth, r.screenHeight, r.workers, r.logger)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(backendType))
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(r.screenWidth, r.screenHeight)
	r.logger.Info().Int("width", r.screenWidth).Int("height", r.screenHeight).Msg("renderer ready")
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) AllocateTarget(spec target.Spec) (target.Target, error) {
	return r.backend.AllocateTarget(spec)
}

func (r *renderer) ReleaseTarget(t target.Target) {
	r.backend.ReleaseTarget(t)
}

func (r *renderer) RegisterPasses(passes ...pass.Pass) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range passes {
		key := p.Key()
		if _, exists := r.passes[key]; exists {
			continue
		}
		if err := r.backend.RegisterPass(p); err != nil {
			return fmt.Errorf("register pass %q: %w", key, err)
		}
		r.passes[key] = p
	}
	return nil
}

func (r *renderer) Pass(key string) (pass.Pass, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.passes[key]
	return p, ok
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Clear(t target.Target, c common.Color) error {
	return r.backend.Clear(t, c)
}

func (r *renderer) Draw(d pass.Draw) error {
	r.mu.Lock()
	p, exists := r.passes[d.Pass.Key()]
	r.mu.Unlock()

	if !exists || p != d.Pass {
		return fmt.Errorf("%w: %s", ErrPassNotRegistered, d.Pass.Key())
	}
	return r.backend.Draw(d)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) AbortFrame() {
	r.backend.AbortFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) ReadTarget(t target.Target) ([]float32, error) {
	return r.backend.ReadTarget(t)
}

func (r *renderer) WriteTarget(t target.Target, data []float32) error {
	return r.backend.WriteTarget(t, data)
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) ScreenSize() (int, int) {
	return r.backend.ScreenSize()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.mu.Lock()
	r.passes = make(map[string]pass.Pass)
	r.mu.Unlock()
	r.backend.Release()
}
