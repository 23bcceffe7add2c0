package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based backend. It needs a window surface.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU rasterizer. It renders the screen into an
	// offscreen buffer and needs no GPU or window.
	BackendTypeSoftware
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	default:
		return "unknown"
	}
}

// ParseBackendType maps a config string to a backend type.
//
// Parameters:
//   - s: "wgpu" or "software"
//
// Returns:
//   - RendererBackendType: the backend type
//   - error: ErrUnknownBackend for any other value
func ParseBackendType(s string) (RendererBackendType, error) {
	switch s {
	case "wgpu":
		return BackendTypeWGPU, nil
	case "software":
		return BackendTypeSoftware, nil
	default:
		return 0, ErrUnknownBackend
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

var (
	// ErrUnknownBackend is returned for an unrecognised backend name.
	ErrUnknownBackend = errors.New("renderer: unknown backend")

	// ErrNoFrame is returned when a frame operation runs outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrFrameInProgress is returned by BeginFrame while a frame is still open.
	ErrFrameInProgress = errors.New("renderer: frame already in progress")

	// ErrPassNotRegistered is returned when drawing a pass that was never registered.
	ErrPassNotRegistered = errors.New("renderer: pass not registered")

	// ErrForeignTarget is returned for a target allocated by a different backend.
	ErrForeignTarget = errors.New("renderer: target was not allocated by this backend")

	// ErrSizeMismatch is returned when uploaded data does not fill the target exactly.
	ErrSizeMismatch = errors.New("renderer: data size does not match target")

	// ErrScreenReadback is returned by backends that cannot read the presented screen.
	ErrScreenReadback = errors.New("renderer: screen readback is not supported by this backend")

	// ErrNoSurface is returned when the wgpu backend is created without a surface.
	ErrNoSurface = errors.New("renderer: wgpu backend needs a surface")
)

// RendererBackend is implemented by every backend. A nil target always means the screen.
type RendererBackend interface {
	target.Allocator

	// RegisterPass prepares everything needed to draw the pass: pipelines, vertex data
	// and per-pass uniform storage.
	RegisterPass(p pass.Pass) error

	// BeginFrame opens a frame; on wgpu it acquires the swapchain texture.
	BeginFrame() error

	// Clear fills a target (nil for the screen) with a color and resets its depth.
	Clear(t target.Target, c common.Color) error

	// Draw executes a resolved draw. Draws complete in submission order.
	Draw(d pass.Draw) error

	// EndFrame closes the frame opened by BeginFrame.
	EndFrame() error

	// AbortFrame drops the open frame without presenting it.
	AbortFrame()

	// Present shows the last completed frame.
	Present()

	// ReadTarget copies a target's texels back, row-major from the top row, four
	// floats per texel.
	ReadTarget(t target.Target) ([]float32, error)

	// WriteTarget uploads texels in the ReadTarget layout.
	WriteTarget(t target.Target, data []float32) error

	// ConfigureSurface resizes the screen.
	ConfigureSurface(width, height int)

	// ScreenSize returns the screen size in pixels.
	ScreenSize() (int, int)

	// SetPresentMode sets the present mode; takes effect at the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// Release frees every backend resource.
	Release()
}
