package shadow

import (
	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/mesh"
	"github.com/rs/zerolog"
)

// GraphBuilderOption is a functional option for configuring a Graph.
// Every option is a construction-time constant for the lifetime of the graph.
type GraphBuilderOption func(*graph)

// WithResolution sets the size of the square projection and blur targets.
//
// Parameters:
//   - px: the width and height in texels (default 512)
//
// Returns:
//   - GraphBuilderOption: a function that sets the resolution
func WithResolution(px int) GraphBuilderOption {
	return func(g *graph) {
		g.resolution = px
	}
}

// WithDepthResolution sets the size of the square depth-capture target.
//
// Parameters:
//   - px: the width and height in texels (default 1024)
//
// Returns:
//   - GraphBuilderOption: a function that sets the depth resolution
func WithDepthResolution(px int) GraphBuilderOption {
	return func(g *graph) {
		g.depthResolution = px
	}
}

// WithLightCamera replaces the default light camera.
//
// Parameters:
//   - c: the camera depth is captured with
//
// Returns:
//   - GraphBuilderOption: a function that sets the light camera
func WithLightCamera(c camera.CaptureCamera) GraphBuilderOption {
	return func(g *graph) {
		if c != nil {
			g.light = c
		}
	}
}

// WithPlaneCamera replaces the default plane camera.
//
// Parameters:
//   - c: the camera the ground plane is projected with
//
// Returns:
//   - GraphBuilderOption: a function that sets the plane camera
func WithPlaneCamera(c camera.CaptureCamera) GraphBuilderOption {
	return func(g *graph) {
		if c != nil {
			g.plane = c
		}
	}
}

// WithBounds sets the ground rectangle that can receive a shadow. Without it the light
// camera's ground bounds are used.
//
// Parameters:
//   - b: the rectangle in world XZ
//
// Returns:
//   - GraphBuilderOption: a function that sets the bounds
func WithBounds(b common.Bounds) GraphBuilderOption {
	return func(g *graph) {
		g.bounds = b
		g.boundsSet = true
	}
}

// WithObjectMesh replaces the caster geometry, a unit cube by default.
//
// Parameters:
//   - m: the caster mesh
//
// Returns:
//   - GraphBuilderOption: a function that sets the caster mesh
func WithObjectMesh(m *mesh.Mesh) GraphBuilderOption {
	return func(g *graph) {
		if m != nil {
			g.objectMesh = m
		}
	}
}

// WithClampInputs toggles clamping of the blur amount and opacity before each frame.
// With clamping off, out-of-range values reach the programs unchanged.
//
// Parameters:
//   - enabled: whether to clamp (default true)
//
// Returns:
//   - GraphBuilderOption: a function that sets input clamping
func WithClampInputs(enabled bool) GraphBuilderOption {
	return func(g *graph) {
		g.clampInputs = enabled
	}
}

// WithObjectView toggles drawing the caster to the screen with normal visualization
// after the shadow composite.
//
// Parameters:
//   - enabled: whether to draw the caster (default true)
//
// Returns:
//   - GraphBuilderOption: a function that sets the object view
func WithObjectView(enabled bool) GraphBuilderOption {
	return func(g *graph) {
		g.objectView = enabled
	}
}

// WithScreenClearColor sets the color the screen is cleared to every frame.
//
// Parameters:
//   - c: the clear color (default white)
//
// Returns:
//   - GraphBuilderOption: a function that sets the screen clear color
func WithScreenClearColor(c common.Color) GraphBuilderOption {
	return func(g *graph) {
		g.screenClear = c
	}
}

// WithStateObserver registers a callback invoked on every state transition, including the
// return to Idle. It runs on the rendering goroutine with the graph locked and must not
// call back into the graph.
//
// Parameters:
//   - fn: the observer
//
// Returns:
//   - GraphBuilderOption: a function that sets the observer
func WithStateObserver(fn func(State)) GraphBuilderOption {
	return func(g *graph) {
		g.observer = fn
	}
}

// WithProgramValidator replaces the check every program goes through before its passes
// are created. The default is shader.Validate; nil skips validation.
//
// Parameters:
//   - fn: the validation function
//
// Returns:
//   - GraphBuilderOption: a function that sets the program validator
func WithProgramValidator(fn func(source string) error) GraphBuilderOption {
	return func(g *graph) {
		g.validator = fn
	}
}

// WithLogger sets the graph's logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - GraphBuilderOption: a function that sets the logger
func WithLogger(logger zerolog.Logger) GraphBuilderOption {
	return func(g *graph) {
		g.logger = logger
	}
}
