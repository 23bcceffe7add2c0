package engine

import (
	"github.com/Carmen-Shannon/oxy-shadow/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// DriverBuilderOption is a functional option for configuring a Driver.
type DriverBuilderOption func(*driver)

// WithObjectTransform sets the object's starting transform.
//
// Parameters:
//   - t: the transform
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithObjectTransform(t transform.Transform) DriverBuilderOption {
	return func(d *driver) {
		d.object = t
	}
}

// WithPlaneTransform sets the ground plane's base transform. The plane offset tunable is
// added to its translation.
//
// Parameters:
//   - t: the transform
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithPlaneTransform(t transform.Transform) DriverBuilderOption {
	return func(d *driver) {
		d.plane = t
	}
}

// WithRotationSpeed sets the degrees the object turns about Y per tick.
//
// Parameters:
//   - degrees: the rotation per tick (default 1)
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithRotationSpeed(degrees float32) DriverBuilderOption {
	return func(d *driver) {
		d.rotationStep = mgl32.Vec3{0, degrees, 0}
	}
}

// WithTunables sets the starting tunables, which Reset returns to.
//
// Parameters:
//   - t: the tunables
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithTunables(t Tunables) DriverBuilderOption {
	return func(d *driver) {
		d.tunables = t
	}
}

// WithKeySteps sets how far one key press moves each tunable.
//
// Parameters:
//   - s: the increments
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithKeySteps(s KeySteps) DriverBuilderOption {
	return func(d *driver) {
		d.keySteps = s
	}
}

// WithDriverLogger sets the driver's logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithDriverLogger(logger zerolog.Logger) DriverBuilderOption {
	return func(d *driver) {
		d.logger = logger
	}
}
