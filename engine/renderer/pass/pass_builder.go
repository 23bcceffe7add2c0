package pass

import (
	"maps"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
)

// PassBuilderOption is a functional option used to configure a Pass during construction.
type PassBuilderOption func(*pass)

// WithOutput sets the target the pass renders into. Without it the pass renders to the screen.
//
// Parameters:
//   - t: the output target
//
// Returns:
//   - PassBuilderOption: a function that sets the output of the pass
func WithOutput(t target.Target) PassBuilderOption {
	return func(p *pass) {
		p.output = t
	}
}

// WithInput binds a default target to a program input role.
//
// Parameters:
//   - role: the input role declared by the program
//   - t: the target to read
//
// Returns:
//   - PassBuilderOption: a function that binds the input
func WithInput(role string, t target.Target) PassBuilderOption {
	return func(p *pass) {
		p.inputs[role] = t
	}
}

// WithUniforms sets default uniform values, merged over any set earlier.
//
// Parameters:
//   - u: the default values
//
// Returns:
//   - PassBuilderOption: a function that sets the defaults
func WithUniforms(u Uniforms) PassBuilderOption {
	return func(p *pass) {
		maps.Copy(p.uniforms, u)
	}
}

// WithUniform sets a single default uniform value.
//
// Parameters:
//   - name: the uniform field name
//   - value: the default value
//
// Returns:
//   - PassBuilderOption: a function that sets the default
func WithUniform(name string, value any) PassBuilderOption {
	return func(p *pass) {
		p.uniforms[name] = value
	}
}

// WithCullMode sets the face culling mode. The default is CullNone.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - PassBuilderOption: a function that sets the cull mode
func WithCullMode(mode CullMode) PassBuilderOption {
	return func(p *pass) {
		p.cullMode = mode
	}
}

// WithDepthTest overrides whether the pass depth-tests.
//
// Parameters:
//   - enabled: true to depth-test against the output's depth attachment
//
// Returns:
//   - PassBuilderOption: a function that sets the depth test state
func WithDepthTest(enabled bool) PassBuilderOption {
	return func(p *pass) {
		p.depthTest = enabled
		p.depthTestIsSet = true
	}
}
