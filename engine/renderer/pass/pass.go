package pass

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Carmen-Shannon/oxy-shadow/engine/mesh"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
)

// CullMode selects which triangle faces a pass discards. Counter-clockwise is front.
type CullMode int

const (
	// CullNone draws both faces.
	CullNone CullMode = iota

	// CullFront discards counter-clockwise triangles.
	CullFront

	// CullBack discards clockwise triangles.
	CullBack
)

func (c CullMode) String() string {
	switch c {
	case CullNone:
		return "none"
	case CullFront:
		return "front"
	case CullBack:
		return "back"
	default:
		return fmt.Sprintf("CullMode(%d)", int(c))
	}
}

var (
	// ErrFeedback is returned when a draw would read the target it writes.
	ErrFeedback = errors.New("pass: input and output are the same target")

	// ErrMissingInput is returned when a program input has no bound target.
	ErrMissingInput = errors.New("pass: program input has no target")

	// ErrUnknownInput is returned when a binding names a role the program does not declare.
	ErrUnknownInput = errors.New("pass: program declares no such input")

	// ErrOutputMismatch is returned when an invocation output differs in shape from the pass output.
	ErrOutputMismatch = errors.New("pass: invocation output does not match the pass output")

	// ErrMeshAttribute is returned when the mesh lacks a vertex attribute the program reads.
	ErrMeshAttribute = errors.New("pass: mesh is missing a vertex attribute")
)

// Uniforms maps uniform field names to values.
type Uniforms map[string]any

// Merge returns a copy of u with overrides applied on top.
func (u Uniforms) Merge(overrides Uniforms) Uniforms {
	out := make(Uniforms, len(u)+len(overrides))
	maps.Copy(out, u)
	maps.Copy(out, overrides)
	return out
}

// Binding attaches a target to a program input role.
type Binding struct {
	Role   string
	Target target.Target
}

// Invocation carries the per-draw values of a pass. Inputs and Output override the pass
// defaults; a nil Output keeps the pass output.
type Invocation struct {
	Uniforms Uniforms
	Inputs   []Binding
	Output   target.Target
}

// Draw is a fully resolved invocation: every program input is bound, uniforms are merged
// and packed, and the output is known. A nil Output is the screen.
type Draw struct {
	Pass     Pass
	Output   target.Target
	Inputs   []Binding
	Uniforms Uniforms
	Packed   []shader.PackedUniform
}

// pass is the implementation of the Pass interface.
type pass struct {
	key      string
	program  shader.Program
	mesh     *mesh.Mesh
	vertices []float32
	stride   int
	uniforms Uniforms
	output   target.Target
	inputs   map[string]target.Target
	cullMode CullMode

	depthTest      bool
	depthTestIsSet bool
}

// Pass is an immutable draw descriptor: a program, the geometry it draws, default uniform
// values, the target it renders into and its default input bindings. Passes are built once
// at startup and invoked every frame with per-invocation overrides.
type Pass interface {
	// Key returns the pass's unique identifier.
	//
	// Returns:
	//   - string: the pass key
	Key() string

	// Program returns the program the pass draws with.
	//
	// Returns:
	//   - shader.Program: the program
	Program() shader.Program

	// Mesh returns the geometry the pass draws.
	//
	// Returns:
	//   - *mesh.Mesh: the mesh
	Mesh() *mesh.Mesh

	// Vertices returns the mesh interleaved in the program's vertex input order.
	//
	// Returns:
	//   - []float32: the interleaved vertex data
	//   - int: the stride in floats
	Vertices() ([]float32, int)

	// Uniforms returns a copy of the default uniform values.
	//
	// Returns:
	//   - Uniforms: the defaults
	Uniforms() Uniforms

	// Output returns the default output target, nil for the screen.
	//
	// Returns:
	//   - target.Target: the output target
	Output() target.Target

	// CullMode returns the face culling mode.
	//
	// Returns:
	//   - CullMode: the cull mode
	CullMode() CullMode

	// DepthTest reports whether the pass depth-tests against its output's depth attachment.
	// It defaults to true for the screen and for targets with depth.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTest() bool

	// Resolve merges an invocation with the pass defaults and checks it.
	//
	// Parameters:
	//   - inv: the per-draw values
	//
	// Returns:
	//   - Draw: the resolved draw
	//   - error: ErrFeedback, ErrMissingInput, ErrUnknownInput, ErrOutputMismatch or a
	//     uniform packing error
	Resolve(inv Invocation) (Draw, error)
}

var _ Pass = &pass{}

// NewPass builds a pass. The mesh is interleaved once here in the program's vertex input
// order, so a mesh lacking an attribute the program reads is rejected.
//
// Parameters:
//   - key: a unique identifier for the pass
//   - program: the program to draw with
//   - m: the geometry to draw
//   - options: PassBuilderOption values such as WithOutput and WithCullMode
//
// Returns:
//   - Pass: the pass
//   - error: ErrMeshAttribute or a mesh validation error
func NewPass(key string, program shader.Program, m *mesh.Mesh, options ...PassBuilderOption) (Pass, error) {
	p := &pass{
		key:      key,
		program:  program,
		mesh:     m,
		uniforms: make(Uniforms),
		inputs:   make(map[string]target.Target),
		cullMode: CullNone,
	}
	for _, opt := range options {
		opt(p)
	}
	if !p.depthTestIsSet {
		p.depthTest = p.output == nil || p.output.HasDepth()
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("pass %s: %w", key, err)
	}
	attrs := program.Vertex().VertexAttributes()
	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if !m.HasAttribute(a.Name) {
			return nil, fmt.Errorf("%w: pass %s needs %q", ErrMeshAttribute, key, a.Name)
		}
		names = append(names, a.Name)
	}
	vertices, stride, err := m.Interleave(names...)
	if err != nil {
		return nil, fmt.Errorf("pass %s: %w", key, err)
	}
	p.vertices = vertices
	p.stride = stride

	for role := range p.inputs {
		if _, _, ok := program.InputBinding(role); !ok {
			return nil, fmt.Errorf("%w: pass %s role %q", ErrUnknownInput, key, role)
		}
	}
	return p, nil
}

func (p *pass) Key() string {
	return p.key
}

func (p *pass) Program() shader.Program {
	return p.program
}

func (p *pass) Mesh() *mesh.Mesh {
	return p.mesh
}

func (p *pass) Vertices() ([]float32, int) {
	return p.vertices, p.stride
}

func (p *pass) Uniforms() Uniforms {
	return p.uniforms.Merge(nil)
}

func (p *pass) Output() target.Target {
	return p.output
}

func (p *pass) CullMode() CullMode {
	return p.cullMode
}

func (p *pass) DepthTest() bool {
	return p.depthTest
}

func (p *pass) Resolve(inv Invocation) (Draw, error) {
	d := Draw{Pass: p, Output: p.output, Uniforms: p.uniforms.Merge(inv.Uniforms)}

	if inv.Output != nil {
		if p.output == nil || !inv.Output.Spec().SameShape(p.output.Spec()) {
			return Draw{}, fmt.Errorf("%w: pass %s got %s", ErrOutputMismatch, p.key, inv.Output.Key())
		}
		d.Output = inv.Output
	}

	bound := make(map[string]target.Target, len(p.inputs)+len(inv.Inputs))
	maps.Copy(bound, p.inputs)
	for _, b := range inv.Inputs {
		if _, _, ok := p.program.InputBinding(b.Role); !ok {
			return Draw{}, fmt.Errorf("%w: pass %s role %q", ErrUnknownInput, p.key, b.Role)
		}
		bound[b.Role] = b.Target
	}

	for _, in := range p.program.Inputs() {
		t := bound[in.Role()]
		if t == nil {
			return Draw{}, fmt.Errorf("%w: pass %s role %q", ErrMissingInput, p.key, in.Role())
		}
		if d.Output != nil && t == d.Output {
			return Draw{}, fmt.Errorf("%w: pass %s %s", ErrFeedback, p.key, t.Key())
		}
		d.Inputs = append(d.Inputs, Binding{Role: in.Role(), Target: t})
	}

	packed, err := p.program.PackUniforms(d.Uniforms)
	if err != nil {
		return Draw{}, fmt.Errorf("pass %s: %w", p.key, err)
	}
	d.Packed = packed
	return d, nil
}
