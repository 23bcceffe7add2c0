package shader

import (
	"embed"
	"errors"
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/*.wgsl
var programFS embed.FS

// Keys of the programs shipped with the engine.
const (
	ProgramDepth            = "depth"
	ProgramShadowProjection = "shadow_projection"
	ProgramBlur             = "blur"
	ProgramComposite        = "composite"
	ProgramNormal           = "normal"
)

// BlurWeights are the tap weights baked into the blur program, from offset -4 to +4.
// They sum to one.
var BlurWeights = [9]float32{0.051, 0.0918, 0.12245, 0.1531, 0.1633, 0.1531, 0.12245, 0.0918, 0.051}

var (
	// ErrUnknownProgram is returned by LoadProgram for a key with no embedded source.
	ErrUnknownProgram = errors.New("shader: unknown program")

	// ErrUnboundTexture is returned when a texture binding has no @oxy:input role.
	ErrUnboundTexture = errors.New("shader: texture binding has no input role")

	// ErrUnknownInput is returned when an @oxy:input names a binding that is not a texture.
	ErrUnknownInput = errors.New("shader: input role does not name a texture binding")
)

// PackedUniform is one encoded uniform buffer ready for upload.
type PackedUniform struct {
	Group   int
	Binding int
	Data    []byte
}

// program is the implementation of the Program interface.
type program struct {
	key       string
	source    string
	vertex    Shader
	fragment  Shader
	layouts   map[int]wgpu.BindGroupLayoutDescriptor
	uniforms  []UniformLayout
	textures  []TextureBinding
	inputs    []Annotation
	validator func(string) error
	pp        PreProcessor
}

// Program is a WGSL source holding a vertex and a fragment entry point, parsed into
// everything a backend needs to build a pipeline and bind a draw.
type Program interface {
	// Key returns the program's unique identifier.
	//
	// Returns:
	//   - string: the program key
	Key() string

	// Source returns the pre-processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// Vertex returns the vertex stage.
	//
	// Returns:
	//   - Shader: the vertex shader
	Vertex() Shader

	// Fragment returns the fragment stage.
	//
	// Returns:
	//   - Shader: the fragment shader
	Fragment() Shader

	// BindGroupLayoutDescriptors returns the bind group layouts of both stages merged,
	// with every entry visible to the stages that declare it.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// UniformLayouts returns the field layout of every var<uniform> binding.
	//
	// Returns:
	//   - []UniformLayout: layouts sorted by group then binding
	UniformLayouts() []UniformLayout

	// TextureBindings returns every sampled texture binding.
	//
	// Returns:
	//   - []TextureBinding: bindings sorted by group then binding
	TextureBindings() []TextureBinding

	// Inputs returns the @oxy:input declarations in source order.
	//
	// Returns:
	//   - []Annotation: the input declarations
	Inputs() []Annotation

	// InputBinding resolves an input role to its group and binding.
	//
	// Parameters:
	//   - role: the input role, e.g. "source"
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: false if the program declares no such input
	InputBinding(role string) (int, int, bool)

	// PackUniforms encodes every uniform binding from named values.
	//
	// Parameters:
	//   - values: field name to value, shared across the program's uniform structs
	//
	// Returns:
	//   - []PackedUniform: one encoded buffer per uniform binding
	//   - error: ErrMissingUniform or ErrUniformType
	PackUniforms(values map[string]any) ([]PackedUniform, error)
}

var _ Program = &program{}

// NewProgram pre-processes and parses a WGSL source containing one @vertex and one
// @fragment entry point.
//
// Parameters:
//   - key: a unique identifier for the program
//   - source: the raw WGSL source, which may contain @oxy: annotations
//   - options: ProgramBuilderOption values such as WithValidation
//
// Returns:
//   - Program: the parsed program
//   - error: an annotation, entry point, binding or validation error
func NewProgram(key, source string, options ...ProgramBuilderOption) (Program, error) {
	p := &program{key: key}
	for _, opt := range options {
		opt(p)
	}
	if p.pp == nil {
		p.pp = NewPreProcessor()
	}

	processed, err := p.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", key, err)
	}
	p.source = processed
	p.inputs = append([]Annotation(nil), p.pp.Declarations()...)

	if p.validator != nil {
		if err := p.validator(processed); err != nil {
			return nil, fmt.Errorf("program %s: %w", key, err)
		}
	}

	if p.vertex, err = NewShader(key+".vs", ShaderTypeVertex, processed); err != nil {
		return nil, err
	}
	if p.fragment, err = NewShader(key+".fs", ShaderTypeFragment, processed); err != nil {
		return nil, err
	}

	stripped := stripComments(processed)
	p.uniforms = parseUniformLayouts(stripped)
	p.textures = parseTextureBindings(stripped)
	if err := p.checkInputs(); err != nil {
		return nil, fmt.Errorf("program %s: %w", key, err)
	}
	p.layouts = mergeLayouts(p.vertex.BindGroupLayoutDescriptors(), p.fragment.BindGroupLayoutDescriptors())
	return p, nil
}

// LoadProgram builds one of the engine's embedded programs.
//
// Parameters:
//   - key: one of the Program* keys
//   - options: ProgramBuilderOption values
//
// Returns:
//   - Program: the parsed program
//   - error: ErrUnknownProgram or any NewProgram error
func LoadProgram(key string, options ...ProgramBuilderOption) (Program, error) {
	data, err := programFS.ReadFile("assets/" + key + ".wgsl")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, key)
	}
	return NewProgram(key, string(data), options...)
}

func (p *program) Key() string {
	return p.key
}

func (p *program) Source() string {
	return p.source
}

func (p *program) Vertex() Shader {
	return p.vertex
}

func (p *program) Fragment() Shader {
	return p.fragment
}

func (p *program) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

func (p *program) UniformLayouts() []UniformLayout {
	return p.uniforms
}

func (p *program) TextureBindings() []TextureBinding {
	return p.textures
}

func (p *program) Inputs() []Annotation {
	return p.inputs
}

func (p *program) InputBinding(role string) (int, int, bool) {
	for _, a := range p.inputs {
		if a.Role() == role {
			return *a.Group, *a.Binding, true
		}
	}
	return -1, -1, false
}

func (p *program) PackUniforms(values map[string]any) ([]PackedUniform, error) {
	out := make([]PackedUniform, 0, len(p.uniforms))
	for _, l := range p.uniforms {
		data, err := l.Pack(values)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", p.key, err)
		}
		out = append(out, PackedUniform{Group: l.Group, Binding: l.Binding, Data: data})
	}
	return out, nil
}

// checkInputs pairs every texture binding with exactly one input role.
func (p *program) checkInputs() error {
	declared := make(map[[2]int]bool, len(p.inputs))
	for _, a := range p.inputs {
		key := [2]int{*a.Group, *a.Binding}
		found := false
		for _, t := range p.textures {
			if t.Group == key[0] && t.Binding == key[1] {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s at group %d binding %d", ErrUnknownInput, a.Role(), key[0], key[1])
		}
		declared[key] = true
	}
	for _, t := range p.textures {
		if !declared[[2]int{t.Group, t.Binding}] {
			return fmt.Errorf("%w: %s", ErrUnboundTexture, t.Var)
		}
	}
	return nil
}

// mergeLayouts combines per-stage layouts, OR-ing the visibility of shared entries.
func mergeLayouts(stages ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	byGroup := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	for _, stage := range stages {
		for group, desc := range stage {
			if byGroup[group] == nil {
				byGroup[group] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if prev, ok := byGroup[group][e.Binding]; ok {
					e.Visibility |= prev.Visibility
				}
				byGroup[group][e.Binding] = e
			}
		}
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(byGroup))
	for group, entries := range byGroup {
		list := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
		for _, e := range entries {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		out[group] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return out
}
