package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// softwareProgram is the CPU counterpart of a WGSL program. vertex runs once per mesh
// vertex and returns the clip position plus the varyings the fragment stage reads;
// fragment runs once per covered pixel and must be safe to call concurrently.
type softwareProgram struct {
	vertex   func(v vertexAttributes, u uniformView) (mgl32.Vec4, []float32)
	fragment func(f fragmentInput, u uniformView, tex textureSet) mgl32.Vec4
}

// softwarePrograms maps program keys to their CPU kernels.
var softwarePrograms = map[string]softwareProgram{
	shader.ProgramDepth: {
		vertex: func(v vertexAttributes, u uniformView) (mgl32.Vec4, []float32) {
			return modelViewProjection(u).Mul4x1(v.vec3("position").Vec4(1)), nil
		},
		fragment: func(f fragmentInput, _ uniformView, _ textureSet) mgl32.Vec4 {
			return mgl32.Vec4{f.depth, f.depth, f.depth, 1}
		},
	},
	shader.ProgramShadowProjection: {
		vertex: func(v vertexAttributes, u uniformView) (mgl32.Vec4, []float32) {
			world := u.mat4("model").Mul4x1(v.vec3("position").Vec4(1))
			clip := u.mat4("projection").Mul4(u.mat4("view")).Mul4x1(world)
			return clip, []float32{world[0], world[1], world[2]}
		},
		fragment: func(f fragmentInput, u uniformView, tex textureSet) mgl32.Vec4 {
			lit := common.ColorWhite.Vec4()
			world := mgl32.Vec3{f.varyings[0], f.varyings[1], f.varyings[2]}
			b := u.vec4("bounds")
			bounds := common.Bounds{MinX: b[0], MinZ: b[1], MaxX: b[2], MaxZ: b[3]}
			if !bounds.Contains(world.X(), world.Z()) {
				return lit
			}

			clip := u.mat4("light_view_projection").Mul4x1(world.Vec4(1))
			uv := common.NDCToUV(mgl32.Vec2{clip[0] / clip[3], clip[1] / clip[3]})
			captured := tex.load("depth_map", uv)
			if captured[3] == 0 {
				return lit
			}
			return mgl32.Vec4{captured[0], captured[0], captured[0], u.f32("opacity")}
		},
	},
	shader.ProgramBlur: {
		vertex: func(v vertexAttributes, _ uniformView) (mgl32.Vec4, []float32) {
			uv := v.vec2("uv")
			return v.vec3("position").Vec4(1), []float32{uv[0], uv[1]}
		},
		fragment: func(f fragmentInput, u uniformView, tex textureSet) mgl32.Vec4 {
			uv := mgl32.Vec2{f.varyings[0], f.varyings[1]}
			step := u.vec2("direction").Mul(u.f32("radius") / u.f32("resolution"))
			var color mgl32.Vec4
			for i, w := range shader.BlurWeights {
				offset := float32(i - len(shader.BlurWeights)/2)
				color = color.Add(tex.load("source", uv.Add(step.Mul(offset))).Mul(w))
			}
			return color
		},
	},
	shader.ProgramComposite: {
		vertex: func(v vertexAttributes, u uniformView) (mgl32.Vec4, []float32) {
			uv := v.vec2("uv")
			return modelViewProjection(u).Mul4x1(v.vec3("position").Vec4(1)), []float32{uv[0], uv[1]}
		},
		fragment: func(f fragmentInput, _ uniformView, tex textureSet) mgl32.Vec4 {
			return tex.load("shadow_map", mgl32.Vec2{f.varyings[0], f.varyings[1]})
		},
	},
	shader.ProgramNormal: {
		vertex: func(v vertexAttributes, u uniformView) (mgl32.Vec4, []float32) {
			n := u.mat4("model").Mul4x1(v.vec3("normal").Vec4(0))
			return modelViewProjection(u).Mul4x1(v.vec3("position").Vec4(1)), []float32{n[0], n[1], n[2]}
		},
		fragment: func(f fragmentInput, _ uniformView, _ textureSet) mgl32.Vec4 {
			n := mgl32.Vec3{f.varyings[0], f.varyings[1], f.varyings[2]}
			if n.Len() > 0 {
				n = n.Normalize()
			}
			return mgl32.Vec4{abs32(n[0]), abs32(n[1]), abs32(n[2]), 1}
		},
	},
}

func modelViewProjection(u uniformView) mgl32.Mat4 {
	return u.mat4("projection").Mul4(u.mat4("view")).Mul4(u.mat4("model"))
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// vertexAttributes reads named attributes out of one interleaved vertex.
type vertexAttributes struct {
	data    []float32
	offsets map[string]int
}

func (v vertexAttributes) vec2(name string) mgl32.Vec2 {
	o, ok := v.offsets[name]
	if !ok {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{v.data[o], v.data[o+1]}
}

func (v vertexAttributes) vec3(name string) mgl32.Vec3 {
	o, ok := v.offsets[name]
	if !ok {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{v.data[o], v.data[o+1], v.data[o+2]}
}

// attributeOffsets converts the program's vertex attribute byte offsets to float offsets.
func attributeOffsets(attrs []shader.VertexAttribute) map[string]int {
	out := make(map[string]int, len(attrs))
	for _, a := range attrs {
		out[a.Name] = int(a.Offset / 4)
	}
	return out
}

// uniformView decodes uniform fields from the bytes a draw packed for the GPU, so both
// backends consume exactly the same uniform data.
type uniformView map[string][]byte

// newUniformView slices every field of every uniform binding out of the packed data.
func newUniformView(layouts []shader.UniformLayout, packed []shader.PackedUniform) uniformView {
	u := make(uniformView)
	for _, l := range layouts {
		for _, p := range packed {
			if p.Group != l.Group || p.Binding != l.Binding {
				continue
			}
			for _, f := range l.Fields {
				if f.Offset+f.Size <= uint64(len(p.Data)) {
					u[f.Name] = p.Data[f.Offset : f.Offset+f.Size]
				}
			}
		}
	}
	return u
}

func (u uniformView) floats(name string, n int) []float32 {
	out := make([]float32, n)
	b := u[name]
	for i := 0; i < n && (i+1)*4 <= len(b); i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func (u uniformView) f32(name string) float32 {
	return u.floats(name, 1)[0]
}

func (u uniformView) vec2(name string) mgl32.Vec2 {
	f := u.floats(name, 2)
	return mgl32.Vec2{f[0], f[1]}
}

func (u uniformView) vec4(name string) mgl32.Vec4 {
	f := u.floats(name, 4)
	return mgl32.Vec4{f[0], f[1], f[2], f[3]}
}

func (u uniformView) mat4(name string) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], u.floats(name, 16))
	return m
}

// fragmentInput is what the rasterizer hands a fragment kernel: perspective-correct
// varyings and the fragment depth in [0, 1].
type fragmentInput struct {
	varyings []float32
	depth    float32
}

// textureSet binds the input targets of a draw by role.
type textureSet map[string]*softwareTarget

// newTextureSet resolves the bindings of a draw to software targets.
func newTextureSet(inputs []pass.Binding) (textureSet, error) {
	out := make(textureSet, len(inputs))
	for _, in := range inputs {
		st, ok := in.Target.(*softwareTarget)
		if !ok {
			return nil, ErrForeignTarget
		}
		out[in.Role] = st
	}
	return out, nil
}

// load returns the texel nearest to uv, clamped to the edge.
func (t textureSet) load(role string, uv mgl32.Vec2) mgl32.Vec4 {
	st := t[role]
	if st == nil {
		return mgl32.Vec4{}
	}
	x := common.TexelIndex(uv[0], st.Width())
	y := common.TexelIndex(uv[1], st.Height())
	i := (y*st.Width() + x) * 4
	return mgl32.Vec4{st.color[i], st.color[i+1], st.color[i+2], st.color[i+3]}
}
