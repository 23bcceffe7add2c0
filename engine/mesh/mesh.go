// Package mesh holds the small indexed triangle meshes the shadow pipeline draws.
package mesh

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex attribute names. Shader vertex inputs are matched to mesh data by these names.
const (
	AttributePosition = "position"
	AttributeNormal   = "normal"
	AttributeUV       = "uv"
)

// Mesh is an indexed triangle list with optional per-vertex normals and texture coordinates.
// Counter-clockwise triangles (seen from the side their normal points to) are front faces.
type Mesh struct {
	// Name identifies the mesh in logs and GPU resource labels.
	Name string

	// Positions are the model-space vertex positions.
	Positions []mgl32.Vec3

	// Normals are unit vertex normals, empty or one per position.
	Normals []mgl32.Vec3

	// UVs are texture coordinates with v growing downward, empty or one per position.
	UVs []mgl32.Vec2

	// Indices lists three vertex indices per triangle.
	Indices []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int {
	return len(m.Indices)
}

// HasAttribute reports whether the mesh carries data for the named attribute.
func (m *Mesh) HasAttribute(name string) bool {
	switch name {
	case AttributePosition:
		return len(m.Positions) > 0
	case AttributeNormal:
		return len(m.Normals) > 0
	case AttributeUV:
		return len(m.UVs) > 0
	}
	return false
}

// Validate checks that attribute arrays line up and every index is in range.
//
// Returns:
//   - error: a description of the first inconsistency, or nil
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if n == 0 {
		return fmt.Errorf("mesh %q: no positions", m.Name)
	}
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("mesh %q: %d normals for %d positions", m.Name, len(m.Normals), n)
	}
	if len(m.UVs) != 0 && len(m.UVs) != n {
		return fmt.Errorf("mesh %q: %d uvs for %d positions", m.Name, len(m.UVs), n)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: index count %d is not a multiple of 3", m.Name, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("mesh %q: index %d at %d out of range", m.Name, idx, i)
		}
	}
	return nil
}

// Interleave packs the named attributes into a single vertex stream in the given order,
// the layout a vertex buffer bound at slot 0 expects.
//
// Parameters:
//   - names: attribute names in shader location order
//
// Returns:
//   - []float32: the interleaved vertex data
//   - int: the stride in floats
//   - error: if an attribute is unknown or missing from the mesh
func (m *Mesh) Interleave(names ...string) ([]float32, int, error) {
	stride := 0
	for _, name := range names {
		if !m.HasAttribute(name) {
			return nil, 0, fmt.Errorf("mesh %q: missing attribute %q", m.Name, name)
		}
		stride += attributeWidth(name)
	}

	out := make([]float32, 0, stride*len(m.Positions))
	for i := range m.Positions {
		for _, name := range names {
			switch name {
			case AttributePosition:
				out = append(out, m.Positions[i][:]...)
			case AttributeNormal:
				out = append(out, m.Normals[i][:]...)
			case AttributeUV:
				out = append(out, m.UVs[i][:]...)
			}
		}
	}
	return out, stride, nil
}

// BoundingRadius returns the largest distance of any vertex from the model origin.
func (m *Mesh) BoundingRadius() float32 {
	var maxDistSq float32
	for _, p := range m.Positions {
		maxDistSq = max(maxDistSq, p.Dot(p))
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// Triangle returns the three positions of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	return m.Positions[m.Indices[i*3]], m.Positions[m.Indices[i*3+1]], m.Positions[m.Indices[i*3+2]]
}

func attributeWidth(name string) int {
	if name == AttributeUV {
		return 2
	}
	return 3
}

// Cube returns an axis-aligned cube of edge length size centered on the origin, with
// 24 vertices so each face carries its own normal.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - *Mesh: the cube mesh
func Cube(size float32) *Mesh {
	h := size / 2
	x, y, z := mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}

	// For every face u x v = normal, which keeps the corner order counter-clockwise.
	faces := []struct{ normal, u, v mgl32.Vec3 }{
		{normal: x, u: y, v: z},
		{normal: x.Mul(-1), u: z, v: y},
		{normal: y, u: z, v: x},
		{normal: y.Mul(-1), u: x, v: z},
		{normal: z, u: x, v: y},
		{normal: z.Mul(-1), u: y, v: x},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	m := &Mesh{Name: "cube"}
	for fi, f := range faces {
		for ci, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(h)
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, f.normal)
			m.UVs = append(m.UVs, uvs[ci])
		}
		base := uint32(fi * 4)
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// Plane returns a unit quad in the local XY plane, centered on the origin, whose front
// face points down local -Z. The usual placement rotates it 90 degrees about X so the
// front face points up +Y. UVs are (x + 0.5, y + 0.5), which after that rotation is
// (X, Z) normalized over the plane.
//
// Returns:
//   - *Mesh: the plane mesh
func Plane() *Mesh {
	// Corner order is counter-clockwise seen from -Z.
	positions := []mgl32.Vec3{{-0.5, -0.5, 0}, {-0.5, 0.5, 0}, {0.5, 0.5, 0}, {0.5, -0.5, 0}}
	m := &Mesh{Name: "plane", Indices: []uint32{0, 1, 2, 0, 2, 3}}
	for _, p := range positions {
		m.Positions = append(m.Positions, p)
		m.Normals = append(m.Normals, mgl32.Vec3{0, 0, -1})
		m.UVs = append(m.UVs, mgl32.Vec2{p.X() + 0.5, p.Y() + 0.5})
	}
	return m
}

// FullscreenQuad returns two triangles covering normalized device coordinates, with UVs
// matching the texel each fragment lands on. Passes that read a whole target use it.
//
// Returns:
//   - *Mesh: the quad mesh
func FullscreenQuad() *Mesh {
	positions := []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	m := &Mesh{Name: "fullscreen_quad", Indices: []uint32{0, 1, 2, 0, 2, 3}}
	for _, p := range positions {
		m.Positions = append(m.Positions, p)
		m.Normals = append(m.Normals, mgl32.Vec3{0, 0, 1})
		m.UVs = append(m.UVs, common.NDCToUV(mgl32.Vec2{p.X(), p.Y()}))
	}
	return m
}
