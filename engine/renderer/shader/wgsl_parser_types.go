package shader

import "github.com/cogentcore/webgpu/wgpu"

// VertexAttribute is one @location input of a vertex entry point, in buffer order.
type VertexAttribute struct {
	// Name is the struct field name; it selects the mesh attribute with the same name.
	Name string
	// Location is the @location index.
	Location uint32
	// Format is the wgpu vertex format of the field.
	Format wgpu.VertexFormat
	// Offset is the byte offset inside the interleaved vertex.
	Offset uint64
}

// UniformField is a member of a uniform struct at its WGSL-layout byte offset.
type UniformField struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// UniformLayout is the memory layout of a var<uniform> binding.
type UniformLayout struct {
	// Group and Binding locate the buffer.
	Group, Binding int
	// Var is the WGSL variable name.
	Var string
	// Type is the WGSL struct name.
	Type string
	// Size is the struct size rounded up to its alignment.
	Size uint64
	// Fields are the struct members in declaration order.
	Fields []UniformField
}

// TextureBinding is a sampled texture declared by a program.
type TextureBinding struct {
	Group, Binding int
	Var            string
}

// vertexFormatInfo holds the wgpu vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// parsedBinding is one @group/@binding declaration.
type parsedBinding struct {
	group, binding int
	addressSpace   string
	varName        string
	typeName       string
}
