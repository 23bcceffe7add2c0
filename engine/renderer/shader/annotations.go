// annotations.go defines the @oxy: annotations understood by the WGSL pre-processor.
// Annotations are single-line WGSL comments. An include pulls a shared snippet from
// assets/include into the source; an input names a sampled texture binding so passes
// can bind targets by role instead of by group and binding index.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an Oxy annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a shared WGSL snippet at the annotation site.
	//
	// Syntax: //@oxy:include <snippet>
	//
	// Example: //@oxy:include texel
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeInput declares the role of the hand-written texture binding below it.
	// It produces no WGSL output and is recorded in the pre-processor's declarations.
	//
	// Syntax: //@oxy:input <group> <binding> <role>
	//
	// Example: //@oxy:input 0 1 depth_map
	AnnotationTypeInput AnnotationType = "input"
)

// Annotation is a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments:
	//   - include: [0] = snippet key
	//   - input:   [0] = input role
	Args []AnnotationArg

	// Line is the 1-based source line of the annotation.
	Line int

	// Group is the @group index for input annotations. Nil for includes.
	Group *int

	// Binding is the @binding index for input annotations. Nil for includes.
	Binding *int
}

// Role returns the input role of an input annotation, or "" for other annotation types.
func (a Annotation) Role() string {
	if a.Type != AnnotationTypeInput || len(a.Args) == 0 {
		return ""
	}
	return string(a.Args[0])
}

// AnnotationArg is a typed annotation argument.
type AnnotationArg string

// Snippet keys accepted by @oxy:include. Each has a file under assets/include.
const (
	// annotationArgVertex is the VertexInput struct for 3D meshes (position, normal, uv).
	annotationArgVertex AnnotationArg = "vertex"

	// annotationArgFullscreenVertex is the VertexInput struct for the fullscreen quad (position, uv).
	annotationArgFullscreenVertex AnnotationArg = "fullscreen_vertex"

	// annotationArgTransform is the TransformUniforms struct (model, view, projection).
	annotationArgTransform AnnotationArg = "transform"

	// annotationArgTexel is the nearest_texel helper shared by every sampling program.
	annotationArgTexel AnnotationArg = "texel"
)

// Input roles accepted by @oxy:input. Passes bind targets under these names.
const (
	// AnnotationArgDepthMap is the depth-capture target read by the projection pass.
	AnnotationArgDepthMap AnnotationArg = "depth_map"

	// AnnotationArgSource is the texture a blur step reads.
	AnnotationArgSource AnnotationArg = "source"

	// AnnotationArgShadowMap is the blurred shadow read by the composite pass.
	AnnotationArgShadowMap AnnotationArg = "shadow_map"
)

var validSnippets = []AnnotationArg{
	annotationArgVertex,
	annotationArgFullscreenVertex,
	annotationArgTransform,
	annotationArgTexel,
}

var validInputRoles = []AnnotationArg{
	AnnotationArgDepthMap,
	AnnotationArgSource,
	AnnotationArgShadowMap,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Lines without the prefix return nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validSnippets, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown snippet %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeInput:
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @oxy input annotation requires three arguments (group, binding, role)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %w", lineNum, args[1], err)
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q: %w", lineNum, args[2], err)
		}
		if !slices.Contains(validInputRoles, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown input role %q in @oxy input annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeInput,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}
}
