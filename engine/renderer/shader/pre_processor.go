package shader

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed assets/include/*.wgsl
var includeFS embed.FS

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// snippets maps include keys to their WGSL source.
	snippets map[AnnotationArg]string

	// declarations accumulates input annotations during a Process call.
	declarations []Annotation
}

// PreProcessor expands @oxy: annotations in WGSL source and records the input
// declarations that tell the renderer which binding each pass input goes to.
type PreProcessor interface {
	// Process replaces @oxy:include annotations with their snippet source and records
	// @oxy:input annotations. Each snippet is included at most once; repeats are dropped.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or names an unknown snippet
	Process(source string) (string, error)

	// Declarations returns the input annotations collected by the most recent Process
	// call, in source order.
	//
	// Returns:
	//   - []Annotation: the input declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the embedded include snippets loaded.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	p := &preProcessor{snippets: make(map[AnnotationArg]string, len(validSnippets))}
	for _, key := range validSnippets {
		data, err := includeFS.ReadFile("assets/include/" + string(key) + ".wgsl")
		if err != nil {
			// the include set is compiled in, a missing file is a build defect
			panic(fmt.Sprintf("shader: missing include snippet %q: %v", key, err))
		}
		p.snippets[key] = string(data)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[AnnotationArg]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			key := a.Args[0]
			if included[key] {
				continue
			}
			included[key] = true
			out = append(out, strings.TrimRight(p.snippets[key], "\n"))
		case AnnotationTypeInput:
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
