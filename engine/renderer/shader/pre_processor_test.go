package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantNil bool
		wantErr bool
	}{
		{name: "plain code", line: "let x = 1.0;", wantNil: true},
		{name: "plain comment", line: "// nothing to see", wantNil: true},
		{name: "include", line: "//@oxy:include texel"},
		{name: "input", line: "  //@oxy:input 1 2 depth_map"},
		{name: "empty", line: "//@oxy:", wantErr: true},
		{name: "unknown snippet", line: "//@oxy:include camera", wantErr: true},
		{name: "include arity", line: "//@oxy:include texel vertex", wantErr: true},
		{name: "bad group", line: "//@oxy:input x 1 source", wantErr: true},
		{name: "bad binding", line: "//@oxy:input 0 y source", wantErr: true},
		{name: "unknown role", line: "//@oxy:input 0 1 albedo", wantErr: true},
		{name: "unknown type", line: "//@oxy:group 0 0 uniform u camera", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnnotation(tt.line, 7)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "line 7")
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, a)
				return
			}
			assert.NotNil(t, a)
		})
	}

	a, err := parseAnnotation("//@oxy:input 1 2 depth_map", 3)
	require.NoError(t, err)
	assert.Equal(t, AnnotationTypeInput, a.Type)
	assert.Equal(t, "depth_map", a.Role())
	assert.Equal(t, 1, *a.Group)
	assert.Equal(t, 2, *a.Binding)
	assert.Equal(t, 3, a.Line)
}

func TestPreProcessorProcess(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(strings.Join([]string{
		"//@oxy:include texel",
		"//@oxy:include texel",
		"//@oxy:include transform",
		"//@oxy:input 0 1 source",
		"@group(0) @binding(1) var source: texture_2d<f32>;",
	}, "\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "fn nearest_texel"))
	assert.Contains(t, out, "struct TransformUniforms")
	assert.Contains(t, out, "var source: texture_2d<f32>;")
	assert.NotContains(t, out, "@oxy:")

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "source", decls[0].Role())
	assert.Equal(t, 4, decls[0].Line)

	_, err = pp.Process("//@oxy:include nope")
	assert.Error(t, err)

	_, err = pp.Process("fn main() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}
