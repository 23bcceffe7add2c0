package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// Validate parses, lowers and validates WGSL source with naga, so a malformed program
// fails at registration instead of inside the driver's pipeline compiler.
//
// Parameters:
//   - source: the pre-processed WGSL source
//
// Returns:
//   - error: the first parse, lowering or validation error, or nil
func Validate(source string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return fmt.Errorf("shader: parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return fmt.Errorf("shader: lower: %w", err)
	}
	errs, err := naga.Validate(module)
	if err != nil {
		return fmt.Errorf("shader: validate: %w", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("shader: validate: %w (%d issues)", errs[0], len(errs))
	}
	return nil
}
