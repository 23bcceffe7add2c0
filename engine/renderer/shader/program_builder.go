package shader

// ProgramBuilderOption is a function that configures a program during NewProgram.
type ProgramBuilderOption func(*program)

// WithValidation runs the pre-processed source through Validate before parsing.
//
// Parameters:
//   - enabled: true to validate with naga
//
// Returns:
//   - ProgramBuilderOption: a function that applies the option to a program
func WithValidation(enabled bool) ProgramBuilderOption {
	return func(p *program) {
		if enabled {
			p.validator = Validate
		} else {
			p.validator = nil
		}
	}
}

// WithValidator runs the pre-processed source through fn before parsing. A nil fn
// disables validation.
//
// Parameters:
//   - fn: the validation function, usually Validate
//
// Returns:
//   - ProgramBuilderOption: a function that applies the option to a program
func WithValidator(fn func(source string) error) ProgramBuilderOption {
	return func(p *program) {
		p.validator = fn
	}
}

// WithPreProcessor replaces the default pre-processor.
//
// Parameters:
//   - pp: the pre-processor to use
//
// Returns:
//   - ProgramBuilderOption: a function that applies the option to a program
func WithPreProcessor(pp PreProcessor) ProgramBuilderOption {
	return func(p *program) {
		p.pp = pp
	}
}
