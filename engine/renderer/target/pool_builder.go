package target

import "github.com/rs/zerolog"

// PoolBuilderOption is a function that configures a Pool.
type PoolBuilderOption func(*poolImpl)

// WithLogger sets the logger target allocation is reported to.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - PoolBuilderOption: a function that sets the pool's logger
func WithLogger(logger zerolog.Logger) PoolBuilderOption {
	return func(p *poolImpl) {
		p.logger = logger.With().Str("component", "target_pool").Logger()
	}
}
