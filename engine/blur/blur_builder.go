package blur

import "github.com/rs/zerolog"

// SchedulerBuilderOption is a functional option applied to a scheduler via NewScheduler.
type SchedulerBuilderOption func(*scheduler)

// WithLogger sets the logger blur steps are traced to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the logger option to a scheduler
func WithLogger(logger zerolog.Logger) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.logger = logger
	}
}
