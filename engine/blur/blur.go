// Package blur schedules the separable Gaussian blur that softens the projected shadow:
// two horizontal/vertical pairs ping-ponging between two scratch targets, the second
// pair at half the amount.
package blur

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Weights is the 9-tap kernel applied along each axis.
var Weights = shader.BlurWeights

// SourceRole is the input role of the blur program.
const SourceRole = "source"

// Direction is the axis a blur step runs along.
type Direction int

const (
	// Horizontal blurs along texture u.
	Horizontal Direction = iota
	// Vertical blurs along texture v.
	Vertical
)

func (d Direction) String() string {
	if d == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Vec2 returns the unit direction uploaded to the blur program.
func (d Direction) Vec2() mgl32.Vec2 {
	if d == Horizontal {
		return mgl32.Vec2{1, 0}
	}
	return mgl32.Vec2{0, 1}
}

var (
	// ErrTargetMismatch is returned when the scratch targets differ in shape or alias each other.
	ErrTargetMismatch = errors.New("blur: scratch targets must be distinct and share a spec")
	// ErrSourceAlias is returned when a scratch target is the blur source.
	ErrSourceAlias = errors.New("blur: scratch target aliases the source")
	// ErrNilTarget is returned when the source or a scratch target is nil.
	ErrNilTarget = errors.New("blur: nil target")
)

// Step is one blur sub-pass: read Source, write Dest along Direction.
type Step struct {
	Direction Direction
	Source    target.Target
	Dest      target.Target
	Amount    float32
}

// Resolution is the extent of the destination along the step's axis, which turns the
// amount into a texel step of Amount/Resolution in texture space.
func (s Step) Resolution() float32 {
	if s.Direction == Horizontal {
		return float32(s.Dest.Width())
	}
	return float32(s.Dest.Height())
}

// Uniforms returns the blur program uniforms for the step.
func (s Step) Uniforms() pass.Uniforms {
	return pass.Uniforms{
		"direction":  s.Direction.Vec2(),
		"radius":     s.Amount,
		"resolution": s.Resolution(),
	}
}

// Plan builds the fixed four-step schedule. The final image is in b.
//
// Parameters:
//   - source: the image to blur
//   - a: the first scratch target
//   - b: the second scratch target, same spec as a
//   - amount: the blur radius in texels of a full-resolution step
//
// Returns:
//   - []Step: H(source→a, amount), V(a→b, amount), H(b→a, amount/2), V(a→b, amount/2)
//   - error: ErrNilTarget, ErrTargetMismatch or ErrSourceAlias
func Plan(source, a, b target.Target, amount float32) ([]Step, error) {
	if source == nil || a == nil || b == nil {
		return nil, ErrNilTarget
	}
	if a == b || !a.Spec().SameShape(b.Spec()) {
		return nil, fmt.Errorf("%w: %s, %s", ErrTargetMismatch, a.Key(), b.Key())
	}
	if source == a || source == b {
		return nil, fmt.Errorf("%w: %s", ErrSourceAlias, source.Key())
	}

	half := amount / 2
	return []Step{
		{Direction: Horizontal, Source: source, Dest: a, Amount: amount},
		{Direction: Vertical, Source: a, Dest: b, Amount: amount},
		{Direction: Horizontal, Source: b, Dest: a, Amount: half},
		{Direction: Vertical, Source: a, Dest: b, Amount: half},
	}, nil
}

// Drawer executes resolved draws. The renderer satisfies it; the render graph wraps it to
// enforce the frame ledger.
type Drawer interface {
	Draw(d pass.Draw) error
}

// scheduler is the implementation of the Scheduler interface.
type scheduler struct {
	pass   pass.Pass
	drawer Drawer
	a, b   target.Target
	logger zerolog.Logger
}

// Scheduler runs blur schedules through a single blur pass, rebinding its input and output
// for every step.
type Scheduler interface {
	// Plan builds the schedule for a source using the scheduler's scratch targets.
	//
	// Parameters:
	//   - source: the image to blur
	//   - amount: the blur amount
	//
	// Returns:
	//   - []Step: the four steps
	//   - error: as Plan
	Plan(source target.Target, amount float32) ([]Step, error)

	// Execute draws one step.
	//
	// Parameters:
	//   - step: a step from Plan
	//
	// Returns:
	//   - error: a resolve or draw error
	Execute(step Step) error

	// Run plans and executes all four steps.
	//
	// Parameters:
	//   - source: the image to blur
	//   - amount: the blur amount; 0 degenerates to a copy
	//
	// Returns:
	//   - target.Target: the target holding the result, always the second scratch target
	//   - error: the first planning or draw error
	Run(source target.Target, amount float32) (target.Target, error)

	// Result returns the target the final step writes.
	//
	// Returns:
	//   - target.Target: the second scratch target
	Result() target.Target
}

var _ Scheduler = &scheduler{}

// NewScheduler creates a scheduler around a blur pass.
//
// Parameters:
//   - p: a pass drawing the blur program over a fullscreen quad into a target shaped like a
//   - drawer: where resolved draws go
//   - a: the first scratch target
//   - b: the second scratch target
//   - options: functional options to configure the scheduler
//
// Returns:
//   - Scheduler: the scheduler
//   - error: ErrNilTarget or ErrTargetMismatch
func NewScheduler(p pass.Pass, drawer Drawer, a, b target.Target, options ...SchedulerBuilderOption) (Scheduler, error) {
	if a == nil || b == nil {
		return nil, ErrNilTarget
	}
	if a == b || !a.Spec().SameShape(b.Spec()) {
		return nil, fmt.Errorf("%w: %s, %s", ErrTargetMismatch, a.Key(), b.Key())
	}
	s := &scheduler{
		pass:   p,
		drawer: drawer,
		a:      a,
		b:      b,
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = s.logger.With().Str("component", "blur").Logger()
	return s, nil
}

func (s *scheduler) Plan(source target.Target, amount float32) ([]Step, error) {
	return Plan(source, s.a, s.b, amount)
}

func (s *scheduler) Execute(step Step) error {
	d, err := s.pass.Resolve(pass.Invocation{
		Uniforms: step.Uniforms(),
		Inputs:   []pass.Binding{{Role: SourceRole, Target: step.Source}},
		Output:   step.Dest,
	})
	if err != nil {
		return fmt.Errorf("blur %s %s→%s: %w", step.Direction, step.Source.Key(), step.Dest.Key(), err)
	}
	if err := s.drawer.Draw(d); err != nil {
		return fmt.Errorf("blur %s %s→%s: %w", step.Direction, step.Source.Key(), step.Dest.Key(), err)
	}
	s.logger.Trace().
		Str("direction", step.Direction.String()).
		Str("source", step.Source.Key()).
		Str("dest", step.Dest.Key()).
		Float32("amount", step.Amount).
		Msg("blur step")
	return nil
}

func (s *scheduler) Run(source target.Target, amount float32) (target.Target, error) {
	steps, err := s.Plan(source, amount)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		if err := s.Execute(step); err != nil {
			return nil, err
		}
	}
	return s.b, nil
}

func (s *scheduler) Result() target.Target {
	return s.b
}
