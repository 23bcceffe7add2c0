package shadow

import "fmt"

// State is a step of the per-frame state machine.
type State int

const (
	StateIdle State = iota
	StateClearTargets
	StateDepthCapture
	StateShadowProjection
	StateBlurHorizontal1
	StateBlurVertical1
	StateBlurHorizontal2
	StateBlurVertical2
	StateComposite
)

// FrameStates is the order a frame walks through, excluding the Idle state it starts and
// ends in.
var FrameStates = []State{
	StateClearTargets,
	StateDepthCapture,
	StateShadowProjection,
	StateBlurHorizontal1,
	StateBlurVertical1,
	StateBlurHorizontal2,
	StateBlurVertical2,
	StateComposite,
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateClearTargets:
		return "ClearTargets"
	case StateDepthCapture:
		return "DepthCapture"
	case StateShadowProjection:
		return "ShadowProjection"
	case StateBlurHorizontal1:
		return "BlurHorizontal1"
	case StateBlurVertical1:
		return "BlurVertical1"
	case StateBlurHorizontal2:
		return "BlurHorizontal2"
	case StateBlurVertical2:
		return "BlurVertical2"
	case StateComposite:
		return "Composite"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
