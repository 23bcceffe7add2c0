package shadow

import (
	"math"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameInput is everything a frame depends on. The graph keeps no per-frame state of its
// own, so two frames with equal inputs produce equal images.
type FrameInput struct {
	// Tick is the driver tick the frame was built from. It numbers the frame in errors and logs.
	Tick uint64

	// ObjectModel places the shadow caster.
	ObjectModel mgl32.Mat4

	// PlaneModel places the ground plane.
	PlaneModel mgl32.Mat4

	// View and Projection belong to the camera the composite is seen through.
	View       mgl32.Mat4
	Projection mgl32.Mat4

	// BlurAmount is the blur radius in texels of the first blur pair. Zero copies.
	BlurAmount float32

	// BlurOpacity is the alpha written where the caster covers the ground, in [0, 1].
	BlurOpacity float32
}

// clamped returns the input with the blur amount floored at zero and the opacity clamped to [0, 1].
// NaN becomes zero for both, since min and max pass it through.
func (in FrameInput) clamped() FrameInput {
	in.BlurAmount = max(zeroNaN(in.BlurAmount), 0)
	in.BlurOpacity = common.Clamp(zeroNaN(in.BlurOpacity), 0, 1)
	return in
}

func zeroNaN(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	return v
}
