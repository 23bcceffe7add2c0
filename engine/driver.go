package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"github.com/Carmen-Shannon/oxy-shadow/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Tunables are the values a user adjusts while the demo runs.
type Tunables struct {
	// BlurAmount is the blur radius in texels.
	BlurAmount float32 `json:"blur_amount"`
	// BlurOpacity is the alpha of the unblurred shadow.
	BlurOpacity float32 `json:"blur_opacity"`
	// PlaneOffset moves the ground plane vertically from its base position.
	PlaneOffset float32 `json:"plane_offset"`
	// Paused stops the object's rotation.
	Paused bool `json:"paused"`
}

// KeySteps are the per-key-press increments of the tunables.
type KeySteps struct {
	BlurAmount  float32
	BlurOpacity float32
	PlaneOffset float32
}

// Frame is a snapshot of the driver's state for one tick.
type Frame struct {
	Tick     uint64
	Object   transform.Transform
	Plane    transform.Transform
	Tunables Tunables
}

// Input turns the snapshot into the shadow graph's frame input.
//
// Parameters:
//   - view: the viewing camera's view matrix
//   - projection: the viewing camera's projection matrix
//
// Returns:
//   - shadow.FrameInput: the input for one Render call
func (f Frame) Input(view, projection mgl32.Mat4) shadow.FrameInput {
	return shadow.FrameInput{
		Tick:        f.Tick,
		ObjectModel: transform.Resolve(f.Object),
		PlaneModel:  transform.Resolve(f.Plane),
		View:        view,
		Projection:  projection,
		BlurAmount:  f.Tunables.BlurAmount,
		BlurOpacity: f.Tunables.BlurOpacity,
	}
}

type driver struct {
	mu *sync.Mutex

	tick     uint64
	object   transform.Transform
	plane    transform.Transform
	tunables Tunables

	initialObject   transform.Transform
	initialTunables Tunables

	rotationStep mgl32.Vec3
	keySteps     KeySteps

	logger zerolog.Logger
}

// Driver owns the only mutable scene state: the object's transform, which it advances
// every tick, and the tunables. The render loop reads it through Frame snapshots.
type Driver interface {
	// Tick advances the driver by one tick, rotating the object unless paused.
	//
	// Returns:
	//   - Frame: the state after the tick
	Tick() Frame

	// Frame returns the current state without advancing.
	//
	// Returns:
	//   - Frame: the snapshot
	Frame() Frame

	// Tunables returns the current tunables.
	//
	// Returns:
	//   - Tunables: the values
	Tunables() Tunables

	// SetTunables replaces the tunables. The blur amount is floored at zero and the
	// opacity clamped to [0, 1].
	//
	// Parameters:
	//   - t: the new values
	SetTunables(t Tunables)

	// HandleKey applies the tunable bound to a key: up/down blur amount, right/left
	// opacity, page up/down plane offset, space pause and R reset.
	//
	// Parameters:
	//   - keyCode: a common.Key* code
	//
	// Returns:
	//   - bool: whether the key is bound
	HandleKey(keyCode uint32) bool

	// Reset restores the initial object transform and tunables. The tick count is kept.
	Reset()
}

var _ Driver = &driver{}

// NewDriver creates a driver with the object at the origin, the ground plane at
// T(0, -0.75, 0) R(90, 0, 0) S(10, 10, 1) and a rotation of one degree per tick about Y.
//
// Parameters:
//   - options: functional options to configure the driver
//
// Returns:
//   - Driver: the driver
func NewDriver(options ...DriverBuilderOption) Driver {
	d := &driver{
		mu:     &sync.Mutex{},
		object: transform.NewTransform(),
		plane: transform.NewTransform(
			transform.WithTranslation(mgl32.Vec3{0, -0.75, 0}),
			transform.WithRotation(mgl32.Vec3{90, 0, 0}),
			transform.WithScale(mgl32.Vec3{10, 10, 1}),
		),
		tunables:     Tunables{BlurAmount: 5, BlurOpacity: 0.75},
		rotationStep: mgl32.Vec3{0, 1, 0},
		keySteps:     KeySteps{BlurAmount: 0.5, BlurOpacity: 0.05, PlaneOffset: 0.05},
		logger:       zerolog.Nop(),
	}
	for _, option := range options {
		option(d)
	}
	d.logger = d.logger.With().Str("component", "driver").Logger()
	d.tunables = clampTunables(d.tunables)
	d.initialObject = d.object
	d.initialTunables = d.tunables
	return d
}

func (d *driver) Tick() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tick++
	if !d.tunables.Paused {
		d.object = d.object.Rotate(d.rotationStep)
	}
	return d.snapshot()
}

func (d *driver) Frame() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

func (d *driver) Tunables() Tunables {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tunables
}

func (d *driver) SetTunables(t Tunables) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tunables = clampTunables(t)
}

func (d *driver) HandleKey(keyCode uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := d.tunables
	switch keyCode {
	case common.KeyUp:
		t.BlurAmount += d.keySteps.BlurAmount
	case common.KeyDown:
		t.BlurAmount -= d.keySteps.BlurAmount
	case common.KeyRight:
		t.BlurOpacity += d.keySteps.BlurOpacity
	case common.KeyLeft:
		t.BlurOpacity -= d.keySteps.BlurOpacity
	case common.KeyPageUp:
		t.PlaneOffset += d.keySteps.PlaneOffset
	case common.KeyPageDown:
		t.PlaneOffset -= d.keySteps.PlaneOffset
	case common.KeySpace:
		t.Paused = !t.Paused
	case common.KeyR:
		d.object = d.initialObject
		t = d.initialTunables
	default:
		return false
	}
	d.tunables = clampTunables(t)
	d.logger.Debug().Interface("tunables", d.tunables).Msg("tunables changed")
	return true
}

func (d *driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.object = d.initialObject
	d.tunables = d.initialTunables
}

// snapshot copies the state with the plane offset applied.
// Caller must hold the mutex.
func (d *driver) snapshot() Frame {
	return Frame{
		Tick:     d.tick,
		Object:   d.object,
		Plane:    d.plane.Translate(mgl32.Vec3{0, d.tunables.PlaneOffset, 0}),
		Tunables: d.tunables,
	}
}

func clampTunables(t Tunables) Tunables {
	t.BlurAmount = max(t.BlurAmount, 0)
	t.BlurOpacity = common.Clamp(t.BlurOpacity, 0, 1)
	return t
}
