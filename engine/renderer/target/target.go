// Package target describes offscreen render targets and the pool that owns them for the
// lifetime of a render pipeline.
package target

import (
	"errors"
	"fmt"
)

// Format is the texel format of a target's color attachment.
type Format int

const (
	// FormatRGBA32Float stores four 32-bit float channels per texel.
	FormatRGBA32Float Format = iota
)

func (f Format) String() string {
	switch f {
	case FormatRGBA32Float:
		return "rgba32float"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// BytesPerTexel returns the size of a single texel.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRGBA32Float:
		return 16
	}
	return 0
}

// Channels returns the number of components per texel.
func (f Format) Channels() int {
	return 4
}

var (
	// ErrInvalidSpec is returned for specs with an empty key, a non-positive size or an unknown format.
	ErrInvalidSpec = errors.New("invalid target spec")
	// ErrDuplicateKey is returned when a key is already taken in the pool.
	ErrDuplicateKey = errors.New("duplicate target key")
	// ErrUnknownTarget is returned for targets the pool did not create.
	ErrUnknownTarget = errors.New("unknown target")
	// ErrAlreadyCleared is returned when a target is cleared twice in one frame.
	ErrAlreadyCleared = errors.New("target already cleared this frame")
	// ErrNotCleared is returned when a pass writes a target that was not cleared this frame.
	ErrNotCleared = errors.New("target not cleared this frame")
	// ErrNotWritten is returned when a pass reads a target no pass has written this frame.
	ErrNotWritten = errors.New("target not written this frame")
)

// Spec describes a target. It is fixed when the target is created.
type Spec struct {
	// Key names the target uniquely within its pool.
	Key string
	// Width is the horizontal resolution in texels.
	Width int
	// Height is the vertical resolution in texels.
	Height int
	// Format is the color attachment format.
	Format Format
	// Depth attaches a depth buffer used for depth testing while drawing into the target.
	Depth bool
}

// Validate checks the spec for values no backend can allocate.
//
// Returns:
//   - error: wrapping ErrInvalidSpec, or nil
func (s Spec) Validate() error {
	switch {
	case s.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidSpec)
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: %q has size %dx%d", ErrInvalidSpec, s.Key, s.Width, s.Height)
	case s.Format.BytesPerTexel() == 0:
		return fmt.Errorf("%w: %q has format %s", ErrInvalidSpec, s.Key, s.Format)
	}
	return nil
}

// SameShape reports whether two specs describe interchangeable attachments.
func (s Spec) SameShape(o Spec) bool {
	return s.Width == o.Width && s.Height == o.Height && s.Format == o.Format && s.Depth == o.Depth
}

// Target is an allocated offscreen render target. Backends return their own
// implementations; code outside the backend only sees this interface.
type Target interface {
	// Key returns the unique key of the target.
	//
	// Returns:
	//   - string: the key
	Key() string

	// Spec returns the spec the target was created from.
	//
	// Returns:
	//   - Spec: the target spec
	Spec() Spec

	// Width returns the horizontal resolution in texels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the vertical resolution in texels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// HasDepth reports whether the target carries a depth attachment.
	//
	// Returns:
	//   - bool: true if a depth buffer is attached
	HasDepth() bool
}

// Allocator creates and frees backend resources for targets. The renderer implements it.
type Allocator interface {
	// AllocateTarget creates the backend resources for a spec.
	//
	// Parameters:
	//   - spec: the target description
	//
	// Returns:
	//   - Target: the allocated target
	//   - error: if the backend cannot allocate it
	AllocateTarget(spec Spec) (Target, error)

	// ReleaseTarget frees the backend resources of a target.
	//
	// Parameters:
	//   - t: a target returned by AllocateTarget
	ReleaseTarget(t Target)
}

// Base implements the descriptive half of Target. Backends embed it in their target types.
type Base struct {
	spec Spec
}

// NewBase wraps a spec.
func NewBase(spec Spec) Base {
	return Base{spec: spec}
}

func (b Base) Key() string { return b.spec.Key }
func (b Base) Spec() Spec { return b.spec }
func (b Base) Width() int { return b.spec.Width }
func (b Base) Height() int { return b.spec.Height }
func (b Base) HasDepth() bool { return b.spec.Depth }
