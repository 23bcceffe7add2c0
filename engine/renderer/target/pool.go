package target

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

type frameUse struct {
	cleared bool
	written bool
}

type poolImpl struct {
	mu *sync.Mutex

	allocator Allocator
	logger    zerolog.Logger

	targets []Target
	byKey   map[string]Target

	frame uint64
	uses  map[string]*frameUse
}

// Pool owns the offscreen targets of a pipeline. Targets are created once and never
// resized. The pool also keeps a per-frame ledger that enforces the frame discipline:
// every target is cleared exactly once before any pass writes it, and no pass reads a
// target that was not written earlier in the same frame.
type Pool interface {
	// Create allocates a new target.
	//
	// Parameters:
	//   - spec: the target description; its key must be unique in the pool
	//
	// Returns:
	//   - Target: the allocated target
	//   - error: ErrInvalidSpec, ErrDuplicateKey or the allocator's error
	Create(spec Spec) (Target, error)

	// Get looks a target up by key.
	//
	// Parameters:
	//   - key: the target key
	//
	// Returns:
	//   - Target: the target, or nil
	//   - bool: whether the key exists
	Get(key string) (Target, bool)

	// Targets returns all targets in creation order.
	//
	// Returns:
	//   - []Target: the targets
	Targets() []Target

	// BeginFrame resets the ledger for a new frame.
	//
	// Parameters:
	//   - frame: the frame number, used in errors and logs
	BeginFrame(frame uint64)

	// Frame returns the frame number passed to the last BeginFrame.
	//
	// Returns:
	//   - uint64: the current frame number
	Frame() uint64

	// NoteClear records a clear.
	//
	// Parameters:
	//   - t: the target being cleared
	//
	// Returns:
	//   - error: ErrAlreadyCleared or ErrUnknownTarget
	NoteClear(t Target) error

	// NoteWrite records a pass writing the target.
	//
	// Parameters:
	//   - t: the output target of the pass
	//
	// Returns:
	//   - error: ErrNotCleared or ErrUnknownTarget
	NoteWrite(t Target) error

	// NoteRead records a pass sampling the target.
	//
	// Parameters:
	//   - t: an input target of the pass
	//
	// Returns:
	//   - error: ErrNotWritten or ErrUnknownTarget
	NoteRead(t Target) error

	// Release frees every target in reverse creation order and empties the pool.
	Release()
}

var _ Pool = &poolImpl{}

// NewPool creates an empty pool that allocates through alloc.
//
// Parameters:
//   - alloc: the backend allocator
//   - options: functional options to configure the pool
//
// Returns:
//   - Pool: the newly created pool
func NewPool(alloc Allocator, options ...PoolBuilderOption) Pool {
	p := &poolImpl{
		mu:        &sync.Mutex{},
		allocator: alloc,
		logger:    zerolog.Nop(),
		byKey:     make(map[string]Target),
		uses:      make(map[string]*frameUse),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *poolImpl) Create(spec Spec) (Target, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byKey[spec.Key]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, spec.Key)
	}
	t, err := p.allocator.AllocateTarget(spec)
	if err != nil {
		return nil, fmt.Errorf("allocate target %q: %w", spec.Key, err)
	}

	p.targets = append(p.targets, t)
	p.byKey[spec.Key] = t
	p.uses[spec.Key] = &frameUse{}
	p.logger.Debug().
		Str("target", spec.Key).
		Int("width", spec.Width).
		Int("height", spec.Height).
		Bool("depth", spec.Depth).
		Msg("target created")
	return t, nil
}

func (p *poolImpl) Get(key string) (Target, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.byKey[key]
	return t, ok
}

func (p *poolImpl) Targets() []Target {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Target, len(p.targets))
	copy(out, p.targets)
	return out
}

func (p *poolImpl) BeginFrame(frame uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = frame
	for _, u := range p.uses {
		*u = frameUse{}
	}
}

func (p *poolImpl) Frame() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

func (p *poolImpl) NoteClear(t Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.use(t)
	if err != nil {
		return err
	}
	if u.cleared {
		return fmt.Errorf("%w: %q in frame %d", ErrAlreadyCleared, t.Key(), p.frame)
	}
	u.cleared = true
	return nil
}

func (p *poolImpl) NoteWrite(t Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.use(t)
	if err != nil {
		return err
	}
	if !u.cleared {
		return fmt.Errorf("%w: %q in frame %d", ErrNotCleared, t.Key(), p.frame)
	}
	u.written = true
	return nil
}

func (p *poolImpl) NoteRead(t Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.use(t)
	if err != nil {
		return err
	}
	if !u.written {
		return fmt.Errorf("%w: %q in frame %d", ErrNotWritten, t.Key(), p.frame)
	}
	return nil
}

func (p *poolImpl) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.targets) - 1; i >= 0; i-- {
		p.allocator.ReleaseTarget(p.targets[i])
	}
	p.targets = nil
	p.byKey = make(map[string]Target)
	p.uses = make(map[string]*frameUse)
}

// use returns the ledger entry of a pool-owned target.
// Caller must hold the mutex.
func (p *poolImpl) use(t Target) (*frameUse, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnknownTarget)
	}
	if owned, ok := p.byKey[t.Key()]; !ok || owned != t {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, t.Key())
	}
	return p.uses[t.Key()], nil
}
