package target

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	Base
}

type fakeAllocator struct {
	allocated []string
	released  []string
	fail      error
}

func (a *fakeAllocator) AllocateTarget(spec Spec) (Target, error) {
	if a.fail != nil {
		return nil, a.fail
	}
	a.allocated = append(a.allocated, spec.Key)
	return &fakeTarget{Base: NewBase(spec)}, nil
}

func (a *fakeAllocator) ReleaseTarget(t Target) {
	a.released = append(a.released, t.Key())
}

func spec(key string) Spec {
	return Spec{Key: key, Width: 4, Height: 4, Format: FormatRGBA32Float}
}

func TestPoolCreate(t *testing.T) {
	alloc := &fakeAllocator{}
	p := NewPool(alloc)

	a, err := p.Create(spec("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", a.Key())
	assert.Equal(t, 4, a.Width())

	_, err = p.Create(spec("a"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = p.Create(Spec{Key: "bad", Width: 0, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidSpec)

	got, ok := p.Get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, []string{"a"}, alloc.allocated)
}

func TestPoolCreateAllocationFailure(t *testing.T) {
	boom := errors.New("out of memory")
	p := NewPool(&fakeAllocator{fail: boom})

	_, err := p.Create(spec("a"))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.Targets())
}

func TestPoolFrameLedger(t *testing.T) {
	p := NewPool(&fakeAllocator{})
	a, err := p.Create(spec("a"))
	require.NoError(t, err)
	b, err := p.Create(spec("b"))
	require.NoError(t, err)

	p.BeginFrame(1)
	assert.ErrorIs(t, p.NoteWrite(a), ErrNotCleared)
	require.NoError(t, p.NoteClear(a))
	assert.ErrorIs(t, p.NoteClear(a), ErrAlreadyCleared)
	assert.ErrorIs(t, p.NoteRead(a), ErrNotWritten)
	require.NoError(t, p.NoteWrite(a))
	require.NoError(t, p.NoteWrite(a))
	require.NoError(t, p.NoteRead(a))

	// Nothing carries over into the next frame.
	p.BeginFrame(2)
	assert.Equal(t, uint64(2), p.Frame())
	assert.ErrorIs(t, p.NoteRead(a), ErrNotWritten)
	require.NoError(t, p.NoteClear(a))
	require.NoError(t, p.NoteClear(b))
}

func TestPoolRejectsForeignTargets(t *testing.T) {
	p := NewPool(&fakeAllocator{})
	_, err := p.Create(spec("a"))
	require.NoError(t, err)

	impostor := &fakeTarget{Base: NewBase(spec("a"))}
	assert.ErrorIs(t, p.NoteClear(impostor), ErrUnknownTarget)
	assert.ErrorIs(t, p.NoteClear(nil), ErrUnknownTarget)
}

func TestPoolReleaseReverseOrder(t *testing.T) {
	alloc := &fakeAllocator{}
	p := NewPool(alloc)
	for _, k := range []string{"a", "b", "c"} {
		_, err := p.Create(spec(k))
		require.NoError(t, err)
	}

	p.Release()
	assert.Equal(t, []string{"c", "b", "a"}, alloc.released)
	assert.Empty(t, p.Targets())
}

func TestSpecSameShape(t *testing.T) {
	a := spec("a")
	b := spec("b")
	assert.True(t, a.SameShape(b))
	b.Depth = true
	assert.False(t, a.SameShape(b))
}
