package profiler

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProfiler(buf *bytes.Buffer) (*Profiler, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithLogger(zerolog.New(buf)), WithUpdateInterval(time.Second))
	p.now = clock.now
	p.lastTime = clock.now()
	return p, clock
}

func TestMarkAccumulatesStages(t *testing.T) {
	p, clock := newTestProfiler(&bytes.Buffer{})

	for range 2 {
		p.Mark("DepthCapture")
		clock.advance(2 * time.Millisecond)
		p.Mark("Composite")
		clock.advance(3 * time.Millisecond)
		p.Mark("")
		clock.advance(10 * time.Millisecond)
	}

	times := p.StageTimes()
	assert.Equal(t, 4*time.Millisecond, times["DepthCapture"])
	assert.Equal(t, 6*time.Millisecond, times["Composite"])
	assert.Len(t, times, 2)
}

func TestTickReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	p, clock := newTestProfiler(&buf)

	p.Mark("Blur")
	clock.advance(4 * time.Millisecond)
	p.Mark("")

	clock.advance(396 * time.Millisecond)
	assert.False(t, p.Tick())
	assert.Zero(t, buf.Len())

	clock.advance(600 * time.Millisecond)
	require.True(t, p.Tick())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame stats", entry["message"])
	assert.Equal(t, "profiler", entry["component"])
	assert.InDelta(t, 2.0, entry["fps"], 1e-9)
	stages, ok := entry["stage_ms"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2.0, stages["Blur"], 1e-9)

	// a report starts a new interval
	assert.Empty(t, p.StageTimes())
	assert.False(t, p.Tick())
}
