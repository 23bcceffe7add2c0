// Package profiler reports frame rate, memory and per-stage frame timings through zerolog.
package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Profiler tracks frame rate, memory statistics and the time spent in each named stage of
// a frame. It logs a report every update interval.
type Profiler struct {
	mu *sync.Mutex

	logger zerolog.Logger
	now    func() time.Time

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stage      string
	stageStart time.Time
	stages     map[string]time.Duration
	order      []string
}

// NewProfiler creates a profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		logger:         zerolog.Nop(),
		now:            time.Now,
		updateInterval: time.Second,
		stages:         make(map[string]time.Duration),
	}
	for _, option := range options {
		option(p)
	}
	p.logger = p.logger.With().Str("component", "profiler").Logger()
	p.lastTime = p.now()
	return p
}

// Mark ends the running stage and starts the named one. An empty name only ends the
// running stage.
//
// Parameters:
//   - stage: the stage starting now, or ""
func (p *Profiler) Mark(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.stage != "" {
		if _, seen := p.stages[p.stage]; !seen {
			p.order = append(p.order, p.stage)
		}
		p.stages[p.stage] += now.Sub(p.stageStart)
	}
	p.stage = stage
	p.stageStart = now
}

// StageTimes returns the time accumulated per stage since the last report.
//
// Returns:
//   - map[string]time.Duration: stage name to total time
func (p *Profiler) StageTimes() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.stages))
	for k, v := range p.stages {
		out[k] = v
	}
	return out
}

// Tick should be called once per frame. When the update interval has elapsed it logs
// FPS, heap usage, allocation rate, GC pauses and the mean time per frame of every stage,
// then starts a new interval.
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	now := p.now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a ring of the last 256 pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	stages := zerolog.Dict()
	for _, name := range p.order {
		stages.Float64(name, float64(p.stages[name].Microseconds())/1000/float64(p.frameCount))
	}

	p.logger.Info().
		Float64("fps", fps).
		Float64("heap_mb", allocMB).
		Float64("alloc_rate_mb_s", allocRateMB).
		Uint32("gc", gcCount).
		Uint64("gc_last_us", lastPauseUs).
		Uint64("gc_max_us", maxPauseUs).
		Float64("sys_mb", sysMB).
		Dict("stage_ms", stages).
		Msg("frame stats")

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.stages = make(map[string]time.Duration)
	p.order = nil
	return true
}
