package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"github.com/Carmen-Shannon/oxy-shadow/engine/window"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by Run and RenderFrame without a graph and a driver.
var ErrNotConfigured = errors.New("engine: graph and driver are required")

// engine implements the Engine interface.
// Coordinates the tick, render and window loops.
type engine struct {
	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer renderer.Renderer
	graph    shadow.Graph
	driver   Driver

	// camMu serializes the view camera and its controller between input callbacks and the render loop.
	camMu *sync.Mutex
	view  camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration
	frames           atomic.Uint64
	failedFrames     atomic.Uint64

	logger zerolog.Logger
}

// Engine drives the shadow demo: a fixed-rate tick loop advances the driver, a render
// loop turns driver snapshots into graph frames, and the window loop feeds input back.
type Engine interface {
	// Window returns the window, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// Renderer returns the renderer the graph draws with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Graph returns the shadow graph.
	//
	// Returns:
	//   - shadow.Graph: the graph
	Graph() shadow.Graph

	// Driver returns the frame driver.
	//
	// Returns:
	//   - Driver: the driver
	Driver() Driver

	// EnableProfiler enables profiler reports.
	EnableProfiler()

	// DisableProfiler disables profiler reports.
	DisableProfiler()

	// SetTickRate sets the driver tick rate. It takes effect immediately on a running engine.
	//
	// Parameters:
	//   - fps: ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called after every driver tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers a function called after every rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RenderFrame renders one frame from the driver's current snapshot on the calling
	// goroutine. The view camera is used when set, the graph's plane camera otherwise.
	//
	// Returns:
	//   - error: ErrNotConfigured or the graph's frame error
	RenderFrame() error

	// Frames returns the number of frames rendered successfully.
	//
	// Returns:
	//   - uint64: the count
	Frames() uint64

	// Run starts the loops and blocks until Quit is called or the window closes. With a
	// window it must be called from the goroutine that created the window, and Quit also
	// closes the window.
	//
	// Returns:
	//   - error: ErrNotConfigured
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call more than once.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine. When a window is given its resize, scroll, drag and key
// callbacks are wired to the renderer, the view camera, the driver and the graph.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		camMu:           &sync.Mutex{},
		engineTickRate:  time.Second / 60,
		logger:          zerolog.Nop(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.window != nil {
		e.wireWindow()
	}
	return e
}

// wireWindow connects the window's input to the engine's collaborators.
func (e *engine) wireWindow() {
	// Quit from another goroutine closes the window on the message loop's goroutine once
	// the tick and render loops have stopped.
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.wg.Wait()
			if err := e.window.Close(); err != nil {
				e.logger.Warn().Err(err).Msg("window close failed")
			}
		default:
		}
	})
	e.window.SetResizeCallback(func(width, height int) {
		if e.renderer != nil {
			e.renderer.Resize(width, height)
		}
		e.camMu.Lock()
		defer e.camMu.Unlock()
		if e.view != nil && height > 0 {
			e.view.SetAspect(float32(width) / float32(height))
		}
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.withController(func(c camera.CameraController) { c.Zoom(delta) })
	})
	e.window.SetDragCallback(func(dx, dy float32) {
		e.withController(func(c camera.CameraController) { c.Orbit(-dx, dy) })
	})
	e.window.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode == common.KeyO && e.graph != nil {
			e.graph.SetObjectView(!e.graph.ObjectView())
			return
		}
		if e.driver != nil {
			e.driver.HandleKey(keyCode)
		}
	})
}

func (e *engine) withController(fn func(camera.CameraController)) {
	e.camMu.Lock()
	defer e.camMu.Unlock()
	if e.view == nil || e.view.Controller() == nil {
		return
	}
	fn(e.view.Controller())
	e.view.Update()
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Graph() shadow.Graph {
	return e.graph
}

func (e *engine) Driver() Driver {
	return e.driver
}

func (e *engine) RenderFrame() error {
	if e.graph == nil || e.driver == nil {
		return ErrNotConfigured
	}

	e.camMu.Lock()
	var in shadow.FrameInput
	if e.view != nil {
		in = e.driver.Frame().Input(e.view.View(), e.view.Projection())
	} else {
		plane := e.graph.PlaneCamera()
		in = e.driver.Frame().Input(plane.View(), plane.Projection())
	}
	e.camMu.Unlock()

	if err := e.graph.Render(in); err != nil {
		e.failedFrames.Add(1)
		return err
	}
	e.frames.Add(1)
	return nil
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) Run() error {
	if e.graph == nil || e.driver == nil {
		return ErrNotConfigured
	}
	e.running.Store(true)
	e.logger.Info().Dur("tick_rate", e.engineTickRate).Dur("frame_limit", e.renderFrameLimit).Msg("engine running")

	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()

	e.logger.Info().Uint64("frames", e.frames.Load()).Uint64("failed_frames", e.failedFrames.Load()).Msg("engine stopped")
	return nil
}

// Quit signals all engine goroutines to stop and shuts down the engine.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the tick and render goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate tick loop. Each tick advances the driver and then
// fires the tick callback. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.driver.Tick()
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop, uncapped or frame-limited. A failed frame is logged
// and dropped; the next frame starts clean. A panic stops the engine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("render goroutine recovered from panic")
			e.signalQuit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.RenderFrame(); err != nil {
			e.logger.Warn().Err(err).Msg("frame dropped")
		}
		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(lastRender); remaining > 0 {
				select {
				case <-e.quitChannel:
					return
				case <-time.After(remaining):
				}
			}
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// replace any pending update
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

// ProfileStates adapts a profiler to a shadow graph state observer, timing every frame
// state and leaving Idle untimed.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - func(shadow.State): an observer for shadow.WithStateObserver
func ProfileStates(p *profiler.Profiler) func(shadow.State) {
	return func(s shadow.State) {
		if s == shadow.StateIdle {
			p.Mark("")
			return
		}
		p.Mark(s.String())
	}
}
