package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-shadow/engine"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"github.com/Carmen-Shannon/oxy-shadow/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"
)

func newRunCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open a window and render the soft shadow demo",
		Long: `Opens a window and renders a rotating cube casting a soft shadow onto a ground plane.

Keys:
  Up / Down         blur amount
  Right / Left      shadow opacity
  PageUp / PageDown plane height
  Space             pause rotation
  O                 toggle the object
  R                 reset
  Esc               quit

Drag to orbit the camera and scroll to zoom.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(app)
		},
	}
}

func runDemo(app *appState) error {
	cfg, logger := app.cfg, app.logger
	if cfg.Render.Backend != "wgpu" {
		return fmt.Errorf("run needs the wgpu backend, use snapshot for %q", cfg.Render.Backend)
	}

	w := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithMinSize(cfg.Window.MinWidth, cfg.Window.MinHeight),
		window.WithResizable(cfg.Window.Resizable),
		window.WithDragButton(parseDragButton(cfg.Window.DragButton)),
		window.WithLogger(logger),
	)
	defer w.Close()

	presentMode := renderer.PresentModeVSync
	if cfg.Render.PresentMode == "uncapped" {
		presentMode = renderer.PresentModeUncapped
	}
	rendererOpts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceFallback),
		renderer.WithLogger(logger),
	}
	if cfg.Render.Workers > 0 {
		rendererOpts = append(rendererOpts, renderer.WithWorkers(cfg.Render.Workers))
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, w, rendererOpts...)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer r.Release()

	var observer func(shadow.State)
	prof := newProfiler(logger)
	if cfg.Render.Profiling {
		observer = engine.ProfileStates(prof)
	}
	g, err := shadow.NewGraph(r, graphOptions(cfg.Pipeline, logger, observer)...)
	if err != nil {
		return fmt.Errorf("create shadow graph: %w", err)
	}
	defer g.Release()

	view := camera.NewCamera(
		camera.NewCameraController(),
		mgl32.DegToRad(cfg.Render.FieldOfView),
		float32(w.Width())/float32(max(w.Height(), 1)),
	)

	eng := engine.NewEngine(
		engine.WithWindow(w),
		engine.WithRenderer(r),
		engine.WithGraph(g),
		engine.WithDriver(newDriver(cfg.Driver, logger)),
		engine.WithViewCamera(view),
		engine.WithTickRate(cfg.Render.TickRate),
		engine.WithRenderFrameLimit(cfg.Render.FrameLimit),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Render.Profiling),
		engine.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		eng.Quit()
	}()

	return eng.Run()
}
