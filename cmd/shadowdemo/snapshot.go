package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/target"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"github.com/spf13/cobra"
)

type snapshotOptions struct {
	out     string
	width   int
	height  int
	ticks   int
	targets string
}

func newSnapshotCmd(app *appState) *cobra.Command {
	opts := snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render frames on the software backend and save the screen as PNG",
		Long: `Renders headless on the CPU rasterizer. The driver is ticked before every frame and
the last frame's screen is written as PNG. The composite is viewed through the plane
camera, so the screen shows the ground plane from straight above.

--targets writes every offscreen target (depth, projection, blur_a, blur_b) into a
directory as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := snapshot(app, opts)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "shadow.png", "output PNG file")
	cmd.Flags().IntVar(&opts.width, "width", 512, "screen width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 512, "screen height in pixels")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 1, "driver ticks, one frame each")
	cmd.Flags().StringVar(&opts.targets, "targets", "", "directory for the offscreen targets")
	return cmd
}

// snapshot renders opts.ticks frames and writes the PNGs, returning their paths.
func snapshot(app *appState, opts snapshotOptions) ([]string, error) {
	cfg, logger := app.cfg, app.logger
	if opts.width <= 0 || opts.height <= 0 || opts.ticks <= 0 {
		return nil, fmt.Errorf("width, height and ticks must be positive")
	}

	rendererOpts := []renderer.RendererBuilderOption{
		renderer.WithScreenSize(opts.width, opts.height),
		renderer.WithLogger(logger),
	}
	if cfg.Render.Workers > 0 {
		rendererOpts = append(rendererOpts, renderer.WithWorkers(cfg.Render.Workers))
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil, rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	defer r.Release()

	prof := newProfiler(logger)
	g, err := shadow.NewGraph(r, graphOptions(cfg.Pipeline, logger, engine.ProfileStates(prof))...)
	if err != nil {
		return nil, fmt.Errorf("create shadow graph: %w", err)
	}
	defer g.Release()

	d := newDriver(cfg.Driver, logger)
	eng := engine.NewEngine(
		engine.WithRenderer(r),
		engine.WithGraph(g),
		engine.WithDriver(d),
		engine.WithProfiler(prof),
		engine.WithLogger(logger),
	)
	for range opts.ticks {
		d.Tick()
		if err := eng.RenderFrame(); err != nil {
			return nil, err
		}
	}
	for stage, took := range prof.StageTimes() {
		logger.Debug().Str("stage", stage).Dur("total", took).Msg("stage time")
	}

	written := []string{opts.out}
	if err := writeTarget(r, nil, opts.width, opts.height, opts.out); err != nil {
		return nil, err
	}
	if opts.targets == "" {
		return written, nil
	}
	if err := os.MkdirAll(opts.targets, 0755); err != nil {
		return nil, fmt.Errorf("create targets directory: %w", err)
	}
	for _, key := range []string{shadow.KeyDepth, shadow.KeyProjection, shadow.KeyBlurA, shadow.KeyBlurB} {
		t, ok := g.Target(key)
		if !ok {
			continue
		}
		path := filepath.Join(opts.targets, key+".png")
		if err := writeTarget(r, t, t.Width(), t.Height(), path); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeTarget reads a target, or the screen when t is nil, and saves it as PNG.
func writeTarget(r renderer.Renderer, t target.Target, width, height int, path string) error {
	texels, err := r.ReadTarget(t)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, toImage(texels, width, height)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// toImage converts RGBA float texels, top row first, into an 8-bit image.
func toImage(texels []float32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			i := (y*width + x) * 4
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(texels[i]),
				G: toByte(texels[i+1]),
				B: toByte(texels[i+2]),
				A: toByte(texels[i+3]),
			})
		}
	}
	return img
}

func toByte(v float32) uint8 {
	return uint8(math.Round(float64(common.Clamp(v, 0, 1) * 255)))
}
