package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-shadow/common"
	"github.com/Carmen-Shannon/oxy-shadow/engine"
	"github.com/Carmen-Shannon/oxy-shadow/engine/camera"
	"github.com/Carmen-Shannon/oxy-shadow/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shadow/engine/shadow"
	"github.com/Carmen-Shannon/oxy-shadow/engine/window"
	"github.com/Carmen-Shannon/oxy-shadow/internal/config"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// newLogger builds the zerolog logger described by the logging section. The returned
// closer releases the log file and is nil when logging to stderr.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level: %w", err)
	}

	out := stderr
	var closer io.Closer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: cfg.File != ""}
	}

	logger := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("app", "oxy-shadow").
		Logger()
	return logger, closer, nil
}

// graphOptions maps the pipeline section onto shadow graph options.
func graphOptions(cfg config.PipelineConfig, logger zerolog.Logger, observer func(shadow.State)) []shadow.GraphBuilderOption {
	eye := mgl32.Vec3{cfg.LightEye[0], cfg.LightEye[1], cfg.LightEye[2]}
	light := camera.NewCaptureCamera("light",
		camera.WithEye(eye),
		camera.WithLook(mgl32.Vec3{0, 0, 0}),
		camera.WithUp(mgl32.Vec3{0, 1, 0}),
		camera.WithFrustumSize(cfg.LightSize),
	)
	opts := []shadow.GraphBuilderOption{
		shadow.WithResolution(cfg.Resolution),
		shadow.WithDepthResolution(cfg.DepthResolution),
		shadow.WithLightCamera(light),
		shadow.WithPlaneCamera(camera.NewPlaneCamera(cfg.PlaneHalfExtent)),
		shadow.WithClampInputs(cfg.ClampInputs),
		shadow.WithObjectView(cfg.ObjectView),
		shadow.WithScreenClearColor(common.Color{
			R: cfg.ClearColor[0], G: cfg.ClearColor[1], B: cfg.ClearColor[2], A: cfg.ClearColor[3],
		}),
		shadow.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, shadow.WithStateObserver(observer))
	}
	return opts
}

// newDriver builds the frame driver from the driver section.
func newDriver(cfg config.DriverConfig, logger zerolog.Logger) engine.Driver {
	return engine.NewDriver(
		engine.WithRotationSpeed(cfg.RotationSpeed),
		engine.WithTunables(engine.Tunables{
			BlurAmount:  cfg.BlurAmount,
			BlurOpacity: cfg.BlurOpacity,
			PlaneOffset: cfg.PlaneOffset,
		}),
		engine.WithKeySteps(engine.KeySteps{
			BlurAmount:  cfg.BlurStep,
			BlurOpacity: cfg.OpacityStep,
			PlaneOffset: cfg.OffsetStep,
		}),
		engine.WithDriverLogger(logger),
	)
}

// newProfiler returns a profiler reporting every second.
func newProfiler(logger zerolog.Logger) *profiler.Profiler {
	return profiler.NewProfiler(
		profiler.WithLogger(logger),
		profiler.WithUpdateInterval(time.Second),
	)
}

func parseDragButton(s string) window.DragButton {
	switch s {
	case "middle":
		return window.DragMiddle
	case "right":
		return window.DragRight
	default:
		return window.DragLeft
	}
}
