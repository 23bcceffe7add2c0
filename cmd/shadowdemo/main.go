// Command shadowdemo renders a rotating cube casting a blurred shadow onto a ground plane.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-shadow/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// appState is what the persistent pre-run hands to the subcommands.
type appState struct {
	cfgFile  string
	logLevel string
	backend  string

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	app := &appState{}
	root := &cobra.Command{
		Use:   "shadowdemo",
		Short: "Soft shadow render pipeline demo",
		Long: `shadowdemo renders a rotating cube casting a soft shadow onto a ground plane.

The shadow is built each frame by capturing the cube's depth from the light, projecting
it onto the plane and blurring the result in four ping-pong passes.

Configuration is read from --config (YAML) over the built-in defaults. Every key can be
overridden from the environment, e.g. OXY_SHADOW_PIPELINE_RESOLUTION=256.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.logCloser != nil {
				return app.logCloser.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().StringVar(&app.backend, "backend", "", "renderer backend override: wgpu, software")

	root.AddCommand(newRunCmd(app))
	root.AddCommand(newSnapshotCmd(app))
	root.AddCommand(newConfigCmd(app))
	return root
}

// load reads and validates the configuration, applies flag overrides and builds the logger.
func (a *appState) load(stderr io.Writer) error {
	cfg, err := config.LoadFromPath(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.backend != "" {
		cfg.Render.Backend = a.backend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := newLogger(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.logCloser = cfg, logger, closer
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
