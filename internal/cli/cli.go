// Package cli implements the cutline command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/buildinfo"
	"github.com/matzehuels/cutline/pkg/scene"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "cutline"

	// defaultAddr is the listen address of the serve command.
	defaultAddr = ":8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cutline arranges clips on a multi-track video timeline",
		Long:         `Cutline is the arrangement engine of a non-linear video editor: it moves, resizes and cuts clips and groups on a multi-track timeline without ever letting two items overlap.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.showCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.groupsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Flags
// =============================================================================

// engineOpts holds the flags that override a scene's [config] table.
type engineOpts struct {
	tolerance int
	zoom      float64
	noSnap    bool
}

func (o *engineOpts) register(cmd *cobra.Command) {
	def := arrange.DefaultConfig()
	cmd.Flags().IntVar(&o.tolerance, "tolerance", def.TolerancePx, "snap tolerance in pixels")
	cmd.Flags().Float64Var(&o.zoom, "zoom", def.PixelsPerFrame, "zoom in pixels per frame")
	cmd.Flags().BoolVar(&o.noSnap, "no-snap", false, "disable snapping")
}

// override applies the flags the user set on top of cfg.
func (o *engineOpts) override(cmd *cobra.Command, cfg arrange.Config) arrange.Config {
	if cmd.Flags().Changed("tolerance") {
		cfg.TolerancePx = o.tolerance
	}
	if cmd.Flags().Changed("zoom") {
		cfg.PixelsPerFrame = o.zoom
	}
	if o.noSnap {
		cfg.SnapEnabled = false
	}
	return cfg
}

// loadScene reads the scene at path and builds its engine with the flag
// overrides applied.
func (o *engineOpts) loadScene(cmd *cobra.Command, logger *log.Logger, path string) (*scene.Scene, *arrange.Engine, error) {
	sc, err := scene.Load(path)
	if err != nil {
		return nil, nil, err
	}
	sc.Config = o.override(cmd, sc.Config)
	e, err := sc.Engine(logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("scene loaded", "path", path, "tracks", sc.Timeline.Tracks().Count(),
		"items", sc.Timeline.ItemCount(), "tolerance", sc.Config.SnapTolerance())
	return sc, e, nil
}
