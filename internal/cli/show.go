package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutline/pkg/render/lanes"
	"github.com/matzehuels/cutline/pkg/scene"
	"github.com/matzehuels/cutline/pkg/timeline"
)

// lanesOpts holds the flags that control lane drawing.
type lanesOpts struct {
	scale int64
	rows  int
	width int
	color bool
}

func (o *lanesOpts) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&o.scale, "scale", lanes.DefaultScale, "frames per text cell")
	cmd.Flags().IntVar(&o.rows, "rows", lanes.DefaultRows, "text rows per track")
	cmd.Flags().IntVar(&o.width, "width", 0, "cells per lane (0 fits the timeline)")
	cmd.Flags().BoolVar(&o.color, "color", false, "style cells with colors")
}

func (o *lanesOpts) options(sc *scene.Scene) lanes.Options {
	return lanes.Options{
		Scale:    timeline.Frame(o.scale),
		Rows:     o.rows,
		Width:    o.width,
		Playhead: sc.Playhead,
		Color:    o.color,
	}
}

// showCommand creates the show command for drawing a scene's lanes.
func (c *CLI) showCommand() *cobra.Command {
	var (
		eng      engineOpts
		draw     lanesOpts
		asJSON   bool
		noLegend bool
	)

	cmd := &cobra.Command{
		Use:   "show [scene]",
		Short: "Draw the track lanes of a scene",
		Long: `Draw every track of a scene as rows of text cells.

Clips are drawn with the first letter of their name, transitions with '~'
on the lower rows of their lane. Locked tracks are marked with '#'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			sc, _, err := eng.loadScene(cmd, logger, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return scene.WriteJSON(sc, out)
			}
			writeLanes(out, sc, draw.options(sc), !noLegend)
			return nil
		},
	}

	eng.register(cmd)
	draw.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the arrangement as JSON instead")
	cmd.Flags().BoolVar(&noLegend, "no-legend", false, "omit the item legend")

	return cmd
}

func writeLanes(w io.Writer, sc *scene.Scene, opts lanes.Options, legend bool) {
	fmt.Fprint(w, lanes.Render(sc.Timeline, opts))
	if legend {
		fmt.Fprintln(w)
		fmt.Fprint(w, lanes.Legend(sc.Timeline))
	}
}
