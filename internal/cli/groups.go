package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutline/pkg/render/groups"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// groupsCommand creates the groups command that exports the group tree.
func (c *CLI) groupsCommand() *cobra.Command {
	var (
		format string
		output string
		opts   groups.Options
	)

	cmd := &cobra.Command{
		Use:   "groups [scene]",
		Short: "Export the group tree of a scene as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatDOT && format != formatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}
			logger := loggerFromContext(cmd.Context())
			var eng engineOpts
			sc, _, err := eng.loadScene(cmd, logger, args[0])
			if err != nil {
				return err
			}

			data := []byte(groups.ToDOT(sc.Timeline, opts))
			if format == formatSVG {
				spin := newSpinnerWithContext(cmd.Context(), cmd.ErrOrStderr(), "Rendering SVG...")
				spin.Start()
				data, err = groups.RenderSVG(cmd.Context(), string(data))
				spin.Stop()
				if err != nil {
					return err
				}
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger.Debug("group tree written", "path", output, "format", format, "bytes", len(data))
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.Free, "free", false, "include items outside any group")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show track and crop of each item")

	return cmd
}
