package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/scene"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	output  string // write the resulting scene as TOML
	jsonOut string // write the resulting arrangement as JSON
	strict  bool   // fail when any operation is rejected
	quiet   bool   // skip the lanes after the report
}

// applyCommand creates the apply command that replays an edit script.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		opts applyOpts
		eng  engineOpts
		draw lanesOpts
	)

	cmd := &cobra.Command{
		Use:   "apply [scene] [script]",
		Short: "Run an edit script against a scene",
		Long: `Run every operation of an edit script against a scene in order and
report its result. Rejected operations leave the scene untouched and do not
stop the script.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args[0], args[1], &opts, &eng, &draw)
		},
	}

	eng.register(cmd)
	draw.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the resulting scene (TOML)")
	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "write the resulting arrangement (JSON)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error if any operation is rejected")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not draw the lanes afterwards")

	return cmd
}

func runApply(cmd *cobra.Command, scenePath, scriptPath string, opts *applyOpts, eng *engineOpts, draw *lanesOpts) error {
	logger := loggerFromContext(cmd.Context())
	out := cmd.OutOrStdout()

	sc, e, err := eng.loadScene(cmd, logger, scenePath)
	if err != nil {
		return err
	}
	script, err := scene.LoadScript(scriptPath)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	steps, err := script.Apply(sc, e)
	var committed, rejected, unchanged int
	for _, st := range steps {
		printResult(out, st.Op.String(), st.Result)
		switch st.Result.Status {
		case arrange.StatusCommitted:
			committed++
		case arrange.StatusRejected:
			rejected++
		default:
			unchanged++
		}
	}
	if err != nil {
		printError(out, "%v", err)
		return err
	}
	prog.done(fmt.Sprintf("Applied %d operations", len(steps)))
	printStats(out, committed, rejected, unchanged)

	if !opts.quiet {
		fmt.Fprintln(out)
		writeLanes(out, sc, draw.options(sc), false)
	}
	if opts.output != "" {
		if err := writeSceneFile(sc, opts.output); err != nil {
			return err
		}
		printFile(out, opts.output)
	}
	if opts.jsonOut != "" {
		if err := scene.ExportJSON(sc, opts.jsonOut); err != nil {
			return err
		}
		printFile(out, opts.jsonOut)
	}
	if opts.strict && rejected > 0 {
		return fmt.Errorf("%d of %d operations rejected", rejected, len(steps))
	}
	return nil
}

func writeSceneFile(sc *scene.Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return scene.WriteTOML(sc, f)
}
