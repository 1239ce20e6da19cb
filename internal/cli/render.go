package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/LLNL/CallFlow-sub002/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (single format) or directory (multiple)
	formats  []string // output formats: "svg" (default), "dot", "png", "pdf", "json"
	detailed bool     // show run time and instance counts in node labels
	scale    float64  // PNG resolution multiplier
}

// renderCommand creates the render command for drawing a dataset's Sankey graph.
func (c *CLI) renderCommand() *cobra.Command {
	var flags buildFlags
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [dataset.json]",
		Short: "Render a dataset's Sankey graph as a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.resolveOptions(cmd, &flags)
			if err != nil {
				return err
			}
			popts.Formats = parseFormats(formatsStr)
			if popts.Formats == nil {
				popts.Formats = []string{pipeline.FormatSVG}
			}
			if cmd.Flags().Changed("detailed") {
				popts.Detailed = opts.detailed
			}
			if cmd.Flags().Changed("scale") {
				popts.PNGScale = opts.scale
			}
			if err := pipeline.ValidateFormats(popts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], popts, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or directory (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, pdf, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show run time and instance counts in node labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, popts pipeline.Options, opts renderOpts) error {
	spinner := newSpinnerWithContext(ctx, "Rendering "+input+"...")
	spinner.Start()

	res, err := c.newRunner().ExecuteFile(ctx, input, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	formats := slices.Sorted(maps.Keys(res.Artifacts))
	if opts.output != "" && len(formats) > 1 {
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", opts.output, err)
		}
	}
	for _, f := range formats {
		path := renderPath(input, opts.output, f, len(formats))
		if err := os.WriteFile(path, res.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Build.Stats.Minted, res.Stats.Diagnostics)
	return nil
}

// renderPath resolves the output path. With a single format, -o names the
// file; with several it names a directory.
func renderPath(input, output, format string, count int) string {
	switch {
	case output == "":
		return outputPath(input, "", format)
	case count == 1:
		return output
	default:
		return outputPath(input, output, format)
	}
}
