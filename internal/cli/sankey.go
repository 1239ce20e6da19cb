package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LLNL/CallFlow-sub002/pkg/pipeline"
)

// sankeyOpts holds the command-line flags for the sankey command.
type sankeyOpts struct {
	outDir   string   // output directory; defaults to each input's directory
	formats  []string // output formats: "json" (default), "dot", "svg", "png", "pdf"
	detailed bool     // detailed node labels in DOT-based outputs
	jobs     int      // maximum number of datasets built concurrently
}

// sankeyCommand creates the sankey command. Every dataset is built in its
// own goroutine with an isolated run; the first failure cancels the rest.
func (c *CLI) sankeyCommand() *cobra.Command {
	var flags buildFlags
	var formatsStr string
	opts := sankeyOpts{jobs: runtime.GOMAXPROCS(0)}

	cmd := &cobra.Command{
		Use:   "sankey [dataset.json]...",
		Short: "Build Sankey graphs from grouped calling-context trees",
		Long: `Build a Sankey graph for each dataset and write it next to the input as
<name>.sankey.json (or one file per --format).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := c.resolveOptions(cmd, &flags)
			if err != nil {
				return err
			}
			if f := parseFormats(formatsStr); f != nil {
				popts.Formats = f
			}
			if cmd.Flags().Changed("detailed") {
				popts.Detailed = opts.detailed
			}
			return c.runSankey(cmd.Context(), args, popts, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&opts.outDir, "output-dir", "o", "", "directory for output files (default: next to each input)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show run time and instance counts in diagram labels")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "number of datasets built concurrently")

	return cmd
}

// sankeyOutput is the outcome of one dataset.
type sankeyOutput struct {
	input  string
	result *pipeline.Result
	files  []string
}

func (c *CLI) runSankey(ctx context.Context, inputs []string, popts pipeline.Options, opts sankeyOpts) error {
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", opts.outDir, err)
		}
	}

	runner := c.newRunner()
	prog := newProgress(c.Logger)
	outputs := make([]sankeyOutput, len(inputs))

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Building 0/%d", len(inputs)))
	spin.Start()
	var finished atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}
	for i, input := range inputs {
		g.Go(func() error {
			out, err := buildOne(gctx, runner, input, popts, opts.outDir)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			outputs[i] = out
			spin.Update(fmt.Sprintf("Building %d/%d", finished.Add(1), len(inputs)))
			return nil
		})
	}
	err := g.Wait()
	spin.Stop()
	if err != nil {
		return err
	}

	for _, out := range outputs {
		res := out.result.Build
		printSuccess("%s", out.input)
		for _, f := range out.files {
			printFile(f)
		}
		printStats(len(res.Graph.Nodes), len(res.Graph.Edges), res.Stats.Minted, len(res.Diagnostics))
		if len(res.Diagnostics) > 0 {
			printWarning("%s", diagnosticSummary(res.Diagnostics))
		}
	}
	prog.done(fmt.Sprintf("Built %d sankey graph(s)", len(inputs)))
	if f := firstJSON(outputs); f != "" {
		printNextStep("Browse it", appName+" inspect --sankey "+f)
	}
	return nil
}

// buildOne runs the pipeline for a single dataset and writes its artifacts.
func buildOne(ctx context.Context, runner *pipeline.Runner, input string, popts pipeline.Options, outDir string) (sankeyOutput, error) {
	res, err := runner.ExecuteFile(ctx, input, popts)
	if err != nil {
		return sankeyOutput{}, err
	}

	out := sankeyOutput{input: input, result: res}
	for _, f := range slices.Sorted(maps.Keys(res.Artifacts)) {
		path := outputPath(input, outDir, f)
		if err := os.WriteFile(path, res.Artifacts[f], 0o644); err != nil {
			return sankeyOutput{}, fmt.Errorf("write %s: %w", path, err)
		}
		out.files = append(out.files, path)
	}
	return out, nil
}

// firstJSON returns the first Sankey export written, or "".
func firstJSON(outputs []sankeyOutput) string {
	for _, out := range outputs {
		for _, f := range out.files {
			if strings.HasSuffix(f, sankeySuffix+"."+pipeline.FormatJSON) {
				return f
			}
		}
	}
	return ""
}
