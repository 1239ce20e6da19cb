package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	cfio "github.com/LLNL/CallFlow-sub002/pkg/io"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	exported bool // input is a .sankey.json export rather than a dataset
	strict   bool // treat diagnostics as failures
}

// checkCommand creates the check command. It exits non-zero when the graph
// is not a valid Sankey DAG, and with --strict also on any diagnostic.
func (c *CLI) checkCommand() *cobra.Command {
	var flags buildFlags
	var opts checkOpts

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report diagnostics and verify a Sankey graph is acyclic",
		Long: `Build the dataset's Sankey graph and report recoverable problems
(dangling parents, empty aggregations, runtime mismatches). The graph is then
verified: every edge must point to a later level, and consolidating it again
must not split any label.

With --sankey the input is an existing export and only verification runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.exported {
				return c.runCheckExport(cmd.Context(), args[0])
			}
			popts, err := c.resolveOptions(cmd, &flags)
			if err != nil {
				return err
			}
			ds, err := cfio.ImportDataset(args[0])
			if err != nil {
				return err
			}
			res, err := c.newRunner().Build(cmd.Context(), ds, popts)
			if err != nil {
				return err
			}
			return c.reportCheck(cmd.Context(), res, opts)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&opts.exported, "sankey", false, "input is a Sankey export (.sankey.json)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on any diagnostic")

	return cmd
}

func (c *CLI) reportCheck(ctx context.Context, res *sankey.Result, opts checkOpts) error {
	var prunedTime float64
	for _, p := range res.Pruned {
		prunedTime += p.Inc
	}

	printKeyValue("run", res.RunID)
	printKeyValue("reference", fmt.Sprintf("%.6g", res.Reference))
	printKeyValue("pruned", fmt.Sprintf("%d ids (%.6g)", len(res.Pruned), prunedTime))
	printKeyValue("splits", fmt.Sprintf("%d minted, %d reused", res.Stats.Minted, res.Stats.Reused))
	printStats(len(res.Graph.Nodes), len(res.Graph.Edges), res.Stats.Minted, len(res.Diagnostics))
	printNewline()

	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(stdout, diagnosticsTable(res.Diagnostics))
	}
	for _, stage := range []string{sankey.StageFilter, sankey.StageEdges, sankey.StageNodes} {
		if n := countPruned(res.Pruned, stage); n > 0 {
			printDetail("%d id(s) pruned at %s", n, stage)
		}
	}
	printInfo("Verifying %d nodes, %d edges", len(res.Graph.Nodes), len(res.Graph.Edges))

	if err := c.verify(ctx, res.Graph); err != nil {
		return err
	}
	if opts.strict && len(res.Diagnostics) > 0 {
		return fmt.Errorf("%d diagnostic(s)", len(res.Diagnostics))
	}
	return nil
}

func (c *CLI) runCheckExport(ctx context.Context, path string) error {
	fg, err := cfio.ImportSankey(path)
	if err != nil {
		return err
	}
	printStats(len(fg.Nodes), len(fg.Edges), 0, 0)
	return c.verify(ctx, fg)
}

// verify prints the outcome of verifyGraph and turns problems into an error.
func (c *CLI) verify(ctx context.Context, fg *sankey.FinalGraph) error {
	problems, err := verifyGraph(ctx, fg)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		printSuccess("Graph is acyclic and level-ordered")
		return nil
	}
	for _, p := range problems {
		printError("%s", p)
	}
	return errors.New(errors.ErrCodeGraphHasCycle, "%d problem(s) found", len(problems))
}

// verifyGraph checks that every edge points to a later level and that
// consolidating the graph again is a no-op.
func verifyGraph(ctx context.Context, fg *sankey.FinalGraph) ([]string, error) {
	var problems []string
	for _, e := range fg.Edges {
		src, dst := fg.Nodes[e.Source], fg.Nodes[e.Target]
		if dst.Level <= src.Level {
			problems = append(problems, fmt.Sprintf("edge %s -> %s goes from level %d to %d", e.SourceLabel, e.TargetLabel, src.Level, dst.Level))
		}
	}

	cons, err := sankey.Reconsolidate(ctx, fg)
	if err != nil {
		return nil, err
	}
	if cons.Minted > 0 || cons.Reused > 0 {
		problems = append(problems, fmt.Sprintf("consolidating again splits labels (%d minted, %d reused)", cons.Minted, cons.Reused))
	}
	if err := cons.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	return problems, nil
}

func countPruned(pruned []sankey.Pruned, stage string) int {
	n := 0
	for _, p := range pruned {
		if p.Stage == stage {
			n++
		}
	}
	return n
}

// diagnosticsTable renders diagnostics as a bordered table.
func diagnosticsTable(diags errors.Diagnostics) string {
	rows := make([][]string, len(diags))
	for i, d := range diags {
		rows[i] = []string{string(d.Code), d.Stage, d.Message}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Code", "Stage", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return StyleWarning
			default:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
		}).
		Render()
}

// diagnosticSummary counts diagnostics per code, e.g. "DANGLING_PARENT×2".
func diagnosticSummary(diags errors.Diagnostics) string {
	var order []errors.Code
	counts := map[errors.Code]int{}
	for _, d := range diags {
		if counts[d.Code] == 0 {
			order = append(order, d.Code)
		}
		counts[d.Code]++
	}
	parts := make([]string, len(order))
	for i, code := range order {
		parts[i] = fmt.Sprintf("%s×%d", code, counts[code])
	}
	return strings.Join(parts, ", ")
}
