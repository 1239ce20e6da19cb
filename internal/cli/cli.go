package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/LLNL/CallFlow-sub002/pkg/buildinfo"
	"github.com/LLNL/CallFlow-sub002/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "callflow"

	// sankeySuffix is inserted before the extension of every output file.
	sankeySuffix = ".sankey"
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

	// configPath is set by the persistent --config flag.
	configPath string
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
		Use:   appName,
		Short: "CallFlow turns calling-context trees into Sankey graphs",
		Long: `CallFlow condenses a grouped calling-context tree from a performance profile
into an acyclic Sankey graph of modules and procedures, pruning insignificant
branches and splitting recursive labels so the flow can be drawn left to right.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $CALLFLOW_CONFIG or ./callflow.toml)")

	// Register all subcommands
	root.AddCommand(c.sankeyCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.completionCommand())

	for _, cmd := range root.Commands() {
		registerValueCompletions(cmd)
	}
	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// =============================================================================
// Options Helpers
// =============================================================================

// buildFlags holds the build flags shared by every command.
type buildFlags struct {
	threshold  float64
	keepAll    bool
	edgeWeight string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", pipeline.DefaultThreshold, "prune groups and edges below this fraction of total runtime")
	cmd.Flags().BoolVar(&f.keepAll, "keep-all", false, "disable pruning")
	cmd.Flags().StringVar(&f.edgeWeight, "edge-weight", pipeline.DefaultEdgeWeight, "edge weight mode: sum (default), mean")
}

// apply overlays flags that were set explicitly on the command line.
func (f *buildFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = f.threshold
	}
	if cmd.Flags().Changed("keep-all") {
		opts.KeepAll = f.keepAll
	}
	if cmd.Flags().Changed("edge-weight") {
		opts.EdgeWeight = f.edgeWeight
	}
}

// resolveOptions loads configuration and overlays command flags.
func (c *CLI) resolveOptions(cmd *cobra.Command, flags *buildFlags) (pipeline.Options, error) {
	opts, err := loadConfig(c.configPath)
	if err != nil {
		return pipeline.Options{}, err
	}
	flags.apply(cmd, &opts)
	opts.Logger = c.Logger
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// outputPath derives the output file for input and format, placing it in
// dir when dir is set. "run/profile.json" becomes "run/profile.sankey.json".
func outputPath(input, dir, format string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+sankeySuffix+"."+format)
}
