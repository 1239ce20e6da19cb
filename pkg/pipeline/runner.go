package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	cfio "github.com/LLNL/CallFlow-sub002/pkg/io"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

// Result contains the outputs of a pipeline run.
type Result struct {
	// Build is the Sankey build result, including diagnostics.
	Build *sankey.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	Diagnostics int
	LoadTime    time.Duration
	BuildTime   time.Duration
	RenderTime  time.Duration
}

// Runner encapsulates pipeline execution.
//
// The Runner is stateless except for the logger - it doesn't store pipeline
// results. Multiple goroutines can safely use the same Runner with
// different options; every build gets its own run context.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger selects log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// ExecuteFile loads the dataset at path and runs [Runner.Execute] on it.
func (r *Runner) ExecuteFile(ctx context.Context, path string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	start := time.Now()
	ds, err := cfio.ImportDataset(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(start)
	opts.Logger.Debug("loaded dataset", "path", path, "levels", len(ds.Levels()), "nodes", ds.NodeCount(), "duration", loadTime)

	res, err := r.Execute(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = loadTime
	return res, nil
}

// Execute runs the complete build → render pipeline.
func (r *Runner) Execute(ctx context.Context, ds *profile.Dataset, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	buildStart := time.Now()
	built, err := r.Build(ctx, ds, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Build = built
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = len(built.Graph.Nodes)
	result.Stats.EdgeCount = len(built.Graph.Edges)
	result.Stats.Diagnostics = len(built.Diagnostics)

	renderStart := time.Now()
	artifacts, err := Render(ctx, built, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Build runs only the Sankey build stage.
func (r *Runner) Build(ctx context.Context, ds *profile.Dataset, opts Options) (*sankey.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}

	res, err := sankey.Build(ctx, ds, opts.SankeyOptions())
	if err != nil {
		return nil, err
	}
	if len(res.Diagnostics) > 0 {
		opts.Logger.Info("build finished with diagnostics",
			"run", res.RunID,
			"count", len(res.Diagnostics),
			"dangling", res.Diagnostics.Count(errors.ErrCodeDanglingParent),
			"mismatch", res.Diagnostics.Count(errors.ErrCodeRuntimeMismatch))
	}
	return res, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
