// Package cli implements the callflow command-line interface.
//
// This package provides commands for turning grouped calling-context trees
// into Sankey graphs, rendering them, checking them for problems and
// browsing them interactively. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - sankey: Build Sankey graphs for one or more datasets in parallel
//   - render: Draw a dataset's Sankey graph as DOT, SVG, PNG or PDF
//   - check: Report diagnostics and verify the graph is acyclic
//   - inspect: Browse nodes with their entry and exit breakdowns
//
// # Configuration
//
// Build options are read from callflow.toml (see --config), then from the
// environment (CALLFLOW_THRESHOLD, CALLFLOW_EDGE_WEIGHT, optionally loaded
// from .env), then from flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Built 3 sankey graphs (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
