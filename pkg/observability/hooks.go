// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about pipeline stages, label splits, and diagnostics.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the core packages stay
// free of any particular metrics or tracing framework.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetConsolidationHooks(&mySplitCounter{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, runID, "filter", groupCount)
//	// ... run the stage ...
//	observability.Pipeline().OnStageComplete(ctx, runID, "filter", kept, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the Sankey condensation pipeline.
// Stage names are "aggregate", "filter", "merge", "build", "consolidate"
// and "edges".
type PipelineHooks interface {
	// OnStageStart is called before a stage runs with the number of groups it
	// receives.
	OnStageStart(ctx context.Context, runID, stage string, groups int)

	// OnStageComplete is called after a stage with the number of items it
	// produced.
	OnStageComplete(ctx context.Context, runID, stage string, produced int, duration time.Duration, err error)
}

// =============================================================================
// Consolidation Hooks
// =============================================================================

// ConsolidationHooks receives events from cycle-avoiding consolidation.
type ConsolidationHooks interface {
	// OnSplit records that an edge from→to was redirected to alt because
	// merging it into to would have closed a cycle. reused is true when alt
	// was minted by an earlier split.
	OnSplit(ctx context.Context, from, to, alt string, reused bool)
}

// =============================================================================
// Diagnostic Hooks
// =============================================================================

// DiagnosticHooks receives recoverable problems reported during a run.
type DiagnosticHooks interface {
	// OnDiagnostic records one diagnostic with its code and originating stage.
	OnDiagnostic(ctx context.Context, code, stage, message string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string, string, int) {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopConsolidationHooks is a no-op implementation of ConsolidationHooks.
type NoopConsolidationHooks struct{}

func (NoopConsolidationHooks) OnSplit(context.Context, string, string, string, bool) {}

// NoopDiagnosticHooks is a no-op implementation of DiagnosticHooks.
type NoopDiagnosticHooks struct{}

func (NoopDiagnosticHooks) OnDiagnostic(context.Context, string, string, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks      PipelineHooks      = NoopPipelineHooks{}
	consolidationHooks ConsolidationHooks = NoopConsolidationHooks{}
	diagnosticHooks    DiagnosticHooks    = NoopDiagnosticHooks{}
	hooksMu            sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetConsolidationHooks registers custom consolidation hooks.
func SetConsolidationHooks(h ConsolidationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		consolidationHooks = h
	}
}

// SetDiagnosticHooks registers custom diagnostic hooks.
func SetDiagnosticHooks(h DiagnosticHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		diagnosticHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Consolidation returns the registered consolidation hooks.
func Consolidation() ConsolidationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return consolidationHooks
}

// Diagnostic returns the registered diagnostic hooks.
func Diagnostic() DiagnosticHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return diagnosticHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	consolidationHooks = NoopConsolidationHooks{}
	diagnosticHooks = NoopDiagnosticHooks{}
}
