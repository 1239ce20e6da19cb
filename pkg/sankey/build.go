package sankey

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/observability"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// Stage names used in diagnostics, pruning records and hooks.
const (
	StageAggregate    = "aggregate"
	StageFilter       = "filter"
	StageMerge        = "merge"
	StageBuild        = "build"
	StageConsolidate  = "consolidate"
	StageEdges        = "edges"
	StageNodes        = "nodes"
	StageConservation = "conservation"
)

// ConservationTolerance is the relative tolerance of the runtime
// conservation check.
const ConservationTolerance = 1e-6

// Result is the outcome of one [Build].
type Result struct {
	RunID         string
	Graph         *FinalGraph
	Consolidation *Consolidation
	Reference     float64
	Pruned        []Pruned
	Diagnostics   errors.Diagnostics
	Stats         Stats
}

// Stats summarises a run.
type Stats struct {
	InputGroups   int
	KeptGroups    int
	EmittedGroups int
	GroupEdges    int
	SelfLoops     int
	Minted        int
	Reused        int
	Nodes         int
	Edges         int
	DroppedEdges  int
	Duration      time.Duration
}

// run carries the state of a single Build. Nothing in it outlives the call.
type run struct {
	id      string
	opts    Options
	logger  *log.Logger
	diags   errors.Diagnostics
	pruned  []Pruned
	metrics map[profile.NodeID]profile.Metric
}

// Build condenses ds into a Sankey graph:
//
//	aggregate → filter → merge → build → consolidate → edges
//
// Every call works on its own tables, so concurrent calls on different
// datasets share nothing. ds is not modified.
//
// An invalid dataset yields an INVALID_INPUT error and a cyclic
// consolidation an INTERNAL_ERROR; neither returns a partial result.
// Recoverable problems are collected in Result.Diagnostics.
func Build(ctx context.Context, ds *profile.Dataset, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "sankey options")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	r := &run{
		id:      id,
		opts:    opts,
		logger:  opts.Logger.With("run", id[:8]),
		metrics: ds.Metrics,
	}
	return r.build(ctx, ds)
}

func (r *run) build(ctx context.Context, ds *profile.Dataset) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: r.id}

	levels := NewLevels(ds)
	res.Stats.InputGroups = levels.Count()

	r.stage(ctx, StageAggregate, res.Stats.InputGroups, func() (int, error) {
		ref, diags := AggregateMetrics(levels, ds.Metrics)
		res.Reference = ref
		r.report(ctx, diags...)
		return levels.Count(), nil
	})

	r.stage(ctx, StageFilter, levels.Count(), func() (int, error) {
		var pruned []Pruned
		levels, pruned = FilterInsignificant(levels, res.Reference, r.opts.Threshold)
		r.prune(pruned)
		return levels.Count(), nil
	})
	res.Stats.KeptGroups = levels.Count()

	r.stage(ctx, StageMerge, levels.Count(), func() (int, error) {
		levels = MergeChains(levels)
		return levels.Count(), nil
	})
	res.Stats.EmittedGroups = levels.Count()

	var gg *GroupGraph
	r.stage(ctx, StageBuild, levels.Count(), func() (int, error) {
		gg = BuildLabelGraph(levels)
		r.report(ctx, gg.Diagnostics...)
		return gg.EdgeCount(), nil
	})
	res.Stats.GroupEdges = gg.EdgeCount()
	res.Stats.SelfLoops = gg.SelfLoops

	var cons *Consolidation
	err := r.stage(ctx, StageConsolidate, len(gg.Groups), func() (int, error) {
		var err error
		cons, err = Consolidate(ctx, gg)
		if err != nil {
			return 0, err
		}
		return cons.Graph.NodeCount(), nil
	})
	if err != nil {
		r.logger.Error("consolidation failed", "err", err)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "consolidate")
	}
	res.Consolidation = cons
	res.Stats.Minted = cons.Minted
	res.Stats.Reused = cons.Reused

	var fg *FinalGraph
	r.stage(ctx, StageEdges, cons.Graph.EdgeCount(), func() (int, error) {
		var pruned []Pruned
		var diags errors.Diagnostics
		fg, pruned, diags = AggregateEdges(cons, gg, res.Reference, r.opts)
		r.prune(pruned)
		r.report(ctx, diags...)
		return len(fg.Edges), nil
	})

	fg.attributeRuntime(ds, r.metrics, r.pruned)
	r.checkConservation(ctx, fg, res.Reference)

	res.Graph = fg
	res.Pruned = r.pruned
	res.Diagnostics = r.diags
	res.Stats.Nodes = len(fg.Nodes)
	res.Stats.Edges = len(fg.Edges)
	res.Stats.DroppedEdges = len(fg.DroppedEdges)
	res.Stats.Duration = time.Since(start)

	r.logger.Info("built sankey graph",
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"pruned", len(res.Pruned),
		"minted", res.Stats.Minted,
		"diagnostics", len(res.Diagnostics),
		"duration", res.Stats.Duration)
	return res, nil
}

// stage runs fn between the pipeline hooks and logs its size change.
func (r *run) stage(ctx context.Context, name string, in int, fn func() (int, error)) error {
	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, r.id, name, in)
	out, err := fn()
	d := time.Since(start)
	observability.Pipeline().OnStageComplete(ctx, r.id, name, out, d, err)
	r.logger.Debug("stage complete", "stage", name, "in", in, "out", out, "duration", d)
	return err
}

func (r *run) report(ctx context.Context, diags ...errors.Diagnostic) {
	for _, d := range diags {
		r.logger.Warn(d.Message, "code", d.Code, "stage", d.Stage)
		observability.Diagnostic().OnDiagnostic(ctx, string(d.Code), d.Stage, d.Message)
	}
	r.diags = append(r.diags, diags...)
}

// prune records pruned instances with their metric values.
func (r *run) prune(pruned []Pruned) {
	for _, p := range pruned {
		m := r.metrics[p.NodeID]
		p.Inc, p.Exc = m.IncSum(), m.ExcSum()
		r.pruned = append(r.pruned, p)
	}
}

// checkConservation compares the exclusive time of retained and pruned
// instances with the reference runtime.
func (r *run) checkConservation(ctx context.Context, fg *FinalGraph, reference float64) {
	var retained, pruned float64
	for _, n := range fg.Nodes {
		for _, id := range n.UniqueNodeIDs {
			retained += r.metrics[id].ExcSum()
		}
	}
	for _, p := range r.pruned {
		pruned += p.Exc
	}
	diff := math.Abs(retained + pruned - reference)
	if diff > ConservationTolerance*math.Max(math.Abs(reference), 1e-9) {
		r.report(ctx, diagnostic(errors.ErrCodeRuntimeMismatch, StageConservation,
			"retained %g + pruned %g != reference %g", retained, pruned, reference))
	}
}

// attributeRuntime sets each node's RunTime to the inclusive time of its
// members minus the inclusive time of their pruned direct children.
func (fg *FinalGraph) attributeRuntime(ds *profile.Dataset, metrics map[profile.NodeID]profile.Metric, pruned []Pruned) {
	parentOf := make(map[profile.NodeID]profile.NodeID)
	for _, tables := range ds.Connections {
		for _, records := range tables {
			for _, rec := range records {
				parentOf[rec.NodeID] = rec.ParentNodeID
			}
		}
	}
	lost := make(map[profile.NodeID]float64)
	for _, p := range pruned {
		if parent, ok := parentOf[p.NodeID]; ok {
			lost[parent] += p.Inc
		}
	}
	for i := range fg.Nodes {
		var rt float64
		for _, id := range fg.Nodes[i].UniqueNodeIDs {
			rt += metrics[id].IncSum() - lost[id]
		}
		fg.Nodes[i].RunTime = rt
	}
}

func diagnostic(code errors.Code, stage, format string, args ...any) errors.Diagnostic {
	return errors.Diagnostic{Code: code, Stage: stage, Message: fmt.Sprintf(format, args...)}
}
