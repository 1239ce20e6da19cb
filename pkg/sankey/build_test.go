package sankey

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/observability"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// endToEndDataset is a 3-level tree on two processes: main 100, a 99.5 with
// child c 40, and b 0.5 which falls under the 1% cutoff.
func endToEndDataset() *profile.Dataset {
	return dataset(
		inst{id: 0, level: 0, label: "main", inc: []float64{50, 50}, exc: []float64{0, 0}},
		inst{id: 1, parent: 0, level: 1, label: "a", inc: []float64{49.75, 49.75}, exc: []float64{29.75, 29.75}},
		inst{id: 2, parent: 0, level: 1, label: "b", inc: []float64{0.25, 0.25}, exc: []float64{0.25, 0.25}},
		inst{id: 3, parent: 1, level: 2, label: "c", inc: []float64{20, 20}, exc: []float64{20, 20}},
	)
}

func TestBuild_EndToEnd(t *testing.T) {
	res, err := Build(context.Background(), endToEndDataset(), Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if res.Reference != 100 {
		t.Errorf("Reference = %v, want 100", res.Reference)
	}
	if _, ok := res.Graph.Node(lbl("b")); ok {
		t.Error("pruned branch b is present in the export")
	}
	var prunedRuntime float64
	for _, p := range res.Pruned {
		prunedRuntime += p.Inc
	}
	if prunedRuntime != 0.5 {
		t.Errorf("pruned runtime = %v, want 0.5", prunedRuntime)
	}

	root, ok := res.Graph.Node(lbl("main"))
	if !ok {
		t.Fatal("root node missing")
	}
	if want := res.Reference - prunedRuntime; root.RunTime != want {
		t.Errorf("root RunTime = %v, want %v", root.RunTime, want)
	}

	want := []string{"a->c", "main->a"}
	var got []string
	for _, e := range res.Graph.Edges {
		got = append(got, e.SourceLabel.String()+"->"+e.TargetLabel.String())
	}
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Stats.InputGroups != 4 || res.Stats.KeptGroups != 3 || res.Stats.Nodes != 3 {
		t.Errorf("Stats = %+v, want 4 input groups, 3 kept, 3 nodes", res.Stats)
	}
}

func TestBuild_SplitLabelsAreAcyclic(t *testing.T) {
	res, err := Build(context.Background(), dataset(reuseDataset()...), Options{KeepAll: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	split := labelgraph.Label{Base: "b", Gen: 1}
	n, ok := res.Graph.Node(split)
	if !ok {
		t.Fatal("split label b_1 missing from the export")
	}
	if !slices.Equal(n.UniqueNodeIDs, []profile.NodeID{4, 6}) {
		t.Errorf("b_1.UniqueNodeIDs = %v, want [4 6]", n.UniqueNodeIDs)
	}
	if len(res.Graph.Entries(split)) != 2 {
		t.Errorf("Entries(b_1) = %v, want a->b_1 and z->b_1", res.Graph.Entries(split))
	}
	assertAcyclic(t, res.Consolidation.Graph)
	for _, e := range res.Graph.Edges {
		if res.Graph.Nodes[e.Target].Level <= res.Graph.Nodes[e.Source].Level {
			t.Errorf("edge %s->%s does not point down a level", e.SourceLabel, e.TargetLabel)
		}
	}
}

func TestReconsolidate_Idempotent(t *testing.T) {
	res, err := Build(context.Background(), dataset(reuseDataset()...), Options{KeepAll: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	again, err := Reconsolidate(context.Background(), res.Graph)
	if err != nil {
		t.Fatalf("Reconsolidate() error = %v", err)
	}
	if again.Minted != 0 {
		t.Errorf("Minted = %d, want 0", again.Minted)
	}

	var want []string
	for _, e := range res.Graph.Edges {
		want = append(want, e.SourceLabel.String()+"->"+e.TargetLabel.String())
	}
	slices.Sort(want)
	if got := edgeSet(again.Graph); !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
	for _, n := range res.Graph.Nodes {
		if again.Labels[n.SankeyID] != n.Label {
			t.Errorf("Labels[%d] = %v, want %v", n.SankeyID, again.Labels[n.SankeyID], n.Label)
		}
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		ds   *profile.Dataset
		opts Options
		code errors.Code
	}{
		{
			name: "no root level",
			ds:   &profile.Dataset{},
			code: errors.ErrCodeInvalidInput,
		},
		{
			name: "threshold out of range",
			ds:   endToEndDataset(),
			opts: Options{Threshold: 2},
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "unknown edge weight",
			ds:   endToEndDataset(),
			opts: Options{EdgeWeight: "median"},
			code: errors.ErrCodeInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(context.Background(), tt.ds, tt.opts)
			if err == nil {
				t.Fatalf("Build() = %+v, want error", res)
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v", got, tt.code)
			}
		})
	}
}

func TestBuild_DanglingParentIsRecoverable(t *testing.T) {
	ds := dataset(at(0, 0, 0, "main", 10, 5))
	ds.Groups[1] = map[labelgraph.Label]profile.GroupSpec{
		lbl("a"): {Name: "a", UniqueIDs: []profile.NodeID{1}, ParentLabels: []labelgraph.Label{lbl("ghost")}},
	}
	ds.Connections[1] = map[labelgraph.Label][]profile.ConnectionRecord{
		lbl("a"): {{ParentNodeID: 99, ParentLabel: lbl("ghost"), NodeID: 1, Time: 5}},
	}
	ds.Metrics[1] = profile.Metric{Inc: []float64{5}, Exc: []float64{5}}

	res, err := Build(context.Background(), ds, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !res.Diagnostics.Has(errors.ErrCodeDanglingParent) {
		t.Errorf("Diagnostics = %v, want DANGLING_PARENT", res.Diagnostics)
	}
	if _, ok := res.Graph.Node(lbl("a")); ok {
		t.Error("orphaned node a is present in the export")
	}
	if res.Diagnostics.Has(errors.ErrCodeRuntimeMismatch) {
		t.Errorf("Diagnostics = %v, want the orphan accounted as pruned", res.Diagnostics)
	}
}

func TestBuild_RuntimeMismatch(t *testing.T) {
	// Exclusive times add up to 90, not the root's 100.
	ds := dataset(
		at(0, 0, 0, "main", 100, 40),
		at(1, 0, 1, "a", 50, 50),
	)
	res, err := Build(context.Background(), ds, Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := res.Diagnostics.Count(errors.ErrCodeRuntimeMismatch); got != 1 {
		t.Errorf("RUNTIME_MISMATCH diagnostics = %d, want 1", got)
	}
	if res.Graph == nil || len(res.Graph.Nodes) != 2 {
		t.Errorf("Graph = %+v, want a complete result despite the mismatch", res.Graph)
	}
}

func TestBuild_DoesNotModifyDataset(t *testing.T) {
	ds := dataset(reuseDataset()...)
	if _, err := Build(context.Background(), ds, Options{}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := ds.Groups[3][lbl("b")]; !ok {
		t.Error("dataset group 3/b disappeared")
	}
	if rec := ds.Connections[3][lbl("b")][0]; rec.Level != 0 {
		t.Errorf("dataset record Level = %d, want untouched 0", rec.Level)
	}
}

func TestBuild_ConcurrentRunsShareNothing(t *testing.T) {
	inputs := []func() *profile.Dataset{
		endToEndDataset,
		lightEdgeDataset,
		func() *profile.Dataset { return dataset(reuseDataset()...) },
		func() *profile.Dataset { return dataset(cycleDataset()...) },
	}

	want := make([][]string, len(inputs))
	for i, in := range inputs {
		res, err := Build(context.Background(), in(), Options{KeepAll: true})
		if err != nil {
			t.Fatalf("Build(%d) error = %v", i, err)
		}
		want[i] = edgeSet(res.Consolidation.Graph)
	}

	got := make([][]string, len(inputs)*4)
	ids := make([]string, len(got))
	g, ctx := errgroup.WithContext(context.Background())
	for i := range got {
		g.Go(func() error {
			res, err := Build(ctx, inputs[i%len(inputs)](), Options{KeepAll: true})
			if err != nil {
				return err
			}
			got[i] = edgeSet(res.Consolidation.Graph)
			ids[i] = res.RunID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Build() error = %v", err)
	}
	for i := range got {
		if !slices.Equal(got[i], want[i%len(inputs)]) {
			t.Errorf("run %d edges = %v, want %v", i, got[i], want[i%len(inputs)])
		}
	}
	slices.Sort(ids)
	if len(slices.Compact(ids)) != len(got) {
		t.Error("run ids are not unique")
	}
}

type stageRecorder struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	stages []string
}

func (r *stageRecorder) OnStageComplete(_ context.Context, _, stage string, _ int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func TestBuild_StageHooks(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	if _, err := Build(context.Background(), endToEndDataset(), Options{}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{StageAggregate, StageFilter, StageMerge, StageBuild, StageConsolidate, StageEdges}
	if !slices.Equal(rec.stages, want) {
		t.Errorf("stages = %v, want %v", rec.stages, want)
	}
}
