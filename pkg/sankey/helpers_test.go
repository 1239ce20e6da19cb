package sankey

import (
	"slices"
	"testing"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

func lbl(s string) labelgraph.Label { return labelgraph.NewLabel(s) }

// inst is one node instance of a synthetic calling-context tree.
type inst struct {
	id       profile.NodeID
	parent   profile.NodeID
	level    int
	label    string
	inc, exc []float64
	call     profile.CallType
}

// at builds a single-process instance.
func at(id, parent profile.NodeID, level int, label string, inc, exc float64) inst {
	return inst{id: id, parent: parent, level: level, label: label, inc: []float64{inc}, exc: []float64{exc}}
}

// dataset groups instances by (level, label) the way the tree builder does.
// Each non-root instance gets a connection record from its parent whose time
// is the instance's inclusive time.
func dataset(insts ...inst) *profile.Dataset {
	ds := &profile.Dataset{
		Groups:      make(map[int]map[labelgraph.Label]profile.GroupSpec),
		Connections: make(map[int]map[labelgraph.Label][]profile.ConnectionRecord),
		Metrics:     make(map[profile.NodeID]profile.Metric),
	}
	byID := make(map[profile.NodeID]inst, len(insts))
	for _, in := range insts {
		byID[in.id] = in
	}

	for _, in := range insts {
		l := lbl(in.label)
		if ds.Groups[in.level] == nil {
			ds.Groups[in.level] = make(map[labelgraph.Label]profile.GroupSpec)
			ds.Connections[in.level] = make(map[labelgraph.Label][]profile.ConnectionRecord)
		}
		spec := ds.Groups[in.level][l]
		spec.Name = in.label
		spec.Type = profile.NodeModule
		if in.level == 0 {
			spec.Type = profile.NodeRoot
		}
		spec.UniqueIDs = append(spec.UniqueIDs, in.id)

		if in.level > 0 {
			p := byID[in.parent]
			pl := lbl(p.label)
			if !slices.Contains(spec.ParentLabels, pl) {
				spec.ParentLabels = append(spec.ParentLabels, pl)
			}
			m := profile.Metric{Inc: in.inc}
			ds.Connections[in.level][l] = append(ds.Connections[in.level][l], profile.ConnectionRecord{
				ParentNodeID: p.id,
				ParentLabel:  pl,
				NodeID:       in.id,
				ChildLabel:   l,
				CallType:     in.call,
				Time:         m.IncSum(),
			})
		}
		ds.Groups[in.level][l] = spec
		ds.Metrics[in.id] = profile.Metric{Inc: in.inc, Exc: in.exc}
	}
	return ds
}

// groupGraph runs the structural stages without metrics or filtering.
func groupGraph(ds *profile.Dataset) *GroupGraph {
	return BuildLabelGraph(MergeChains(NewLevels(ds)))
}

// edgeSet renders edges as "from->to" strings, sorted.
func edgeSet(g *labelgraph.Graph) []string {
	var out []string
	for _, e := range g.Edges() {
		out = append(out, e.From.String()+"->"+e.To.String())
	}
	slices.Sort(out)
	return out
}

// assertAcyclic checks g with gonum's topological sort, independently of
// labelgraph's own cycle detection.
func assertAcyclic(t *testing.T, g *labelgraph.Graph) {
	t.Helper()
	dg := simple.NewDirectedGraph()
	ids := make(map[labelgraph.Label]int64)
	for i, l := range g.Nodes() {
		ids[l] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges() {
		dg.SetEdge(simple.Edge{F: simple.Node(ids[e.From]), T: simple.Node(ids[e.To])})
	}
	if _, err := topo.Sort(dg); err != nil {
		t.Errorf("label graph is not topologically sortable: %v (edges %v)", err, edgeSet(g))
	}
}
