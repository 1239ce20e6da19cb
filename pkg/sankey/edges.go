package sankey

import (
	"cmp"
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// FinalNode is one node of the exported Sankey graph.
type FinalNode struct {
	Label         labelgraph.Label
	Name          string
	SankeyID      int
	Level         int
	RunTime       float64
	UniqueNodeIDs []profile.NodeID
	GroupIDs      []int
}

// FinalEdge is one weighted edge of the exported Sankey graph. Source and
// Target are SankeyIDs.
type FinalEdge struct {
	Source, Target           int
	SourceLabel, TargetLabel labelgraph.Label
	Value                    float64
	NodeIDs                  []profile.NodeID
}

// DroppedEdge is a label graph edge left out of the export.
type DroppedEdge struct {
	SourceLabel, TargetLabel labelgraph.Label
	Value                    float64
}

// EdgeTotal accounts for the outgoing weight of one source label.
// Kept + Dropped equals Total.
type EdgeTotal struct {
	Total, Kept, Dropped float64
}

// FinalGraph is the condensed, acyclic, weighted graph. Nodes are ordered by
// SankeyID, which follows (level, label) order.
type FinalGraph struct {
	Nodes []FinalNode
	Edges []FinalEdge

	// ConnInfo maps a group id of a kept node to its connection records.
	ConnInfo map[int][]profile.ConnectionRecord

	DroppedEdges []DroppedEdge
	EdgeTotals   map[labelgraph.Label]EdgeTotal
}

// Node returns the node with the given label.
func (fg *FinalGraph) Node(l labelgraph.Label) (FinalNode, bool) {
	for _, n := range fg.Nodes {
		if n.Label == l {
			return n, true
		}
	}
	return FinalNode{}, false
}

// Entries returns the kept edges into l.
func (fg *FinalGraph) Entries(l labelgraph.Label) []FinalEdge {
	var out []FinalEdge
	for _, e := range fg.Edges {
		if e.TargetLabel == l {
			out = append(out, e)
		}
	}
	return out
}

// Exits returns the kept edges out of l.
func (fg *FinalGraph) Exits(l labelgraph.Label) []FinalEdge {
	var out []FinalEdge
	for _, e := range fg.Edges {
		if e.SourceLabel == l {
			out = append(out, e)
		}
	}
	return out
}

// ConnectionsFor returns the connection records of group id.
func (fg *FinalGraph) ConnectionsFor(id int) []profile.ConnectionRecord {
	return fg.ConnInfo[id]
}

type weighedEdge struct {
	from, to labelgraph.Label
	value    float64
	ids      []profile.NodeID
}

// AggregateEdges turns a consolidation into the final graph.
//
// Each label graph edge source→target is weighted by the records of the
// target's groups whose parent instance belongs to the source and whose call
// type is a genuine call. Edges without contributing calls and edges below
// threshold*reference are dropped; their contributing child ids leave the
// target unless a kept edge also carries them. Nodes left without members and non-root nodes without kept
// edges are then dropped until nothing changes.
//
// RunTime is left at zero; [Build] attributes it from the metrics.
func AggregateEdges(cons *Consolidation, gg *GroupGraph, reference float64, opts Options) (*FinalGraph, []Pruned, errors.Diagnostics) {
	var (
		diags  errors.Diagnostics
		pruned []Pruned
	)
	cutoff := opts.Threshold * reference

	labels := cons.Graph.Nodes()
	members := make(map[labelgraph.Label][]profile.NodeID, len(labels))
	memberOf := make(map[profile.NodeID]labelgraph.Label)
	levelOf := make(map[profile.NodeID]int)
	roots := make(map[labelgraph.Label]bool)
	for _, l := range labels {
		for _, gid := range cons.LabelList[l] {
			g := gg.Groups[gid]
			members[l] = append(members[l], g.IDs...)
			for _, id := range g.IDs {
				memberOf[id] = l
				levelOf[id] = g.Level
			}
			if g.Level == 0 {
				roots[l] = true
			}
		}
	}

	fg := &FinalGraph{
		ConnInfo:   make(map[int][]profile.ConnectionRecord),
		EdgeTotals: make(map[labelgraph.Label]EdgeTotal),
	}

	var kept []weighedEdge
	carried := make(map[labelgraph.Label]map[profile.NodeID]bool)
	var dropped []weighedEdge
	for _, e := range cons.Graph.Edges() {
		w := weighEdge(e, cons, gg, memberOf, opts.EdgeWeight)
		if opts.EdgeWeight == EdgeWeightMean && len(w.ids) == 0 {
			diags = append(diags, diagnostic(errors.ErrCodeEmptyAggregation, StageEdges,
				"edge %s->%s has no contributing calls", e.From, e.To))
		}
		total := fg.EdgeTotals[e.From]
		total.Total += w.value
		if len(w.ids) > 0 && w.value >= cutoff {
			kept = append(kept, w)
			if carried[e.To] == nil {
				carried[e.To] = make(map[profile.NodeID]bool)
			}
			for _, id := range w.ids {
				carried[e.To][id] = true
			}
		} else {
			total.Dropped += w.value
			dropped = append(dropped, w)
		}
		fg.EdgeTotals[e.From] = total
	}

	for _, w := range dropped {
		fg.DroppedEdges = append(fg.DroppedEdges, DroppedEdge{SourceLabel: w.from, TargetLabel: w.to, Value: w.value})
		for _, id := range w.ids {
			if carried[w.to][id] || !slices.Contains(members[w.to], id) {
				continue
			}
			members[w.to] = slices.DeleteFunc(members[w.to], func(m profile.NodeID) bool { return m == id })
			pruned = append(pruned, Pruned{NodeID: id, Label: w.to, Level: levelOf[id], Stage: StageEdges})
		}
	}

	alive := make(map[labelgraph.Label]bool, len(labels))
	for _, l := range labels {
		alive[l] = true
	}
	for changed := true; changed; {
		changed = false
		for _, l := range labels {
			if !alive[l] {
				continue
			}
			if len(members[l]) > 0 && (roots[l] || hasEdge(kept, l)) {
				continue
			}
			alive[l] = false
			changed = true
			for _, id := range members[l] {
				pruned = append(pruned, Pruned{NodeID: id, Label: l, Level: levelOf[id], Stage: StageNodes})
			}
			kept = slices.DeleteFunc(kept, func(w weighedEdge) bool {
				if w.from != l && w.to != l {
					return false
				}
				total := fg.EdgeTotals[w.from]
				total.Dropped += w.value
				fg.EdgeTotals[w.from] = total
				fg.DroppedEdges = append(fg.DroppedEdges, DroppedEdge{SourceLabel: w.from, TargetLabel: w.to, Value: w.value})
				return true
			})
		}
	}

	dag := labelgraph.New()
	for _, l := range labels {
		if alive[l] {
			dag.AddNode(l)
		}
	}
	for _, w := range kept {
		dag.AddEdge(w.from, w.to)
		total := fg.EdgeTotals[w.from]
		total.Kept += w.value
		fg.EdgeTotals[w.from] = total
	}
	levels, err := labelgraph.AssignLevels(dag)
	if err != nil {
		// unreachable: dag is a subgraph of a validated graph
		panic(err)
	}

	order := dag.Nodes()
	slices.SortFunc(order, func(a, b labelgraph.Label) int {
		return cmp.Or(cmp.Compare(levels[a], levels[b]), labelgraph.Compare(a, b))
	})
	sankeyID := make(map[labelgraph.Label]int, len(order))
	for i, l := range order {
		sankeyID[l] = i
		n := FinalNode{
			Label:         l,
			SankeyID:      i,
			Level:         levels[l],
			UniqueNodeIDs: members[l],
			GroupIDs:      slices.Clone(cons.LabelList[l]),
		}
		slices.Sort(n.GroupIDs)
		for _, gid := range n.GroupIDs {
			g := gg.Groups[gid]
			if n.Name == "" {
				n.Name = g.Name
			}
			fg.ConnInfo[gid] = g.Records
		}
		fg.Nodes = append(fg.Nodes, n)
	}

	for _, w := range kept {
		fg.Edges = append(fg.Edges, FinalEdge{
			Source:      sankeyID[w.from],
			Target:      sankeyID[w.to],
			SourceLabel: w.from,
			TargetLabel: w.to,
			Value:       w.value,
			NodeIDs:     w.ids,
		})
	}
	return fg, pruned, diags
}

// weighEdge sums or averages the time of the calls from e.From into e.To.
func weighEdge(e labelgraph.Edge, cons *Consolidation, gg *GroupGraph, memberOf map[profile.NodeID]labelgraph.Label, mode EdgeWeight) weighedEdge {
	w := weighedEdge{from: e.From, to: e.To}
	var sum float64
	var n int
	for _, gid := range cons.LabelList[e.To] {
		for _, rec := range gg.Groups[gid].Records {
			if !rec.CallType.IsCall() {
				continue
			}
			if l, ok := memberOf[rec.ParentNodeID]; !ok || l != e.From {
				continue
			}
			sum += rec.Time
			n++
			if !slices.Contains(w.ids, rec.NodeID) {
				w.ids = append(w.ids, rec.NodeID)
			}
		}
	}
	w.value = sum
	if mode == EdgeWeightMean {
		w.value = sum / float64(max(n, 1))
	}
	return w
}

func hasEdge(edges []weighedEdge, l labelgraph.Label) bool {
	for _, w := range edges {
		if w.from == l || w.to == l {
			return true
		}
	}
	return false
}
