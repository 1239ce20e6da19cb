package sankey

import (
	"context"
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/observability"
)

// Consolidation is the outcome of [Consolidate]: same-label groups folded
// into one label node wherever that keeps the label graph acyclic.
type Consolidation struct {
	// Graph is the acyclic label graph.
	Graph *labelgraph.Graph

	// Labels maps a group id to its final label.
	Labels []labelgraph.Label

	// LabelList buckets group ids by final label.
	LabelList map[labelgraph.Label][]int

	// Mapping lists, per label, the split labels minted from it in order.
	Mapping map[labelgraph.Label][]labelgraph.Label

	// Minted counts new split labels, Reused counts edges redirected to an
	// existing one.
	Minted, Reused int
}

// Validate returns a GRAPH_HAS_CYCLE error if the label graph is cyclic.
func (c *Consolidation) Validate() error {
	if err := c.Graph.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeGraphHasCycle, err, "consolidated label graph")
	}
	return nil
}

// groupEdge is an edge of the group graph, by group id.
type groupEdge struct{ from, to int }

// consolidator holds the mutable tables of one consolidation.
type consolidator struct {
	groups    []*Group
	graph     *labelgraph.Graph
	labelList map[labelgraph.Label][]int
	mapping   map[labelgraph.Label][]labelgraph.Label
	gens      map[string]int
	parents   map[int][]int      // group id → parent group ids
	visited   map[groupEdge]bool // group edges already folded into graph
	minted    int
	reused    int
}

// Consolidate folds groups into label nodes in ascending id order. For every
// group edge from→to it checks whether to can already reach from in the
// label graph. If not, the edge is added. If it can, the target group is
// moved to a split label instead: the first previously minted alternate of
// to that cannot reach from is reused, otherwise a new one is minted.
//
// When a group moves to a split label, the edges its already visited
// parents gave it are replayed onto the new label, and edges into the old
// label that no remaining group accounts for are removed.
//
// Group labels are retargeted in place. The returned consolidation is
// validated; a cycle yields an error and no result.
func Consolidate(ctx context.Context, gg *GroupGraph) (*Consolidation, error) {
	c := &consolidator{
		groups:    gg.Groups,
		graph:     labelgraph.New(),
		labelList: make(map[labelgraph.Label][]int),
		mapping:   make(map[labelgraph.Label][]labelgraph.Label),
		gens:      make(map[string]int),
		parents:   make(map[int][]int),
		visited:   make(map[groupEdge]bool),
	}
	for id, g := range gg.Groups {
		c.gens[g.Label.Base] = max(c.gens[g.Label.Base], g.Label.Gen)
		for _, connected := range gg.Adjacency[id] {
			c.parents[connected] = append(c.parents[connected], id)
		}
	}

	for id, g := range gg.Groups {
		c.graph.AddNode(g.Label)
		if !slices.Contains(c.labelList[g.Label], id) {
			c.labelList[g.Label] = append(c.labelList[g.Label], id)
		}
		for _, connected := range gg.Adjacency[id] {
			c.visited[groupEdge{id, connected}] = true
			c.addEdge(ctx, g.Label, connected, gg.Groups[connected].Label)
		}
	}

	cons := &Consolidation{
		Graph:     c.graph,
		Labels:    make([]labelgraph.Label, len(gg.Groups)),
		LabelList: c.labelList,
		Mapping:   c.mapping,
		Minted:    c.minted,
		Reused:    c.reused,
	}
	for id, g := range gg.Groups {
		cons.Labels[id] = g.Label
	}
	if err := cons.Validate(); err != nil {
		return nil, err
	}
	return cons, nil
}

func (c *consolidator) addEdge(ctx context.Context, from labelgraph.Label, connected int, to labelgraph.Label) {
	if !labelgraph.IsReachable(c.graph, to, from) {
		c.graph.AddEdge(from, to)
		return
	}

	alt, reused := c.alternate(from, to)
	c.relabel(connected, to, alt)
	c.graph.AddEdge(from, alt)
	observability.Consolidation().OnSplit(ctx, from.String(), to.String(), alt.String(), reused)
	c.replay(ctx, connected, to)
}

// replay re-adds the edges from visited parents of group id, which moved
// off old, and removes their edges into old unless another group labelled
// old still has a visited parent with the same label. A replayed edge goes
// through addEdge, so it may split id again.
func (c *consolidator) replay(ctx context.Context, id int, old labelgraph.Label) {
	for _, p := range c.parents[id] {
		if !c.visited[groupEdge{p, id}] {
			continue
		}
		from := c.groups[p].Label
		if cur := c.groups[id].Label; !c.graph.HasEdge(from, cur) {
			c.addEdge(ctx, from, id, cur)
		}
		if !c.linked(from, old) {
			c.graph.RemoveEdge(from, old)
		}
	}
}

// linked reports whether a visited group edge runs from a group labelled
// from to a group labelled to.
func (c *consolidator) linked(from, to labelgraph.Label) bool {
	for id, g := range c.groups {
		if g.Label != to {
			continue
		}
		for _, p := range c.parents[id] {
			if c.visited[groupEdge{p, id}] && c.groups[p].Label == from {
				return true
			}
		}
	}
	return false
}

// alternate returns a split label of to that from may safely point at.
func (c *consolidator) alternate(from, to labelgraph.Label) (labelgraph.Label, bool) {
	for _, alt := range c.mapping[to] {
		if alt != from && !labelgraph.IsReachable(c.graph, alt, from) {
			c.reused++
			return alt, true
		}
	}
	c.gens[to.Base]++
	alt := labelgraph.Label{Base: to.Base, Gen: c.gens[to.Base]}
	c.mapping[to] = append(c.mapping[to], alt)
	c.minted++
	return alt, false
}

// relabel moves group id from the to bucket into alt. A group that has not
// been visited yet is not in any bucket; it is placed when visited.
func (c *consolidator) relabel(id int, to, alt labelgraph.Label) {
	if i := slices.Index(c.labelList[to], id); i >= 0 {
		c.labelList[to] = slices.Delete(c.labelList[to], i, i+1)
		c.labelList[alt] = append(c.labelList[alt], id)
	}
	if g := c.groups[id]; g.Label == to {
		g.Label = alt
	}
}

// Reconsolidate runs consolidation again over a final graph, one group per
// node in SankeyID order. Consolidating an acyclic graph changes nothing, so
// the result has the same labels and edges as fg and mints no split labels.
func Reconsolidate(ctx context.Context, fg *FinalGraph) (*Consolidation, error) {
	gg := &GroupGraph{
		Adjacency: make(map[int][]int),
		LabelList: make(map[labelgraph.Label][]int),
	}
	for _, n := range fg.Nodes {
		gg.Groups = append(gg.Groups, &Group{
			ID:    n.SankeyID,
			Level: n.Level,
			Label: n.Label,
			Name:  n.Name,
			IDs:   n.UniqueNodeIDs,
		})
		gg.LabelList[n.Label] = append(gg.LabelList[n.Label], n.SankeyID)
	}
	for _, e := range fg.Edges {
		gg.addEdge(e.Source, e.Target)
	}
	return Consolidate(ctx, gg)
}
