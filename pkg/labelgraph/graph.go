package labelgraph

import (
	"errors"
	"slices"
)

// ErrGraphHasCycle is returned by [Graph.Validate] and [AssignLevels] when
// a directed cycle exists. Self-loops are never stored, so any cycle
// reported here spans at least two labels.
var ErrGraphHasCycle = errors.New("label graph contains a cycle")

// Edge is a directed connection between two labels.
type Edge struct {
	From Label
	To   Label
}

// Graph is a directed graph keyed by [Label]. Every registered label owns an
// outgoing bucket, possibly empty. Edges are unique and self-loops are
// rejected: same-label connections are bookkeeping, not structure.
//
// Iteration order is insertion order, which keeps consolidation
// deterministic. The zero value is not usable - use New.
// Graph is not safe for concurrent use.
type Graph struct {
	order    []Label
	outgoing map[Label][]Label
	incoming map[Label][]Label
	edges    int
}

// New creates an empty label graph.
func New() *Graph {
	return &Graph{
		outgoing: make(map[Label][]Label),
		incoming: make(map[Label][]Label),
	}
}

// AddNode registers l with an empty outgoing bucket. It reports whether l
// was newly added.
func (g *Graph) AddNode(l Label) bool {
	if _, ok := g.outgoing[l]; ok {
		return false
	}
	g.order = append(g.order, l)
	g.outgoing[l] = []Label{}
	return true
}

// HasNode reports whether l has an outgoing bucket.
func (g *Graph) HasNode(l Label) bool {
	_, ok := g.outgoing[l]
	return ok
}

// AddEdge adds from→to, registering both labels if needed. Self-loops and
// duplicate edges are ignored; the return value reports whether an edge was
// actually added.
func (g *Graph) AddEdge(from, to Label) bool {
	g.AddNode(from)
	g.AddNode(to)
	if from == to || g.HasEdge(from, to) {
		return false
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	g.edges++
	return true
}

// HasEdge reports whether from→to exists.
func (g *Graph) HasEdge(from, to Label) bool {
	return slices.Contains(g.outgoing[from], to)
}

// RemoveEdge removes from→to if it exists.
func (g *Graph) RemoveEdge(from, to Label) {
	if !g.HasEdge(from, to) {
		return
	}
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(l Label) bool { return l == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(l Label) bool { return l == from })
	g.edges--
}

// Nodes returns all labels in insertion order.
func (g *Graph) Nodes() []Label { return slices.Clone(g.order) }

// Edges returns all edges, grouped by source in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for _, from := range g.order {
		for _, to := range g.outgoing[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// NodeCount returns the number of registered labels.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Children returns the successors of l. The slice must not be modified.
func (g *Graph) Children(l Label) []Label { return g.outgoing[l] }

// Parents returns the predecessors of l. The slice must not be modified.
func (g *Graph) Parents(l Label) []Label { return g.incoming[l] }

// Sources returns labels without incoming edges, in insertion order.
func (g *Graph) Sources() []Label {
	var sources []Label
	for _, l := range g.order {
		if len(g.incoming[l]) == 0 {
			sources = append(sources, l)
		}
	}
	return sources
}

// Validate returns ErrGraphHasCycle if g contains a directed cycle.
// Detection uses depth-first search with white/gray/black coloring.
func (g *Graph) Validate() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[Label]int, len(g.order))
	var hasCycle bool

	var dfs func(l Label)
	dfs = func(l Label) {
		color[l] = gray
		for _, child := range g.outgoing[l] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[l] = black
	}

	for _, l := range g.order {
		if color[l] == white {
			dfs(l)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
