// Package labelgraph provides the label-level graph used to condense a
// calling-context tree into a Sankey diagram.
//
// # Overview
//
// A calling-context tree projected onto semantic labels (load modules,
// procedures) is generally not acyclic: the same module is reached through
// several call paths, some of which pass through each other. A Sankey layout
// needs a strict DAG with monotonic columns. This package provides the graph
// value the consolidator mutates while it merges groups, plus the
// reachability and layering primitives it relies on.
//
// # Labels
//
// [Label] replaces string ids that double as split labels ("7091" vs
// "7091_1"). It carries the semantic base id and an explicit split
// generation, so no string/number coercion is ever needed:
//
//	l := labelgraph.NewLabel("7091")
//	split := labelgraph.Label{Base: "7091", Gen: 1}
//	fmt.Println(split)          // 7091_1
//	fmt.Println(split.Origin()) // 7091
//
// # Graph
//
// [Graph] keeps an outgoing bucket for every registered label, rejects
// self-loops and duplicate edges, and iterates in insertion order:
//
//	g := labelgraph.New()
//	g.AddEdge(labelgraph.NewLabel("main"), labelgraph.NewLabel("libmpi"))
//	labelgraph.IsReachable(g, labelgraph.NewLabel("main"), labelgraph.NewLabel("libmpi")) // true
//
// [Graph.Validate] detects cycles with a white/gray/black depth-first search.
// [AssignLevels] assigns Sankey columns with a longest-path layering.
//
// # Concurrency
//
// Graph values are not safe for concurrent use. The consolidator allocates a
// fresh Graph per call, so independent runs never share one.
package labelgraph
