package labelgraph

// AssignLevels computes a Sankey column for every label using a longest-path
// layering over a topological sort (Kahn's algorithm). Sources sit at level
// 0 and every label is placed one past the deepest of its parents, so all
// edges point strictly to higher levels.
//
// Returns ErrGraphHasCycle if some labels never reach in-degree zero.
//
// Time complexity is O(V + E).
func AssignLevels(g *Graph) (map[Label]int, error) {
	order, err := TopologicalOrder(g)
	if err != nil {
		return nil, err
	}

	levels := make(map[Label]int, len(order))
	for _, l := range order {
		for _, child := range g.Children(l) {
			if lvl := levels[l] + 1; lvl > levels[child] {
				levels[child] = lvl
			}
		}
	}
	return levels, nil
}

// TopologicalOrder returns the labels of g so that every edge points forward.
// Ties are broken by insertion order.
func TopologicalOrder(g *Graph) ([]Label, error) {
	nodes := g.Nodes()
	inDegree := make(map[Label]int, len(nodes))
	for _, l := range nodes {
		inDegree[l] = len(g.Parents(l))
	}

	queue := g.Sources()

	order := make([]Label, 0, len(nodes))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, child := range g.Children(curr) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, ErrGraphHasCycle
	}
	return order, nil
}
