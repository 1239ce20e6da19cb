package labelgraph

// IsReachable reports whether target can be reached from source by following
// edges of g. It returns false when source == target or when source has no
// outgoing bucket.
//
// The search is a breadth-first traversal and never mutates g.
func IsReachable(g *Graph, source, target Label) bool {
	if source == target {
		return false
	}
	if _, ok := g.outgoing[source]; !ok {
		return false
	}

	visited := map[Label]bool{source: true}
	queue := []Label{source}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range g.outgoing[curr] {
			if next == target {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
