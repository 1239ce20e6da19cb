package sankey

import (
	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// AggregateMetrics fills the Inc/Exc vectors and scalar sums of every group
// from the metrics of its member ids, and returns the reference runtime: the
// summed inclusive time of the level 0 groups.
//
// Vectors of different length are zero-padded to the longest. An id without
// metrics contributes nothing and is reported; so are groups without members
// and a non-positive reference.
func AggregateMetrics(levels Levels, metrics map[profile.NodeID]profile.Metric) (float64, errors.Diagnostics) {
	var diags errors.Diagnostics
	levels.Each(func(g *Group) {
		g.Inc, g.Exc = nil, nil
		g.IncSum, g.ExcSum = 0, 0
		if len(g.IDs) == 0 {
			diags = append(diags, diagnostic(errors.ErrCodeEmptyAggregation, StageAggregate,
				"group %d/%s has no members", g.Level, g.Label))
			return
		}
		for _, id := range g.IDs {
			m, ok := metrics[id]
			if !ok {
				diags = append(diags, diagnostic(errors.ErrCodeInvalidInput, StageAggregate,
					"node %d in %d/%s has no metrics", id, g.Level, g.Label))
				continue
			}
			g.Inc = addVec(g.Inc, m.Inc)
			g.Exc = addVec(g.Exc, m.Exc)
			g.IncSum += m.IncSum()
			g.ExcSum += m.ExcSum()
		}
	})

	var reference float64
	for _, g := range levels[0] {
		reference += g.IncSum
	}
	if reference <= 0 {
		diags = append(diags, diagnostic(errors.ErrCodeEmptyAggregation, StageAggregate,
			"reference runtime is %v", reference))
	}
	return reference, diags
}
