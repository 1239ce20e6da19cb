package sankey

import (
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// Pruned records one node instance removed by a threshold.
type Pruned struct {
	NodeID profile.NodeID   `json:"nodeID"`
	Label  labelgraph.Label `json:"label"`
	Level  int              `json:"level"`
	Stage  string           `json:"stage"`
	Inc    float64          `json:"inc"`
	Exc    float64          `json:"exc"`
}

// FilterInsignificant keeps groups whose inclusive time is at least
// threshold*reference and drops the rest. Level 0 is always kept.
//
// A label dropped at level L-1 is removed from the parent lists of the kept
// groups at level L, along with the connection records that name it. Those
// references are not re-attached to a grandparent. No group changes level.
//
// The returned Pruned values carry ids and positions only; metric values are
// filled in by the caller.
func FilterInsignificant(levels Levels, reference, threshold float64) (Levels, []Pruned) {
	cutoff := threshold * reference
	kept := make(Levels, len(levels))
	dropped := make(map[int]map[labelgraph.Label]bool)
	var pruned []Pruned

	levels.Each(func(g *Group) {
		if g.Level == 0 || g.IncSum >= cutoff {
			kept.add(g)
			return
		}
		if dropped[g.Level] == nil {
			dropped[g.Level] = make(map[labelgraph.Label]bool)
		}
		dropped[g.Level][g.Label] = true
		for _, id := range g.IDs {
			pruned = append(pruned, Pruned{NodeID: id, Label: g.Label, Level: g.Level, Stage: StageFilter})
		}
	})

	kept.Each(func(g *Group) {
		above := dropped[g.Level-1]
		if len(above) == 0 {
			return
		}
		g.ParentLabels = slices.DeleteFunc(g.ParentLabels, func(l labelgraph.Label) bool { return above[l] })
		g.Records = slices.DeleteFunc(g.Records, func(r profile.ConnectionRecord) bool {
			return dropped[r.Level-1][r.ParentLabel]
		})
	})
	return kept, pruned
}
