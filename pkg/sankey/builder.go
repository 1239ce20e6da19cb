package sankey

import (
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// GroupGraph is the group-level graph produced by [BuildLabelGraph].
type GroupGraph struct {
	// Groups is indexed by Group.ID.
	Groups []*Group

	// Adjacency maps a group id to its child group ids, without duplicates,
	// in the order the edges were found.
	Adjacency map[int][]int

	// LabelList buckets group ids by label.
	LabelList map[labelgraph.Label][]int

	// SelfLoops counts records whose parent instance sits in the same group.
	SelfLoops int

	Diagnostics errors.Diagnostics
}

// EdgeCount returns the number of group-level edges.
func (gg *GroupGraph) EdgeCount() int {
	n := 0
	for _, children := range gg.Adjacency {
		n += len(children)
	}
	return n
}

// BuildLabelGraph assigns sequential ids to the emitted groups in level
// order and derives group-level edges from their connection records.
//
// A record whose parent instance belongs to the same group is counted as a
// self-loop. Otherwise its parent label is resolved to the nearest group
// with that label, scanning upward from the level above the record. A
// parent that cannot be found is reported as a DANGLING_PARENT diagnostic
// and contributes no edge.
func BuildLabelGraph(emitted Levels) *GroupGraph {
	gg := &GroupGraph{
		Adjacency: make(map[int][]int),
		LabelList: make(map[labelgraph.Label][]int),
	}

	owner := make(map[profile.NodeID]int)
	emitted.Each(func(g *Group) {
		g.ID = len(gg.Groups)
		gg.Groups = append(gg.Groups, g)
		gg.LabelList[g.Label] = append(gg.LabelList[g.Label], g.ID)
		for _, id := range g.IDs {
			owner[id] = g.ID
		}
	})

	for _, g := range gg.Groups {
		for _, rec := range g.Records {
			if rec.Level <= 0 {
				continue
			}
			if p, ok := owner[rec.ParentNodeID]; ok && p == g.ID {
				gg.SelfLoops++
				continue
			}
			lvl, ok := emitted.nearest(rec.ParentLabel, rec.Level-1)
			if !ok {
				gg.Diagnostics = append(gg.Diagnostics, diagnostic(errors.ErrCodeDanglingParent, StageBuild,
					"node %d at level %d: parent %s not found above", rec.NodeID, rec.Level, rec.ParentLabel))
				continue
			}
			gg.addEdge(emitted[lvl][rec.ParentLabel].ID, g.ID)
		}
	}
	return gg
}

func (gg *GroupGraph) addEdge(from, to int) {
	if from == to {
		gg.SelfLoops++
		return
	}
	if !slices.Contains(gg.Adjacency[from], to) {
		gg.Adjacency[from] = append(gg.Adjacency[from], to)
	}
}
