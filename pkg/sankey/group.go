package sankey

import (
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
)

// Group is the working form of one (level, label) bucket. Stages shrink,
// absorb and relabel groups in place.
type Group struct {
	ID           int // assigned by BuildLabelGraph, -1 before
	Level        int
	Label        labelgraph.Label
	Name         string
	Type         profile.NodeType
	IDs          []profile.NodeID
	ParentLabels []labelgraph.Label
	Records      []profile.ConnectionRecord

	Inc, Exc       []float64 // per-process sums over IDs
	IncSum, ExcSum float64
}

// absorb merges o into g: ids, records and metric vectors are appended and
// o's parent labels other than g's own label are added to g's.
func (g *Group) absorb(o *Group) {
	g.IDs = append(g.IDs, o.IDs...)
	g.Records = append(g.Records, o.Records...)
	g.Inc = addVec(g.Inc, o.Inc)
	g.Exc = addVec(g.Exc, o.Exc)
	g.IncSum += o.IncSum
	g.ExcSum += o.ExcSum
	for _, p := range o.ParentLabels {
		if p != g.Label && !slices.Contains(g.ParentLabels, p) {
			g.ParentLabels = append(g.ParentLabels, p)
		}
	}
}

// addVec adds src into dst elementwise, growing dst with zeros if src is
// longer.
func addVec(dst, src []float64) []float64 {
	for len(dst) < len(src) {
		dst = append(dst, 0)
	}
	for i, v := range src {
		dst[i] += v
	}
	return dst
}

// Levels indexes groups by tree level and label.
type Levels map[int]map[labelgraph.Label]*Group

// NewLevels converts a dataset into working groups. Connection records get
// their Level from the table they sit in, and an empty ChildLabel is filled
// with the owning group's label. The dataset itself is not modified.
func NewLevels(ds *profile.Dataset) Levels {
	levels := make(Levels, len(ds.Groups))
	for lvl, groups := range ds.Groups {
		for label, spec := range groups {
			g := &Group{
				ID:           -1,
				Level:        lvl,
				Label:        label,
				Name:         spec.Name,
				Type:         spec.Type,
				IDs:          slices.Clone(spec.UniqueIDs),
				ParentLabels: uniqueLabels(spec.ParentLabels),
			}
			if g.Name == "" {
				g.Name = label.String()
			}
			for _, rec := range ds.Connections[lvl][label] {
				rec.Level = lvl
				if rec.ChildLabel.IsZero() {
					rec.ChildLabel = label
				}
				g.Records = append(g.Records, rec)
			}
			levels.add(g)
		}
	}
	return levels
}

func uniqueLabels(labels []labelgraph.Label) []labelgraph.Label {
	out := make([]labelgraph.Label, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

func (ls Levels) add(g *Group) {
	if ls[g.Level] == nil {
		ls[g.Level] = make(map[labelgraph.Label]*Group)
	}
	ls[g.Level][g.Label] = g
}

// Sorted returns the levels in ascending order.
func (ls Levels) Sorted() []int {
	out := make([]int, 0, len(ls))
	for lvl := range ls {
		out = append(out, lvl)
	}
	slices.Sort(out)
	return out
}

// Labels returns the labels at level in [labelgraph.Compare] order.
func (ls Levels) Labels(level int) []labelgraph.Label {
	out := make([]labelgraph.Label, 0, len(ls[level]))
	for l := range ls[level] {
		out = append(out, l)
	}
	slices.SortFunc(out, labelgraph.Compare)
	return out
}

// Each calls fn for every group in level order, labels sorted within a level.
func (ls Levels) Each(fn func(*Group)) {
	for _, lvl := range ls.Sorted() {
		for _, l := range ls.Labels(lvl) {
			fn(ls[lvl][l])
		}
	}
}

// Count returns the number of groups.
func (ls Levels) Count() int {
	n := 0
	for _, groups := range ls {
		n += len(groups)
	}
	return n
}

// nearest returns the closest level at or above from that holds a group
// labelled l.
func (ls Levels) nearest(l labelgraph.Label, from int) (int, bool) {
	for lvl := from; lvl >= 0; lvl-- {
		if _, ok := ls[lvl][l]; ok {
			return lvl, true
		}
	}
	return -1, false
}
