// Package profile defines the grouped calling-context tree that callflow
// condenses into a Sankey graph.
//
// A [Dataset] is what the tree builder hands over: for every tree level, a
// set of groups keyed by [labelgraph.Label], a parallel table of
// [ConnectionRecord] values describing the call edges into each group, and
// the per-process metric vectors of every node instance.
//
// # JSON Shape
//
//	{
//	  "groups": {"0": {"main": {"name": "main", "uniqueID": [0], "parentLabel": [], "type": "root"}}},
//	  "connectionInfo": {"1": {"7091": [{"parentNodeID": 0, "parentLabel": "main", "nodeID": 4, ...}]}},
//	  "nodeMetric": {"0": {"inc": [50, 50], "exc": [0, 0]}}
//	}
//
// Labels may be written as strings or as bare numbers.
package profile

import (
	"fmt"
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
)

// NodeID identifies one node instance of the calling-context tree.
type NodeID int

// Metric holds per-process inclusive and exclusive times of one node instance.
type Metric struct {
	Inc []float64 `json:"inc"`
	Exc []float64 `json:"exc"`
}

// IncSum returns the inclusive time summed over processes.
func (m Metric) IncSum() float64 { return sum(m.Inc) }

// ExcSum returns the exclusive time summed over processes.
func (m Metric) ExcSum() float64 { return sum(m.Exc) }

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// NodeType tags what kind of program entity a group stands for.
type NodeType string

const (
	NodeRoot      NodeType = "root"
	NodeModule    NodeType = "module"
	NodeProcedure NodeType = "procedure"
	NodeLoop      NodeType = "loop"
	NodeLine      NodeType = "line"
)

// CallType tags a connection record.
type CallType string

const (
	CallNormal    CallType = "call"
	CallRecursive CallType = "recursive"
	CallLoop      CallType = "loop"
	CallStatement CallType = "statement"
)

// IsCall reports whether c is a genuine call rather than a structural
// wrapper. Untagged records count as calls.
func (c CallType) IsCall() bool {
	switch c {
	case CallNormal, CallRecursive, "":
		return true
	}
	return false
}

// ConnectionRecord is one call edge between two node instances.
//
// Level is the tree level of the child instance. It is filled in from the
// position of the record in [Dataset.Connections] and is kept when the owning
// group is merged into an ancestor, so parent labels can still be resolved
// relative to where the record came from.
type ConnectionRecord struct {
	ParentNodeID NodeID           `json:"parentNodeID"`
	ParentLabel  labelgraph.Label `json:"parentLabel"`
	NodeID       NodeID           `json:"nodeID"`
	ChildLabel   labelgraph.Label `json:"childLabel"`
	CallType     CallType         `json:"callType,omitempty"`
	Time         float64          `json:"time"`
	Level        int              `json:"level"`
}

// GroupSpec is one (level, label) bucket as delivered by the tree builder.
type GroupSpec struct {
	Name         string             `json:"name"`
	UniqueIDs    []NodeID           `json:"uniqueID"`
	ParentLabels []labelgraph.Label `json:"parentLabel"`
	Type         NodeType           `json:"type"`
}

// Dataset is the complete grouped tree.
type Dataset struct {
	Groups      map[int]map[labelgraph.Label]GroupSpec          `json:"groups"`
	Connections map[int]map[labelgraph.Label][]ConnectionRecord `json:"connectionInfo"`
	Metrics     map[NodeID]Metric                               `json:"nodeMetric"`
}

// Levels returns the tree levels that carry groups, in ascending order.
func (d *Dataset) Levels() []int {
	levels := make([]int, 0, len(d.Groups))
	for lvl := range d.Groups {
		levels = append(levels, lvl)
	}
	slices.Sort(levels)
	return levels
}

// NodeCount returns the number of node instances across all groups.
func (d *Dataset) NodeCount() int {
	n := 0
	for _, groups := range d.Groups {
		for _, g := range groups {
			n += len(g.UniqueIDs)
		}
	}
	return n
}

// Validate checks the structural contract of the dataset:
//   - level 0 exists and holds at least one group
//   - levels are not negative and labels are not empty
//   - every node instance belongs to exactly one group
//   - every connection table names a group that exists at its level
//
// Missing metrics are not an error here; the metric aggregation reports them
// as diagnostics. All failures carry [errors.ErrCodeInvalidInput].
func (d *Dataset) Validate() error {
	if len(d.Groups[0]) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "level 0 has no groups")
	}

	owner := make(map[NodeID]string)
	for _, lvl := range d.Levels() {
		if lvl < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "negative level %d", lvl)
		}
		for label, g := range d.Groups[lvl] {
			if label.IsZero() {
				return errors.New(errors.ErrCodeInvalidInput, "level %d: empty label", lvl)
			}
			where := fmt.Sprintf("%d/%s", lvl, label)
			for _, id := range g.UniqueIDs {
				if prev, ok := owner[id]; ok {
					return errors.New(errors.ErrCodeInvalidInput, "node %d in both %s and %s", id, prev, where)
				}
				owner[id] = where
			}
		}
	}

	for lvl, tables := range d.Connections {
		for label := range tables {
			if _, ok := d.Groups[lvl][label]; !ok {
				return errors.New(errors.ErrCodeInvalidInput, "connections for unknown group %d/%s", lvl, label)
			}
		}
	}
	return nil
}
