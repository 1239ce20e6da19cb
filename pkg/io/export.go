package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

type sankeyDoc struct {
	Nodes       map[labelgraph.Label]sankeyNode    `json:"nodes"`
	Edges       []sankeyEdge                       `json:"edges"`
	NodeList    []labelgraph.Label                 `json:"nodeList"`
	EdgeList    [][2]labelgraph.Label              `json:"edgeList"`
	ConnInfo    map[int][]profile.ConnectionRecord `json:"connInfo"`
	RunID       string                             `json:"runID,omitempty"`
	Reference   float64                            `json:"reference,omitempty"`
	Diagnostics errors.Diagnostics                 `json:"diagnostics,omitempty"`
}

type sankeyNode struct {
	SankeyID       int              `json:"sankeyID"`
	Name           string           `json:"name"`
	Level          int              `json:"level"`
	RunTime        float64          `json:"runTime"`
	UniqueNodeID   []profile.NodeID `json:"uniqueNodeID"`
	SankeyNodeList []int            `json:"sankeyNodeList"`
}

type sankeyEdge struct {
	Source      int              `json:"source"`
	Target      int              `json:"target"`
	SourceLabel labelgraph.Label `json:"sourceLabel"`
	TargetLabel labelgraph.Label `json:"targetLabel"`
	Value       float64          `json:"value"`
	NodeIDList  []profile.NodeID `json:"nodeIDList"`
}

// WriteSankey encodes a build result in the Sankey export format and writes
// it to w. Nodes are keyed by label; sankeyNodeList holds the ids of the
// groups folded into each node.
func WriteSankey(res *sankey.Result, w io.Writer) error {
	fg := res.Graph
	out := sankeyDoc{
		Nodes:       make(map[labelgraph.Label]sankeyNode, len(fg.Nodes)),
		Edges:       make([]sankeyEdge, len(fg.Edges)),
		NodeList:    make([]labelgraph.Label, len(fg.Nodes)),
		EdgeList:    make([][2]labelgraph.Label, len(fg.Edges)),
		ConnInfo:    fg.ConnInfo,
		RunID:       res.RunID,
		Reference:   res.Reference,
		Diagnostics: res.Diagnostics,
	}

	for i, n := range fg.Nodes {
		out.Nodes[n.Label] = sankeyNode{
			SankeyID:       n.SankeyID,
			Name:           n.Name,
			Level:          n.Level,
			RunTime:        n.RunTime,
			UniqueNodeID:   nonNil(n.UniqueNodeIDs),
			SankeyNodeList: nonNil(n.GroupIDs),
		}
		out.NodeList[i] = n.Label
	}
	for i, e := range fg.Edges {
		out.Edges[i] = sankeyEdge{
			Source:      e.Source,
			Target:      e.Target,
			SourceLabel: e.SourceLabel,
			TargetLabel: e.TargetLabel,
			Value:       e.Value,
			NodeIDList:  nonNil(e.NodeIDs),
		}
		out.EdgeList[i] = [2]labelgraph.Label{e.SourceLabel, e.TargetLabel}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSankey writes a build result to a JSON file at path.
// This is a convenience wrapper around [WriteSankey] for file-based output.
func ExportSankey(res *sankey.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSankey(res, f)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
