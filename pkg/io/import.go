package io

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/profile"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

// ReadDataset decodes a grouped calling-context tree from r.
//
// The input must be a JSON object with "groups", "connectionInfo" and
// "nodeMetric" tables (see [profile.Dataset]). Labels may be strings or
// numbers. The dataset is validated before it is returned.
//
// Malformed JSON yields an INVALID_FORMAT error; a structurally invalid
// dataset an INVALID_INPUT error. ReadDataset does not close r.
func ReadDataset(r io.Reader) (*profile.Dataset, error) {
	var ds profile.Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode dataset")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// ImportDataset reads a dataset file at path using [ReadDataset].
// A missing file yields a FILE_NOT_FOUND error.
func ImportDataset(path string) (*profile.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadSankey decodes a file written by [WriteSankey] back into a final
// graph. Nodes are ordered by sankeyID. Dropped edges and edge totals are
// not part of the export and stay empty.
func ReadSankey(r io.Reader) (*sankey.FinalGraph, error) {
	var doc sankeyDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode sankey")
	}

	fg := &sankey.FinalGraph{ConnInfo: doc.ConnInfo}
	for label, n := range doc.Nodes {
		fg.Nodes = append(fg.Nodes, sankey.FinalNode{
			Label:         label,
			Name:          n.Name,
			SankeyID:      n.SankeyID,
			Level:         n.Level,
			RunTime:       n.RunTime,
			UniqueNodeIDs: n.UniqueNodeID,
			GroupIDs:      n.SankeyNodeList,
		})
	}
	slices.SortFunc(fg.Nodes, func(a, b sankey.FinalNode) int { return a.SankeyID - b.SankeyID })
	for i, n := range fg.Nodes {
		if n.SankeyID != i {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %s: sankeyID %d, want %d", n.Label, n.SankeyID, i)
		}
	}

	for _, e := range doc.Edges {
		if e.Source < 0 || e.Source >= len(fg.Nodes) || e.Target < 0 || e.Target >= len(fg.Nodes) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s: sankeyID out of range", e.SourceLabel, e.TargetLabel)
		}
		fg.Edges = append(fg.Edges, sankey.FinalEdge{
			Source:      e.Source,
			Target:      e.Target,
			SourceLabel: e.SourceLabel,
			TargetLabel: e.TargetLabel,
			Value:       e.Value,
			NodeIDs:     e.NodeIDList,
		})
	}
	return fg, nil
}

// ImportSankey reads a Sankey export at path using [ReadSankey].
func ImportSankey(path string) (*sankey.FinalGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadSankey(f)
}
