// Package pkg provides the core libraries for CallFlow.
//
// # Overview
//
// CallFlow condenses a grouped calling-context tree (one group per semantic
// label per tree level) into an acyclic Sankey graph. The pkg directory is
// organized as:
//
//  1. [profile] - Input data model (groups, connection records, metrics)
//  2. [labelgraph] - Labels, the mutable label graph and reachability
//  3. [sankey] - The condensation pipeline and the final graph
//  4. [io] - JSON input and Sankey export
//  5. [render] - DOT, SVG, PNG and PDF output
//  6. [pipeline] - Orchestration (load → build → render)
//  7. [errors] and [observability] - Coded errors, diagnostics and hooks
//
// # Data Flow
//
//	dataset.json
//	     ↓  io.ImportDataset
//	profile.Dataset
//	     ↓  sankey.Build
//	     │    aggregate → filter → merge → build → consolidate → edges
//	sankey.Result
//	     ↓  io.WriteSankey / nodelink.ToDOT
//	profile.sankey.json, profile.sankey.svg
package pkg
