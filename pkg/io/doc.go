// Package io reads grouped calling-context trees and writes Sankey graphs
// as JSON.
//
// # Dataset Input
//
// A dataset has three tables, all keyed by tree level and label:
//
//	{
//	  "groups": {
//	    "0": {"main": {"name": "main", "uniqueID": [0], "parentLabel": [], "type": "root"}},
//	    "1": {"7091": {"name": "solver", "uniqueID": [1], "parentLabel": ["main"], "type": "module"}}
//	  },
//	  "connectionInfo": {
//	    "1": {"7091": [{"parentNodeID": 0, "parentLabel": "main", "nodeID": 1,
//	                    "childLabel": "7091", "callType": "call", "time": 90}]}
//	  },
//	  "nodeMetric": {
//	    "0": {"inc": [50, 50], "exc": [5, 5]},
//	    "1": {"inc": [45, 45], "exc": [45, 45]}
//	  }
//	}
//
// Labels may be written as strings or numbers. Use [ImportDataset] for a
// file path or [ReadDataset] for any io.Reader. Both validate the dataset.
//
// # Sankey Export
//
// [WriteSankey] and [ExportSankey] write a build result as
//
//	{
//	  "nodes": {"7091": {"sankeyID": 1, "name": "solver", "level": 1, "runTime": 90,
//	                     "uniqueNodeID": [1], "sankeyNodeList": [1]}},
//	  "edges": [{"source": 0, "target": 1, "sourceLabel": "main", "targetLabel": "7091",
//	             "value": 90, "nodeIDList": [1]}],
//	  "nodeList": ["main", "7091"],
//	  "edgeList": [["main", "7091"]],
//	  "connInfo": {"1": [...]}
//	}
//
// Split labels are written as "base_gen", for example "7091_1".
// [ReadSankey] reads the export back for checks and rendering.
package io
