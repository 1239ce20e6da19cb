// Package sankey condenses a grouped calling-context tree into an acyclic,
// weighted graph for a Sankey diagram.
//
// # Pipeline
//
// [Build] runs six stages over a [profile.Dataset]:
//
//  1. [AggregateMetrics] sums the per-process metric vectors of every group
//     and derives the reference runtime from the root.
//  2. [FilterInsignificant] drops groups below a fraction of the reference
//     runtime and cuts the parent references that pointed at them.
//  3. [MergeChains] collapses vertical runs of same-label groups.
//  4. [BuildLabelGraph] numbers the groups and derives group-level edges.
//  5. [Consolidate] folds same-label groups into one label node unless that
//     would close a cycle, in which case the target is moved to a split
//     label such as "7091_1".
//  6. [AggregateEdges] weighs label edges by their calls, drops light edges
//     and the nodes they leave stranded, and assigns Sankey levels.
//
// Each stage is exported and can be run on its own; [Build] adds logging,
// observability hooks, runtime attribution and the conservation check.
//
// # Split Labels
//
// A calling-context tree projected onto module labels is generally cyclic:
// the same module is reached through different call chains. Consolidation
// keeps the graph acyclic by checking, for every edge from→to, whether to
// can already reach from. If it can, the target group is given a split
// label. Split labels are remembered per label and reused by later edges
// whenever that is safe, so only as many are minted as needed.
//
// # Diagnostics
//
// Problems that do not invalidate the result are reported as
// [errors.Diagnostic] values on the [Result]:
//
//   - DANGLING_PARENT: a record's parent label exists at no level above it
//   - EMPTY_AGGREGATION: a sum or mean over nothing, or a zero reference
//   - RUNTIME_MISMATCH: retained plus pruned exclusive time does not add up
//     to the reference runtime
//   - INVALID_INPUT: a node instance has no metrics
package sankey
