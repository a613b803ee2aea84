// Package execution holds the leaf and row-at-a-time physical operators of
// the query engine.
//
// The engine uses the iterator (volcano) model: every operator implements
// iterator.DbIterator. Operators are composed into a tree; calling Next on
// the root pulls one row at a time through the pipeline. Blocking operators
// live in the sub-packages.
//
// # Sub-packages
//
//   - [sqlcore/pkg/execution/sort]        – in-memory and external sort.
//   - [sqlcore/pkg/execution/aggregation] – hash GROUP BY with COUNT, SUM,
//     AVG, MIN and MAX.
//   - [sqlcore/pkg/execution/join]        – nested-loop, block nested-loop,
//     hash and sort-merge joins.
//
// # Execution flow
//
// The planner converts an optimized logical plan into an operator tree. The
// caller opens the root, pulls until Next returns nil and closes the root,
// which closes every operator below it.
package execution
