// Package join implements the physical join operators.
//
// Every operator produces outer ‖ inner rows, or the join's target list
// evaluated against them. The join qualifier is split once by Condition into
// equality keys (one expression per side) and a residual predicate.
//
//   - NestedLoopJoin rescans the inner input for every outer tuple and works
//     with any qualifier, including none (cross join).
//   - BlockNestedLoopJoin rescans the inner input once per block of outer
//     tuples.
//   - HashJoin builds a table on one side and probes it with the other. It
//     needs at least one equality key. When the build side outgrows its row
//     limit both sides are partitioned to disk (grace hash join).
//   - SortMergeJoin merges two inputs sorted ascending on the keys.
package join
