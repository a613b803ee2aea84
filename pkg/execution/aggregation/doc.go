// Package aggregation implements hash GROUP BY.
//
// HashGroupBy drains its child on the first pull, folding every row into the
// accumulators of its group, and then emits one row per group in the order
// the groups were first seen. Supported aggregates are COUNT, COUNT(*), SUM,
// AVG, MIN and MAX. NULL arguments are skipped by every aggregate except
// COUNT(*).
package aggregation
