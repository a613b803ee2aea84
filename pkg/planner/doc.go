// Package planner converts an optimized logical plan into a tree of physical
// operators.
//
// The mapping is structural: every logical node becomes one operator, except
// that a join picks its algorithm from the configured strategy, the shape of
// its qualifier and the row-count estimates of its inputs, and a sort picks
// between the in-memory and the external implementation.
package planner
