// Package algebra rewrites expression trees: constant folding, operand
// commutation, transposition of comparisons around a column, and conversion
// between predicate trees and their conjunctive or disjunctive term lists.
//
// Every function treats its input as read-only and returns a fresh tree.
// Rewrites that cannot be expressed for the given input fail with an
// ALGEBRA_ERROR, which indicates a planner defect rather than a user error.
package algebra
