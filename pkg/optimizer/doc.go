// Package optimizer rewrites logical plans. It assigns input and output
// schemas to every node (Annotate), pushes selection conjuncts as far down
// the tree as their columns allow, and prunes the columns produced by scans
// to those some ancestor needs. Joins are never reordered.
package optimizer
