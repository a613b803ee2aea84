// Package sort implements the ORDER BY operators: InMemorySort for inputs
// known to be small and ExternalSort, which spills sorted runs to disk and
// merges them.
package sort
