package planner

import "sqlcore/pkg/storage"

// unknown marks a row count that cannot be estimated.
const unknown = storage.UnknownRows

// known reports whether all estimates are known.
func known(rows ...int64) bool {
	for _, r := range rows {
		if r < 0 {
			return false
		}
	}
	return true
}

// joinEstimate is the product of both inputs for a cross join and the larger
// input otherwise.
func joinEstimate(outer, inner int64, cross bool) int64 {
	if !known(outer, inner) {
		return unknown
	}
	if cross {
		return outer * inner
	}
	return max(outer, inner)
}
