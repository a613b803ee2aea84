package primitives

import "math"

// HashCode represents a hash value computed over one or more fields.
// It is used to bucket join and grouping keys.
type HashCode uint64

// ColumnID identifies a column by its ordinal position inside a schema.
type ColumnID uint32

// FragmentID identifies one storage split of a table.
type FragmentID string

// RunID numbers the sorted runs spilled by an external sort.
type RunID uint32

const (
	InvalidColumnID ColumnID = math.MaxUint32

	// UnknownRows marks a row count that could not be estimated.
	UnknownRows int64 = -1
)
