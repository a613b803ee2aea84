package iterator

import (
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/tuple"
)

// DbIterator defines the contract for every physical operator in the
// execution engine. Operators form a tree; pulling from the root pulls
// recursively from the leaves.
type DbIterator interface {
	TupleIterator

	// Open prepares the operator and opens its children. Calling Open on an
	// opened operator is a no-op.
	Open() error

	// Rewind restarts the output sequence from the first tuple. The operator
	// must be open.
	Rewind() error

	// Close releases buffers, hash tables and spill files and closes the
	// children. It is safe to call more than once and on every exit path,
	// including before the input is exhausted.
	Close() error

	// Schema describes the tuples returned by Next. It may be called before
	// Open.
	Schema() *catalog.Schema
}

// TupleIterator is the minimal pull interface shared by operators and
// materialized tuple sources.
type TupleIterator interface {
	// HasNext reports whether another tuple is available without consuming it.
	HasNext() (bool, error)

	// Next returns the next tuple and advances the position.
	Next() (*tuple.Tuple, error)
}
