package iterator

import (
	"github.com/cockroachdb/errors"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/tuple"
)

// BinaryOperator provides a base implementation for operators with two
// children, the outer (left) and inner (right) inputs of a join.
//
// Operators that embed BinaryOperator only need to implement their specific
// readNext logic - all lifecycle management is handled automatically.
type BinaryOperator struct {
	base   *BaseIterator
	outer  DbIterator
	inner  DbIterator
	schema *catalog.Schema
}

// NewBinaryOperator creates a binary operator producing schema.
func NewBinaryOperator(outer, inner DbIterator, schema *catalog.Schema, readNextFunc ReadNextFunc) (*BinaryOperator, error) {
	if outer == nil {
		return nil, errors.New("outer child operator cannot be nil")
	}
	if inner == nil {
		return nil, errors.New("inner child operator cannot be nil")
	}

	b := &BinaryOperator{
		outer:  outer,
		inner:  inner,
		schema: schema,
	}
	b.base = NewBaseIterator(readNextFunc)
	return b, nil
}

// FetchOuter retrieves the next tuple from the outer child, or nil when it
// is exhausted.
func (b *BinaryOperator) FetchOuter() (*tuple.Tuple, error) {
	t, err := fetch(b.outer)
	if err != nil {
		return nil, errors.Wrap(err, "error fetching outer tuple")
	}
	return t, nil
}

// FetchInner retrieves the next tuple from the inner child, or nil when it
// is exhausted.
func (b *BinaryOperator) FetchInner() (*tuple.Tuple, error) {
	t, err := fetch(b.inner)
	if err != nil {
		return nil, errors.Wrap(err, "error fetching inner tuple")
	}
	return t, nil
}

// Open opens both child operators and marks this operator as ready. When
// the inner child fails to open the outer one is closed again.
func (b *BinaryOperator) Open() error {
	if b.base.IsOpened() {
		return nil
	}
	if err := b.outer.Open(); err != nil {
		_ = b.outer.Close()
		return errors.Wrap(err, "failed to open outer child")
	}
	if err := b.inner.Open(); err != nil {
		return errors.CombineErrors(
			errors.Wrap(err, "failed to open inner child"),
			errors.CombineErrors(b.inner.Close(), b.outer.Close()))
	}

	b.base.MarkOpened()
	return nil
}

// Close closes both child operators, collecting both errors.
func (b *BinaryOperator) Close() error {
	var err error
	if cerr := b.outer.Close(); cerr != nil {
		err = errors.CombineErrors(err, errors.Wrap(cerr, "outer child close"))
	}
	if cerr := b.inner.Close(); cerr != nil {
		err = errors.CombineErrors(err, errors.Wrap(cerr, "inner child close"))
	}
	return errors.CombineErrors(err, b.base.Close())
}

// Rewind resets both child operators and the lookahead cache.
func (b *BinaryOperator) Rewind() error {
	if err := b.outer.Rewind(); err != nil {
		return errors.Wrap(err, "failed to rewind outer child")
	}
	if err := b.inner.Rewind(); err != nil {
		return errors.Wrap(err, "failed to rewind inner child")
	}
	b.base.ClearCache()
	return nil
}

func (b *BinaryOperator) Schema() *catalog.Schema     { return b.schema }
func (b *BinaryOperator) HasNext() (bool, error)      { return b.base.HasNext() }
func (b *BinaryOperator) Next() (*tuple.Tuple, error) { return b.base.Next() }
func (b *BinaryOperator) Outer() DbIterator           { return b.outer }
func (b *BinaryOperator) Inner() DbIterator           { return b.inner }
func (b *BinaryOperator) IsOpened() bool              { return b.base.IsOpened() }
