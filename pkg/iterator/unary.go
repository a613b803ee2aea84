package iterator

import (
	"github.com/cockroachdb/errors"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/tuple"
)

// UnaryOperator provides a base implementation for operators with a single
// child. It combines BaseIterator's lookahead with child lifecycle
// management, so Filter, Project, Sort and similar operators only supply
// their readNext logic and output schema.
type UnaryOperator struct {
	base   *BaseIterator
	child  DbIterator
	schema *catalog.Schema
}

// NewUnaryOperator creates a unary operator producing schema. A nil schema
// means the child's schema is forwarded.
func NewUnaryOperator(child DbIterator, schema *catalog.Schema, readNextFunc ReadNextFunc) (*UnaryOperator, error) {
	if child == nil {
		return nil, errors.New("child operator cannot be nil")
	}

	u := &UnaryOperator{
		child:  child,
		schema: schema,
	}
	u.base = NewBaseIterator(readNextFunc)
	return u, nil
}

// FetchNext retrieves the next tuple from the child operator, or nil when
// the child is exhausted.
func (u *UnaryOperator) FetchNext() (*tuple.Tuple, error) {
	return fetch(u.child)
}

// Open opens the child operator and marks this operator as ready.
func (u *UnaryOperator) Open() error {
	if u.base.IsOpened() {
		return nil
	}
	if err := u.child.Open(); err != nil {
		_ = u.child.Close()
		return errors.Wrap(err, "failed to open child operator")
	}
	u.base.MarkOpened()
	return nil
}

// Close closes the child operator and releases resources.
func (u *UnaryOperator) Close() error {
	err := u.child.Close()
	return errors.CombineErrors(err, u.base.Close())
}

// Rewind resets both the child operator and the lookahead cache.
func (u *UnaryOperator) Rewind() error {
	if err := u.child.Rewind(); err != nil {
		return errors.Wrap(err, "failed to rewind child operator")
	}
	u.base.ClearCache()
	return nil
}

// Schema returns the operator's output schema.
func (u *UnaryOperator) Schema() *catalog.Schema {
	if u.schema != nil {
		return u.schema
	}
	return u.child.Schema()
}

func (u *UnaryOperator) HasNext() (bool, error)      { return u.base.HasNext() }
func (u *UnaryOperator) Next() (*tuple.Tuple, error) { return u.base.Next() }
func (u *UnaryOperator) IsOpened() bool              { return u.base.IsOpened() }

// Child returns the child operator (useful for inspection/testing).
func (u *UnaryOperator) Child() DbIterator {
	return u.child
}

// fetch retrieves the next tuple from child, or nil when it is exhausted.
func fetch(child DbIterator) (*tuple.Tuple, error) {
	hasNext, err := child.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}
	return child.Next()
}
